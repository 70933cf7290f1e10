package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/cache"
	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

// ErrNoLocation is returned when a snapshot has neither coordinates nor a city.
var ErrNoLocation = errors.New("location has neither coordinates nor city")

// Provider serves one day's named times per location, reading through the
// file cache when one is configured.
type Provider struct {
	client *Client
	cache  *cache.Cache
	method int
	school int
	log    zerolog.Logger
}

// NewProvider returns a Provider. c may be nil to disable caching.
func NewProvider(client *Client, c *cache.Cache, method, school int, logger zerolog.Logger) *Provider {
	return &Provider{client: client, cache: c, method: method, school: school, log: logger}
}

// Times returns the named times for loc on the calendar day of date.
func (p *Provider) Times(ctx context.Context, loc location.Snapshot, date time.Time) (namaz.Snapshot, error) {
	day, err := p.Day(ctx, loc, date)
	if err != nil {
		return nil, err
	}
	return day.Times.Clone(), nil
}

// Day returns the full cached entry for loc on the calendar day of date,
// including timezone and Hijri date.
func (p *Provider) Day(ctx context.Context, loc location.Snapshot, date time.Time) (*cache.DayEntry, error) {
	if loc.Timezone != "" {
		date = date.In(loc.Zone())
	}

	if p.cache != nil {
		if entry := p.cache.LoadDay(date, loc, p.method, p.school); entry != nil {
			return entry, nil
		}
	}

	resp, err := p.fetch(ctx, loc, date)
	if err != nil {
		return nil, err
	}

	entry := cache.DayEntry{
		Date:      date.Format("2006-01-02"),
		Method:    p.method,
		School:    p.school,
		Times:     resp.Data.Timings.Snapshot(),
		Timezone:  resp.Data.Meta.Timezone,
		Latitude:  resp.Data.Meta.Latitude,
		Longitude: resp.Data.Meta.Longitude,
		Hijri:     resp.Data.Date.Hijri.Format(),
		Gregorian: resp.Data.Date.Readable,
	}

	if p.cache != nil {
		if err := p.cache.SaveDay(date, loc, p.method, p.school, entry); err != nil {
			p.log.Warn().Err(err).Str("date", entry.Date).Msg("could not cache prayer times")
		}
	}
	return &entry, nil
}

func (p *Provider) fetch(ctx context.Context, loc location.Snapshot, date time.Time) (*Response, error) {
	p.log.Debug().Str("location", loc.String()).Str("date", date.Format("2006-01-02")).Msg("fetching prayer times")

	switch {
	case loc.Latitude != 0 || loc.Longitude != 0:
		return p.client.FetchByCoordinates(ctx, date, loc.Latitude, loc.Longitude, p.method, p.school)
	case loc.City != "":
		return p.client.FetchByCity(ctx, date, loc.City, loc.Country, p.method, p.school)
	default:
		return nil, fmt.Errorf("fetch prayer times: %w", ErrNoLocation)
	}
}
