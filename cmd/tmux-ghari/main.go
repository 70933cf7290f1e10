package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/ghari/internal/api"
	"github.com/smokyabdulrahman/ghari/internal/cache"
	"github.com/smokyabdulrahman/ghari/internal/cli"
	"github.com/smokyabdulrahman/ghari/internal/geo"
	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/logging"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

// requestTimeout bounds a single status-bar refresh.
const requestTimeout = 15 * time.Second

type options struct {
	latitude, longitude float64
	city, country       string
	timezone            string
	method, school      int
	format, timeFormat  string
	cacheDir            string
}

func main() {
	var opts options

	// Location flags
	flag.Float64Var(&opts.latitude, "latitude", 0, "Latitude for prayer time calculation")
	flag.Float64Var(&opts.longitude, "longitude", 0, "Longitude for prayer time calculation")
	flag.StringVar(&opts.city, "city", "", "City name (alternative to coordinates)")
	flag.StringVar(&opts.country, "country", "", "Country code (used with --city)")
	flag.StringVar(&opts.timezone, "timezone", "", "IANA timezone override")

	// Calculation flags
	flag.IntVar(&opts.method, "method", -1, "Calculation method ID (0-23). -1 for API default.")
	flag.IntVar(&opts.school, "school", -1, "Juristic school: 0=Shafi, 1=Hanafi. -1 for API default.")

	// Display flags
	flag.StringVar(&opts.format, "format", namaz.FormatPeriodAndNext, "Display format: period, next, next-and-remaining, period-and-next, full, or a custom Go template (e.g. '{{.Next}} in {{.Remaining}}'). Template fields: .Period, .Group, .Description, .Next, .NextTime, .Remaining, .Hours, .Minutes")
	flag.StringVar(&opts.timeFormat, "time-format", "24h", "Time format: 12h or 24h")

	flag.StringVar(&opts.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/ghari/)")

	// Info flags
	showVersion := flag.Bool("version", false, "Print version and exit")
	listMethods := flag.Bool("list-methods", false, "Print supported calculation methods and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("tmux-ghari %s\n", version)
		return
	}

	if *listMethods {
		printMethods(os.Stdout)
		return
	}

	logger := logging.New(os.Stderr, "warn", true)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := run(ctx, os.Stdout, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printMethods prints the table of supported calculation methods.
func printMethods(w io.Writer) {
	fmt.Fprintln(w, "Supported calculation methods:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-4s %s\n", "ID", "Name")
	fmt.Fprintf(w, "  %-4s %s\n", "──", "────")
	for _, m := range cli.CalculationMethods {
		fmt.Fprintf(w, "  %-4d %s\n", m.ID, m.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use --method <ID> to select a calculation method.")
	fmt.Fprintln(w, "If omitted, the API picks a default based on your location.")
}

func run(ctx context.Context, w io.Writer, opts options, logger zerolog.Logger) error {
	layout := "15:04"
	if opts.timeFormat == "12h" {
		layout = "3:04 PM"
	}

	c, err := cache.New(opts.cacheDir)
	if err != nil {
		// Non-fatal; the provider fetches on every call without a cache.
		logger.Warn().Err(err).Msg("cache disabled")
		c = nil
	}

	loc, err := resolveLocation(ctx, opts, c)
	if err != nil {
		return err
	}

	provider := api.NewProvider(api.NewClient(), c, opts.method, opts.school, logger)
	day, err := provider.Day(ctx, loc, time.Now())
	if err != nil {
		return err
	}
	if loc.Timezone == "" {
		loc.Timezone = day.Timezone
	}
	if _, err := time.LoadLocation(loc.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", loc.Timezone, err)
	}

	// Evaluate in the location's zone so a remote city reads correctly.
	now := time.Now().In(loc.Zone())
	st := namaz.Resolve(day.Times, now)
	fmt.Fprint(w, namaz.FormatStatus(st, opts.format, layout))
	return nil
}

// resolveLocation picks coordinates, then city, then the cached or
// detected IP location.
func resolveLocation(ctx context.Context, opts options, c *cache.Cache) (location.Snapshot, error) {
	switch {
	case opts.latitude != 0 || opts.longitude != 0:
		return location.Snapshot{
			Latitude:  opts.latitude,
			Longitude: opts.longitude,
			Timezone:  opts.timezone,
			Type:      location.TypeCoords,
		}, nil
	case opts.city != "":
		if opts.country == "" {
			return location.Snapshot{}, fmt.Errorf("--country is required when using --city")
		}
		return location.Snapshot{
			City:     opts.city,
			Country:  opts.country,
			Timezone: opts.timezone,
			Type:     location.TypeManual,
		}, nil
	}

	if c != nil {
		if cached := c.LoadGeo(); cached != nil {
			return withTimezone(*cached, opts.timezone), nil
		}
	}

	detected, err := geo.DetectLocation(ctx)
	if err != nil {
		return location.Snapshot{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
	}
	if c != nil {
		_ = c.SaveGeo(detected) // best-effort
	}
	return withTimezone(detected, opts.timezone), nil
}

func withTimezone(loc location.Snapshot, tz string) location.Snapshot {
	if tz != "" {
		loc.Timezone = tz
	}
	return loc
}
