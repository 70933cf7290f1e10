package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/ghari/internal/api"
	"github.com/smokyabdulrahman/ghari/internal/cache"
	"github.com/smokyabdulrahman/ghari/internal/config"
	"github.com/smokyabdulrahman/ghari/internal/display"
	"github.com/smokyabdulrahman/ghari/internal/geo"
	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/logging"
	"github.com/smokyabdulrahman/ghari/internal/notify"
	"github.com/smokyabdulrahman/ghari/internal/reminder"
	"github.com/smokyabdulrahman/ghari/internal/store"
)

// taskQueue is the asynq queue reminder deliveries are enqueued on.
const taskQueue = "reminders"

// dayProvider serves named times plus the day's metadata.
type dayProvider interface {
	reminder.TimesProvider
	Day(ctx context.Context, loc location.Snapshot, date time.Time) (*cache.DayEntry, error)
}

// app is the composition root shared by every subcommand. Fields left nil
// are filled with production implementations by init.
type app struct {
	flags rootFlags

	cfg      *config.Config
	log      zerolog.Logger
	cache    *cache.Cache
	provider dayProvider
	detect   func(ctx context.Context) (location.Snapshot, error)
	now      func() time.Time
	tracker  *location.Tracker

	closers []func()
}

// init loads configuration and wires the shared collaborators.
func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.flags.envFile); err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	cfg.Merge(config.Defaults())
	a.cfg = cfg

	a.log = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, true)

	if a.cache == nil {
		c, err := cache.New(cfg.CacheDir)
		if err != nil {
			a.log.Warn().Err(err).Msg("cache disabled")
		} else {
			a.cache = c
		}
	}
	if a.provider == nil {
		a.provider = api.NewProvider(api.NewClient(), a.cache, cfg.MethodOrDefault(-1), cfg.SchoolOrDefault(-1), a.log)
	}
	if a.detect == nil {
		a.detect = geo.DetectLocation
	}
	if a.tracker == nil {
		a.tracker = location.NewTracker()
	}
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.flags.configPath != "" {
		return config.LoadFrom(a.flags.configPath)
	}
	return config.Load()
}

func (a *app) configPath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.Path()
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// resolveLocation determines the effective location.
// Priority: coordinates > city > cached geolocation > IP auto-detect.
// The timezone is filled from the prayer times API when not configured.
func (a *app) resolveLocation(ctx context.Context) (location.Snapshot, error) {
	return a.locate(ctx, false)
}

// locate resolves the location; fresh skips the geolocation cache.
func (a *app) locate(ctx context.Context, fresh bool) (location.Snapshot, error) {
	cfg := a.cfg
	var loc location.Snapshot

	switch {
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		loc = location.Snapshot{
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
			City:      cfg.City,
			Country:   cfg.Country,
			Timezone:  cfg.Timezone,
			Type:      location.TypeCoords,
		}
	case cfg.City != "":
		if cfg.Country == "" {
			return location.Snapshot{}, fmt.Errorf("--country is required when using --city")
		}
		loc = location.Snapshot{City: cfg.City, Country: cfg.Country, Timezone: cfg.Timezone, Type: location.TypeManual}
	default:
		if a.cache != nil && !fresh {
			if cached := a.cache.LoadGeo(); cached != nil {
				loc = *cached
			}
		}
		if loc.IsZero() {
			detected, err := a.detect(ctx)
			if err != nil {
				return location.Snapshot{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
			}
			loc = detected
			if a.cache != nil {
				if err := a.cache.SaveGeo(loc); err != nil {
					a.log.Warn().Err(err).Msg("could not cache geolocation")
				}
			}
		}
		if cfg.Timezone != "" {
			loc.Timezone = cfg.Timezone
		}
	}

	if loc.Timezone == "" {
		day, err := a.provider.Day(ctx, loc, a.clock())
		if err != nil {
			return location.Snapshot{}, err
		}
		loc.Timezone = day.Timezone
	}
	return loc, nil
}

// setLocation hands loc to the tracker, restoring the persisted version
// first so versions keep increasing across runs. It returns the version in
// effect and whether loc differs from the last known location.
func (a *app) setLocation(loc location.Snapshot) (uint64, bool) {
	if _, v := a.tracker.Current(); v == 0 && a.cache != nil {
		if prev, pv, ok := a.cache.LoadTracker(); ok {
			a.tracker.Restore(prev, pv)
		}
	}

	_, before := a.tracker.Current()
	version := a.tracker.Set(loc)
	if version == before {
		return version, false
	}

	if a.cache != nil {
		if err := a.cache.SaveTracker(loc, version); err != nil {
			a.log.Warn().Err(err).Msg("could not persist location state")
		}
	}
	a.log.Debug().Uint64("version", version).Str("location", loc.String()).Msg("location changed")
	return version, true
}

// consoleDelivery reports whether reminders fire inside this process rather
// than through the Redis-backed queue.
func (a *app) consoleDelivery() bool {
	return a.cfg.Delivery == "console"
}

func (a *app) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: a.cfg.RedisAddr}
}

// openStore builds the reminder store selected by the store setting.
func (a *app) openStore(ctx context.Context) (reminder.Store, error) {
	switch a.cfg.Store {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		rdb, err := store.OpenRedis(ctx, a.cfg.RedisAddr, "", "")
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = rdb.Close() })
		return store.NewRedisStore(rdb, store.DefaultRedisKey), nil
	case "postgres":
		db, err := store.OpenPostgres(ctx, a.cfg.DatabaseURL, a.log)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = db.Close() })
		ps := store.NewPostgresStore(db)
		if err := ps.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return ps, nil
	default:
		return store.NewFileStore(a.cfg.DataDir)
	}
}

// openNotifier returns an in-process notifier for console delivery, or the
// asynq notifier that a separate worker drains.
func (a *app) openNotifier(out io.Writer) reminder.Notifier {
	if a.consoleDelivery() {
		n := notify.NewConsoleNotifier(printDeliverer(out), a.log)
		a.onClose(n.Close)
		return n
	}
	n := notify.NewAsynqNotifier(a.redisOpt(), taskQueue, a.log)
	a.onClose(func() { _ = n.Close() })
	return n
}

// openDeliverer builds the worker-side delivery target.
func (a *app) openDeliverer(ctx context.Context, out io.Writer) (notify.Deliverer, error) {
	switch a.cfg.Delivery {
	case "mqtt":
		client, err := notify.ConnectMQTT(a.cfg.MQTTBroker, "ghari-worker-"+uuid.NewString()[:8], a.log)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { client.Disconnect(250) })
		return notify.NewMQTTDeliverer(client), nil
	case "fcm":
		client, err := notify.NewFCMClient(ctx, a.cfg.FCMCredentials)
		if err != nil {
			return nil, err
		}
		return notify.NewFCMDeliverer(client), nil
	case "console":
		return printDeliverer(out), nil
	default:
		return notify.NewLogDeliverer(a.log), nil
	}
}

// openScheduler wires a Scheduler to the configured store and notifier.
func (a *app) openScheduler(cmd *cobra.Command) (*reminder.Scheduler, error) {
	st, err := a.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	n := a.openNotifier(cmd.OutOrStdout())
	opts := reminder.Options{
		DebugMode: a.cfg.DebugMode,
		Channel:   a.cfg.Channel,
		Now:       a.now,
	}
	if a.cache != nil {
		opts.Versions = a.cache
	}
	return reminder.New(st, n, a.provider, alerter{w: cmd.ErrOrStderr()}, a.log, opts), nil
}

// followLocation resolves the current location and reschedules every
// reminder unless the scheduler already handled the current version. The
// version may have been bumped by another process, such as a watch without
// a scheduler.
func (a *app) followLocation(ctx context.Context, sched *reminder.Scheduler) (location.Snapshot, error) {
	loc, err := a.resolveLocation(ctx)
	if err != nil {
		return location.Snapshot{}, err
	}
	version, _ := a.setLocation(loc)
	sched.RescheduleAll(ctx, loc, version)
	return loc, nil
}

// printDeliverer writes fired notifications to out.
func printDeliverer(out io.Writer) notify.Deliverer {
	return notify.DelivererFunc(func(_ context.Context, inst reminder.Instance) error {
		_, err := fmt.Fprintf(out, "\n  %s  %s\n", display.Accent(inst.Title), inst.Body)
		return err
	})
}

// alerter shows scheduler confirmations on stderr.
type alerter struct {
	w io.Writer
}

func (al alerter) Alert(title, message string) {
	fmt.Fprintf(al.w, "%s: %s\n", display.Bold(title), message)
}
