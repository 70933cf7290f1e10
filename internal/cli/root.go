// Package cli implements the ghari command tree.
package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/ghari/internal/config"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	city       string
	country    string
	latitude   float64
	longitude  float64
	timezone   string
	method     int
	school     int
	json       bool
	cacheDir   string
	dataDir    string
	timeFormat string
	logLevel   string
	debug      bool
	configPath string
	envFile    string
}

// Execute runs the ghari command tree and releases every resource it
// opened, including on error. The version parameter is set by the calling
// binary via ldflags.
func Execute(version string) error {
	a := &app{}
	defer a.close()
	return newRootCmd(version, a).Execute()
}

func newRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ghari",
		Short:   "Prayer periods and reminders",
		Long:    "Shows the current prayer period (Ghari) and the next prayer time, and schedules reminders bound to prayer times.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		// Default action: show today's schedule.
		RunE:          a.runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.city, "city", "", "Override city (takes precedence over config)")
	pf.StringVar(&a.flags.country, "country", "", "Override country")
	pf.Float64Var(&a.flags.latitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&a.flags.longitude, "longitude", 0, "Override longitude")
	pf.StringVar(&a.flags.timezone, "timezone", "", "IANA timezone of the location (default: reported by the API)")
	pf.IntVar(&a.flags.method, "method", -1, "Override calculation method (0-23)")
	pf.IntVar(&a.flags.school, "school", -1, "Override school (0=Shafi, 1=Hanafi)")
	pf.BoolVar(&a.flags.json, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/ghari/)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "Reminder data directory (default: ~/.local/share/ghari/)")
	pf.StringVar(&a.flags.timeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	pf.BoolVar(&a.flags.debug, "debug", false, "Enable debug mode (QA commands and reschedule alerts)")
	pf.StringVar(&a.flags.configPath, "config", "", "Config file (default: ~/.config/ghari/config.json)")
	pf.StringVar(&a.flags.envFile, "env-file", ".env", "Load GHARI_* variables from this file when present")

	rootCmd.AddCommand(a.newNowCmd())
	rootCmd.AddCommand(a.newTodayCmd())
	rootCmd.AddCommand(a.newWatchCmd())
	rootCmd.AddCommand(a.newRemindersCmd())
	rootCmd.AddCommand(a.newWorkerCmd())
	rootCmd.AddCommand(a.newQACmd())
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// applyFlags overlays every explicitly set flag onto cfg.
// Priority: CLI flags > environment > config file > defaults.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	f := &a.flags

	if flagWasSet(flags, root, "city") {
		cfg.City = f.city
	}
	if flagWasSet(flags, root, "country") {
		cfg.Country = f.country
	}
	if flagWasSet(flags, root, "latitude") {
		cfg.Latitude = f.latitude
	}
	if flagWasSet(flags, root, "longitude") {
		cfg.Longitude = f.longitude
	}
	if flagWasSet(flags, root, "timezone") {
		cfg.Timezone = f.timezone
	}
	if flagWasSet(flags, root, "method") {
		cfg.Method = &f.method
	}
	if flagWasSet(flags, root, "school") {
		cfg.School = &f.school
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = f.cacheDir
	}
	if flagWasSet(flags, root, "data-dir") {
		cfg.DataDir = f.dataDir
	}
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = f.timeFormat
	}
	if flagWasSet(flags, root, "log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flagWasSet(flags, root, "debug") {
		cfg.DebugMode = f.debug
	}
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// clockLayout maps the time_format setting to a Go layout.
func clockLayout(timeFormat string) string {
	if timeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// nowIn returns the current time in the location's zone.
func (a *app) nowIn(zone *time.Location) time.Time {
	return a.clock().In(zone)
}
