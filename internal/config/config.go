// Package config provides persistent configuration for ghari.
//
// Configuration is stored as JSON at ~/.config/ghari/config.json
// (XDG-compliant). The merge priority is: CLI flags > GHARI_* environment
// (including a .env file) > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

const (
	configDirName  = "ghari"
	configFileName = "config.json"
	envPrefix      = "GHARI_"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude", "timezone",
	"method", "school",
	"time_format",
	"prayers",
	"cache_dir", "data_dir",
	"debug_mode", "log_level",
	"store", "redis_addr", "database_url",
	"delivery", "mqtt_broker", "fcm_credentials",
	"channel", "ensure_interval",
}

var (
	storeKinds    = []string{"file", "memory", "redis", "postgres"}
	deliveryKinds = []string{"console", "log", "mqtt", "fcm"}
	logLevels     = []string{"trace", "debug", "info", "warn", "error"}
)

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City       string  `json:"city,omitempty"`
	Country    string  `json:"country,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
	Method     *int    `json:"method,omitempty"` // pointer so 0 (Jafari) differs from unset
	School     *int    `json:"school,omitempty"`
	TimeFormat string  `json:"time_format,omitempty"` // "12h" or "24h"
	Prayers    string  `json:"prayers,omitempty"`     // comma-separated labels
	CacheDir   string  `json:"cache_dir,omitempty"`
	DataDir    string  `json:"data_dir,omitempty"`

	DebugMode bool   `json:"debug_mode,omitempty"`
	LogLevel  string `json:"log_level,omitempty"`

	Store       string `json:"store,omitempty"`
	RedisAddr   string `json:"redis_addr,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	Delivery       string `json:"delivery,omitempty"`
	MQTTBroker     string `json:"mqtt_broker,omitempty"`
	FCMCredentials string `json:"fcm_credentials,omitempty"`
	Channel        string `json:"channel,omitempty"`
	EnsureInterval string `json:"ensure_interval,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := -1
	school := -1
	return Config{
		Method:         &method,
		School:         &school,
		TimeFormat:     "24h",
		LogLevel:       "info",
		Store:          "file",
		RedisAddr:      "localhost:6379",
		Delivery:       "console",
		MQTTBroker:     "tcp://localhost:1883",
		Channel:        "prayer-reminders",
		EnsureInterval: "1h",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// ApplyEnv overlays every GHARI_<KEY> variable that is set and non-empty.
func (c *Config) ApplyEnv() error {
	for _, key := range ValidKeys {
		v, ok := os.LookupEnv(EnvName(key))
		if !ok || v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := parseCoord(value, 90)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: %w", value, err)
		}
		c.Latitude = v
	case "longitude":
		v, err := parseCoord(value, 180)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: %w", value, err)
		}
		c.Longitude = v
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		c.Timezone = value
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 || v > 23 {
			return fmt.Errorf("invalid method %q: must be an integer between 0 and 23", value)
		}
		c.Method = &v
	case "school":
		v, err := strconv.Atoi(value)
		if err != nil || (v != 0 && v != 1) {
			return fmt.Errorf("invalid school %q: must be 0 (Shafi) or 1 (Hanafi)", value)
		}
		c.School = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		for _, n := range strings.Split(value, ",") {
			n = strings.TrimSpace(n)
			if !namaz.Label(n).IsValid() {
				return fmt.Errorf("invalid prayer label %q in prayers list; valid: %s",
					n, strings.Join(namaz.LabelStrings(), ", "))
			}
		}
		c.Prayers = value
	case "cache_dir":
		c.CacheDir = value
	case "data_dir":
		c.DataDir = value
	case "debug_mode":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid debug_mode %q: must be true or false", value)
		}
		c.DebugMode = v
	case "log_level":
		if err := oneOf(value, logLevels); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
		c.LogLevel = value
	case "store":
		if err := oneOf(value, storeKinds); err != nil {
			return fmt.Errorf("invalid store: %w", err)
		}
		c.Store = value
	case "redis_addr":
		c.RedisAddr = value
	case "database_url":
		c.DatabaseURL = value
	case "delivery":
		if err := oneOf(value, deliveryKinds); err != nil {
			return fmt.Errorf("invalid delivery: %w", err)
		}
		c.Delivery = value
	case "mqtt_broker":
		c.MQTTBroker = value
	case "fcm_credentials":
		c.FCMCredentials = value
	case "channel":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("invalid channel: must not be empty")
		}
		c.Channel = value
	case "ensure_interval":
		d, err := time.ParseDuration(value)
		if err != nil || d < time.Minute {
			return fmt.Errorf("invalid ensure_interval %q: must be a duration of at least 1m", value)
		}
		c.EnsureInterval = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		return formatCoord(c.Latitude), nil
	case "longitude":
		return formatCoord(c.Longitude), nil
	case "timezone":
		return c.Timezone, nil
	case "method":
		return formatOptInt(c.Method), nil
	case "school":
		return formatOptInt(c.School), nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "data_dir":
		return c.DataDir, nil
	case "debug_mode":
		if !c.DebugMode {
			return "", nil
		}
		return "true", nil
	case "log_level":
		return c.LogLevel, nil
	case "store":
		return c.Store, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "database_url":
		return c.DatabaseURL, nil
	case "delivery":
		return c.Delivery, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "fcm_credentials":
		return c.FCMCredentials, nil
	case "channel":
		return c.Channel, nil
	case "ensure_interval":
		return c.EnsureInterval, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Merge fills every unset field of c from fallback.
func (c *Config) Merge(fallback Config) {
	setStr := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	setStr(&c.City, fallback.City)
	setStr(&c.Country, fallback.Country)
	setStr(&c.Timezone, fallback.Timezone)
	setStr(&c.TimeFormat, fallback.TimeFormat)
	setStr(&c.Prayers, fallback.Prayers)
	setStr(&c.CacheDir, fallback.CacheDir)
	setStr(&c.DataDir, fallback.DataDir)
	setStr(&c.LogLevel, fallback.LogLevel)
	setStr(&c.Store, fallback.Store)
	setStr(&c.RedisAddr, fallback.RedisAddr)
	setStr(&c.DatabaseURL, fallback.DatabaseURL)
	setStr(&c.Delivery, fallback.Delivery)
	setStr(&c.MQTTBroker, fallback.MQTTBroker)
	setStr(&c.FCMCredentials, fallback.FCMCredentials)
	setStr(&c.Channel, fallback.Channel)
	setStr(&c.EnsureInterval, fallback.EnsureInterval)
	if c.Latitude == 0 && c.Longitude == 0 {
		c.Latitude, c.Longitude = fallback.Latitude, fallback.Longitude
	}
	if c.Method == nil {
		c.Method = fallback.Method
	}
	if c.School == nil {
		c.School = fallback.School
	}
	c.DebugMode = c.DebugMode || fallback.DebugMode
}

// PrayerLabels returns the configured label filter, or nil for "all".
func (c *Config) PrayerLabels() []namaz.Label {
	if c.Prayers == "" {
		return nil
	}
	var out []namaz.Label
	for _, n := range strings.Split(c.Prayers, ",") {
		out = append(out, namaz.Label(strings.TrimSpace(n)))
	}
	return out
}

// EnsureEvery parses EnsureInterval, falling back to one hour.
func (c *Config) EnsureEvery() time.Duration {
	d, err := time.ParseDuration(c.EnsureInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// SchoolOrDefault returns the school value, falling back to the given default.
func (c *Config) SchoolOrDefault(def int) int {
	if c.School != nil {
		return *c.School
	}
	return def
}

func parseCoord(value string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("must be between %g and %g", -limit, limit)
	}
	return v, nil
}

func formatCoord(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func oneOf(value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%q must be one of %s", value, strings.Join(allowed, ", "))
}
