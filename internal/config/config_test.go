package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

// tempConfigPath returns a path to a config file inside a temp directory.
func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

// --- Defaults ---

func TestDefaults(t *testing.T) {
	d := Defaults()

	if d.Method == nil || *d.Method != -1 {
		t.Errorf("Defaults().Method = %v, want -1", d.Method)
	}
	if d.School == nil || *d.School != -1 {
		t.Errorf("Defaults().School = %v, want -1", d.School)
	}

	checks := map[string]string{
		"time_format":     "24h",
		"log_level":       "info",
		"store":           "file",
		"delivery":        "console",
		"channel":         "prayer-reminders",
		"ensure_interval": "1h",
		"city":            "",
		"debug_mode":      "",
	}
	for key, want := range checks {
		got, err := d.Get(key)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", key, err)
		}
		if got != want {
			t.Errorf("Defaults() %s = %q, want %q", key, got, want)
		}
	}
}

// --- Dir and Path with XDG ---

func TestDir_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "ghari")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestDir_FallbackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".config", "ghari")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestPath_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	p, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "ghari", "config.json")
	if p != want {
		t.Errorf("Path() = %q, want %q", p, want)
	}
}

// --- LoadFrom / SaveTo ---

func TestLoadFrom_NonExistentFile(t *testing.T) {
	cfg, err := LoadFrom("/no/such/file.json")
	if err != nil {
		t.Fatalf("LoadFrom non-existent should not error, got: %v", err)
	}
	if cfg.City != "" || cfg.Method != nil || cfg.Store != "" {
		t.Error("LoadFrom non-existent should return empty config")
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{bad json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom with invalid JSON should error")
	}
}

func TestLoadFrom_MethodZero(t *testing.T) {
	// Method 0 (Jafari) must stay distinguishable from "not set".
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"method": 0, "debug_mode": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Method == nil || *cfg.Method != 0 {
		t.Errorf("Method = %v, want 0", cfg.Method)
	}
	if !cfg.DebugMode {
		t.Error("DebugMode should be true")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	method := 0
	school := 1
	original := &Config{
		City:           "Riyadh",
		Country:        "Saudi Arabia",
		Latitude:       24.7136,
		Longitude:      46.6753,
		Timezone:       "Asia/Riyadh",
		Method:         &method,
		School:         &school,
		TimeFormat:     "12h",
		Prayers:        "fajr,zawaal,maghrib_safe",
		DataDir:        "/tmp/data",
		DebugMode:      true,
		Store:          "redis",
		RedisAddr:      "redis:6379",
		Delivery:       "mqtt",
		MQTTBroker:     "tcp://broker:1883",
		Channel:        "family",
		EnsureInterval: "30m",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Error("saved file should end with a newline")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}

	for _, key := range ValidKeys {
		want, _ := original.Get(key)
		got, _ := loaded.Get(key)
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

// --- ResetAt ---

func TestResetAt(t *testing.T) {
	path := tempConfigPath(t)
	cfg := &Config{City: "London"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	if err := ResetAt(path); err != nil {
		t.Fatalf("ResetAt error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ResetAt should have deleted the file")
	}
	if err := ResetAt(path); err != nil {
		t.Errorf("ResetAt on missing file should not error, got: %v", err)
	}
}

// --- Set ---

func TestSet_Validation(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"latitude", "51.5074", false},
		{"latitude", "-90", false},
		{"latitude", "91", true},
		{"latitude", "abc", true},
		{"longitude", "180", false},
		{"longitude", "-181", true},
		{"timezone", "Europe/London", false},
		{"timezone", "Mars/Olympus", true},
		{"method", "0", false},
		{"method", "23", false},
		{"method", "24", true},
		{"method", "abc", true},
		{"school", "1", false},
		{"school", "2", true},
		{"time_format", "12h", false},
		{"time_format", "", true},
		{"prayers", "fajr", false},
		{"prayers", "sihori,fajr,zawaal,maghrib_safe,nisful_layl", false},
		{"prayers", "Fajr", true},
		{"prayers", "fajr,,zawaal", true},
		{"debug_mode", "true", false},
		{"debug_mode", "yes", true},
		{"log_level", "debug", false},
		{"log_level", "verbose", true},
		{"store", "postgres", false},
		{"store", "sqlite", true},
		{"delivery", "fcm", false},
		{"delivery", "sms", true},
		{"channel", "family", false},
		{"channel", " ", true},
		{"ensure_interval", "15m", false},
		{"ensure_interval", "10s", true},
		{"ensure_interval", "soon", true},
		{"unknown_key", "value", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Set(%s, %q) error = %v, wantErr = %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestSet_ThenGet(t *testing.T) {
	values := map[string]string{
		"city":            "Cairo",
		"country":         "Egypt",
		"latitude":        "30.0444",
		"longitude":       "31.2357",
		"timezone":        "Africa/Cairo",
		"method":          "5",
		"school":          "0",
		"time_format":     "12h",
		"prayers":         "fajr,asar",
		"cache_dir":       "/tmp/cache",
		"data_dir":        "/tmp/data",
		"debug_mode":      "true",
		"log_level":       "warn",
		"store":           "postgres",
		"redis_addr":      "localhost:6380",
		"database_url":    "postgres://u:p@localhost/ghari?sslmode=disable",
		"delivery":        "log",
		"mqtt_broker":     "tcp://localhost:1884",
		"fcm_credentials": "/etc/ghari/sa.json",
		"channel":         "mosque",
		"ensure_interval": "2h",
	}
	if len(values) != len(ValidKeys) {
		t.Fatalf("test covers %d keys, ValidKeys has %d", len(values), len(ValidKeys))
	}

	cfg := &Config{}
	for key, v := range values {
		if err := cfg.Set(key, v); err != nil {
			t.Fatalf("Set(%s, %q): %v", key, v, err)
		}
	}
	for key, want := range values {
		got, err := cfg.Get(key)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", key, err)
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestGet_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	for _, key := range ValidKeys {
		got, err := cfg.Get(key)
		if err != nil {
			t.Errorf("Get(%q) error: %v", key, err)
		}
		if got != "" {
			t.Errorf("Get(%q) = %q, want empty for empty config", key, got)
		}
	}
}

func TestGet_UnknownKey(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.Get("unknown_key"); err == nil {
		t.Fatal("Get with unknown key should error")
	}
}

// --- Environment ---

func TestApplyEnv(t *testing.T) {
	t.Setenv("GHARI_CITY", "Medina")
	t.Setenv("GHARI_STORE", "memory")
	t.Setenv("GHARI_DEBUG_MODE", "true")
	t.Setenv("GHARI_COUNTRY", "")

	cfg := &Config{City: "Mecca", Country: "Saudi Arabia"}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv error: %v", err)
	}

	if cfg.City != "Medina" {
		t.Errorf("City = %q, want Medina", cfg.City)
	}
	if cfg.Country != "Saudi Arabia" {
		t.Errorf("empty env var should not override, Country = %q", cfg.Country)
	}
	if cfg.Store != "memory" || !cfg.DebugMode {
		t.Errorf("Store = %q DebugMode = %v", cfg.Store, cfg.DebugMode)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("GHARI_METHOD", "99")

	cfg := &Config{}
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("ApplyEnv should reject an invalid method")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GHARI_CHANNEL=from-dotenv\nGHARI_CITY=Dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GHARI_CITY", "FromShell")
	t.Setenv("GHARI_CHANNEL", "")
	os.Unsetenv("GHARI_CHANNEL")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}

	if got := os.Getenv("GHARI_CHANNEL"); got != "from-dotenv" {
		t.Errorf("GHARI_CHANNEL = %q, want from-dotenv", got)
	}
	if got := os.Getenv("GHARI_CITY"); got != "FromShell" {
		t.Errorf(".env must not override the shell, GHARI_CITY = %q", got)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("database_url"); got != "GHARI_DATABASE_URL" {
		t.Errorf("EnvName = %q", got)
	}
}

// --- Helpers ---

func TestMerge(t *testing.T) {
	cfg := &Config{City: "Doha", Store: "redis"}
	cfg.Merge(Defaults())

	if cfg.City != "Doha" || cfg.Store != "redis" {
		t.Errorf("Merge overrode set values: %+v", cfg)
	}
	if cfg.Delivery != "console" || cfg.TimeFormat != "24h" {
		t.Errorf("Merge did not fill defaults: %+v", cfg)
	}
	if cfg.Method == nil || *cfg.Method != -1 {
		t.Errorf("Method = %v, want -1", cfg.Method)
	}
}

func TestPrayerLabels(t *testing.T) {
	cfg := &Config{}
	if cfg.PrayerLabels() != nil {
		t.Error("empty prayers should mean all labels")
	}

	cfg.Prayers = "fajr, zawaal"
	got := cfg.PrayerLabels()
	if len(got) != 2 || got[0] != namaz.Fajr || got[1] != namaz.Zawaal {
		t.Errorf("PrayerLabels = %v", got)
	}
}

func TestEnsureEvery(t *testing.T) {
	if got := (&Config{EnsureInterval: "30m"}).EnsureEvery(); got != 30*time.Minute {
		t.Errorf("EnsureEvery = %v", got)
	}
	if got := (&Config{}).EnsureEvery(); got != time.Hour {
		t.Errorf("EnsureEvery default = %v", got)
	}
}

func TestMethodOrDefault(t *testing.T) {
	zero := 0
	if got := (&Config{Method: &zero}).MethodOrDefault(2); got != 0 {
		t.Errorf("MethodOrDefault = %d, want 0 (Jafari)", got)
	}
	if got := (&Config{}).MethodOrDefault(2); got != 2 {
		t.Errorf("MethodOrDefault = %d, want 2", got)
	}
}

func TestSchoolOrDefault(t *testing.T) {
	one := 1
	if got := (&Config{School: &one}).SchoolOrDefault(0); got != 1 {
		t.Errorf("SchoolOrDefault = %d, want 1", got)
	}
	if got := (&Config{}).SchoolOrDefault(0); got != 0 {
		t.Errorf("SchoolOrDefault = %d, want 0", got)
	}
}

func TestConfigJSONKeysMatchValidKeys(t *testing.T) {
	raw, err := json.Marshal(fullConfig())
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range ValidKeys {
		if _, ok := m[key]; !ok {
			t.Errorf("JSON output missing key %q", key)
		}
	}
}

func fullConfig() *Config {
	m, s := 1, 1
	return &Config{
		City: "a", Country: "b", Latitude: 1, Longitude: 1, Timezone: "UTC",
		Method: &m, School: &s, TimeFormat: "12h", Prayers: "fajr",
		CacheDir: "c", DataDir: "d", DebugMode: true, LogLevel: "info",
		Store: "file", RedisAddr: "r", DatabaseURL: "p", Delivery: "log",
		MQTTBroker: "m", FCMCredentials: "f", Channel: "ch", EnsureInterval: "1h",
	}
}
