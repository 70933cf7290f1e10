// Package cache provides file-based caching for prayer times and location
// state so repeated invocations avoid network round-trips.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/ghari/internal/location"
	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

const (
	timesCacheFile   = "times_%s.json" // keyed by hash
	geoCacheFile     = "geolocation.json"
	trackerStateFile = "location_state.json"
	rescheduledFile  = "rescheduled_version.json"
	geoTTL           = 24 * time.Hour
)

// Cache provides file-based caching for prayer times and location data.
type Cache struct {
	dir string
	now func() time.Time
}

// DayEntry stores one day's named times along with metadata for validation.
type DayEntry struct {
	Date      string         `json:"date"` // YYYY-MM-DD
	Method    int            `json:"method"`
	School    int            `json:"school"`
	Times     namaz.Snapshot `json:"times"`
	Timezone  string         `json:"timezone"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Hijri     string         `json:"hijri,omitempty"`
	Gregorian string         `json:"gregorian,omitempty"`
}

type geoEntry struct {
	Location location.Snapshot `json:"location"`
	CachedAt time.Time         `json:"cached_at"`
}

type trackerState struct {
	Location location.Snapshot `json:"location"`
	Version  uint64            `json:"version"`
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/ghari/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "ghari")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// cacheKey hashes the parameters that affect prayer times so different
// locations, methods and schools get separate files.
func cacheKey(date string, loc location.Snapshot, method, school int) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%d|%d", date, loc.Latitude, loc.Longitude, loc.City, loc.Country, method, school)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

func (c *Cache) timesPath(date string, loc location.Snapshot, method, school int) string {
	return filepath.Join(c.dir, fmt.Sprintf(timesCacheFile, cacheKey(date, loc, method, school)))
}

// LoadDay reads cached times for the given parameters.
// Returns nil if the cache is missing or for another date.
func (c *Cache) LoadDay(date time.Time, loc location.Snapshot, method, school int) *DayEntry {
	dateStr := date.Format("2006-01-02")

	var entry DayEntry
	if !readJSON(c.timesPath(dateStr, loc, method, school), &entry) {
		return nil
	}
	if entry.Date != dateStr || len(entry.Times) == 0 {
		return nil
	}
	return &entry
}

// SaveDay writes one day's times to the cache. entry.Date is overwritten
// from date.
func (c *Cache) SaveDay(date time.Time, loc location.Snapshot, method, school int, entry DayEntry) error {
	entry.Date = date.Format("2006-01-02")
	entry.Method = method
	entry.School = school
	if err := writeJSON(c.timesPath(entry.Date, loc, method, school), entry); err != nil {
		return fmt.Errorf("failed to write times cache: %w", err)
	}
	return nil
}

// LoadGeo returns the cached IP geolocation, or nil if missing or older
// than 24 hours.
func (c *Cache) LoadGeo() *location.Snapshot {
	var entry geoEntry
	if !readJSON(filepath.Join(c.dir, geoCacheFile), &entry) {
		return nil
	}
	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}
	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc location.Snapshot) error {
	entry := geoEntry{Location: loc, CachedAt: c.now()}
	if err := writeJSON(filepath.Join(c.dir, geoCacheFile), entry); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}
	return nil
}

// LoadTracker returns the last persisted location and its version.
func (c *Cache) LoadTracker() (location.Snapshot, uint64, bool) {
	var st trackerState
	if !readJSON(filepath.Join(c.dir, trackerStateFile), &st) {
		return location.Snapshot{}, 0, false
	}
	return st.Location, st.Version, true
}

// SaveTracker persists the tracker's current location and version.
func (c *Cache) SaveTracker(loc location.Snapshot, version uint64) error {
	if err := writeJSON(filepath.Join(c.dir, trackerStateFile), trackerState{Location: loc, Version: version}); err != nil {
		return fmt.Errorf("failed to write location state: %w", err)
	}
	return nil
}

// HandledVersion returns the last location version reminders were
// rescheduled for.
func (c *Cache) HandledVersion() (uint64, bool) {
	var v uint64
	if !readJSON(filepath.Join(c.dir, rescheduledFile), &v) {
		return 0, false
	}
	return v, true
}

// SaveHandledVersion records that reminders were rescheduled for version.
func (c *Cache) SaveHandledVersion(version uint64) error {
	if err := writeJSON(filepath.Join(c.dir, rescheduledFile), version); err != nil {
		return fmt.Errorf("failed to write rescheduled version: %w", err)
	}
	return nil
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
