// Package location holds the device location snapshot that prayer times are
// computed for, and a tracker that versions every change to it.
package location

import (
	"fmt"
	"sync"
	"time"
)

// Type records how a snapshot was obtained.
type Type string

const (
	TypeAuto   Type = "auto"   // IP geolocation
	TypeManual Type = "manual" // city/country entered by the user
	TypeCoords Type = "coords" // explicit latitude/longitude
)

// Snapshot is an immutable description of where the user is.
type Snapshot struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	State     string  `json:"state,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
	Type      Type    `json:"type,omitempty"`
}

// Zone loads the snapshot's IANA timezone, falling back to UTC.
func (s Snapshot) Zone() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsZero reports whether no location has been set.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}

// String renders "City, Country" when known, else the coordinates.
func (s Snapshot) String() string {
	if s.City != "" && s.Country != "" {
		return s.City + ", " + s.Country
	}
	return fmt.Sprintf("%.4f, %.4f", s.Latitude, s.Longitude)
}

// Update is delivered to subscribers on every version change.
type Update struct {
	Snapshot Snapshot
	Version  uint64
}

// Tracker owns the current snapshot and a version counter that increases by
// one on every change. Subscribers react to versions, never to raw
// coordinate deltas.
type Tracker struct {
	mu      sync.RWMutex
	current Snapshot
	version uint64
	subs    []chan Update
}

// NewTracker returns an empty tracker at version 0.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Restore seeds a persisted snapshot and version without notifying.
func (t *Tracker) Restore(s Snapshot, version uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = s
	t.version = version
}

// Set replaces the current snapshot. An identical snapshot is ignored;
// otherwise the version is incremented and subscribers are notified.
// It returns the version in effect after the call.
func (t *Tracker) Set(s Snapshot) uint64 {
	t.mu.Lock()
	if s == t.current {
		v := t.version
		t.mu.Unlock()
		return v
	}
	t.current = s
	t.version++
	u := Update{Snapshot: s, Version: t.version}
	subs := append([]chan Update(nil), t.subs...)
	t.mu.Unlock()

	for _, ch := range subs {
		// Subscribers only care about the latest version; drop a stale
		// pending update rather than block.
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
	return u.Version
}

// Current returns the snapshot and its version.
func (t *Tracker) Current() (Snapshot, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.version
}

// Subscribe returns a channel that receives the latest Update after each
// change, and a func that stops delivery. The channel is buffered by one and
// never closed by the tracker.
func (t *Tracker) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)
	t.mu.Lock()
	t.subs = append(t.subs, ch)
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, c := range t.subs {
				if c == ch {
					t.subs = append(t.subs[:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}
