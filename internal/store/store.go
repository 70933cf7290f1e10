// Package store persists reminder specs. Every implementation satisfies
// reminder.Store and returns specs ordered by creation time.
package store

import (
	"sort"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

var (
	_ reminder.Store = (*MemoryStore)(nil)
	_ reminder.Store = (*FileStore)(nil)
	_ reminder.Store = (*RedisStore)(nil)
	_ reminder.Store = (*PostgresStore)(nil)
)

func sortSpecs(specs []reminder.Spec) {
	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].CreatedAt.Equal(specs[j].CreatedAt) {
			return specs[i].ID < specs[j].ID
		}
		return specs[i].CreatedAt.Before(specs[j].CreatedAt)
	})
}
