package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/smokyabdulrahman/ghari/internal/reminder"
)

const remindersFile = "reminders.json"

// FileStore keeps all specs in a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore rooted at dir. If dir is empty, it
// defaults to ~/.local/share/ghari/.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine home directory")
		}
		dir = filepath.Join(home, ".local", "share", "ghari")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create data directory %s", dir)
	}

	return &FileStore{path: filepath.Join(dir, remindersFile)}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) List(_ context.Context) ([]reminder.Spec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make([]reminder.Spec, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sortSpecs(out)
	return out, nil
}

func (f *FileStore) Save(_ context.Context, spec reminder.Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID, err := f.load()
	if err != nil {
		return err
	}
	byID[spec.ID] = spec
	return f.write(byID)
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byID, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := byID[id]; !ok {
		return nil
	}
	delete(byID, id)
	return f.write(byID)
}

func (f *FileStore) load() (map[string]reminder.Spec, error) {
	byID := make(map[string]reminder.Spec)

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return byID, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read reminders file")
	}

	var specs []reminder.Spec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, errors.Wrapf(err, "invalid reminders file %s", f.path)
	}
	for _, s := range specs {
		byID[s.ID] = s
	}
	return byID, nil
}

// write replaces the file via rename so readers never see a partial file.
func (f *FileStore) write(byID map[string]reminder.Spec) error {
	specs := make([]reminder.Spec, 0, len(byID))
	for _, s := range byID {
		specs = append(specs, s)
	}
	sortSpecs(specs)

	data, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal reminders")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write reminders file")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "failed to replace reminders file")
	}
	return nil
}
