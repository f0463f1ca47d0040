package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/waffles/internal/domain/model"
)

const fileMode = 0o644

// JSONStore keeps events as a calendar-ready JSON array on disk.
type JSONStore struct {
	mu   sync.Mutex
	path string
	opts options
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string, opts ...Option) (*JSONStore, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &JSONStore{path: path, opts: o}, nil
}

// Load reads the file. A missing or empty file is an empty set.
func (s *JSONStore) Load(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json store: read: %w", err)
	}
	if len(b) == 0 {
		return []model.Event{}, nil
	}
	var events []model.Event
	if err := json.Unmarshal(b, &events); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// Save writes the set to a temp file next to the target and renames it
// into place, so readers never see a partial file.
func (s *JSONStore) Save(ctx context.Context, events []model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		events = []model.Event{}
	}
	var (
		b   []byte
		err error
	)
	if s.opts.indent != "" {
		b, err = json.MarshalIndent(events, "", s.opts.indent)
	} else {
		b, err = json.Marshal(events)
	}
	if err != nil {
		return fmt.Errorf("json store: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("json store: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".events-*.json")
	if err != nil {
		return fmt.Errorf("json store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("json store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("json store: close: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("json store: chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("json store: rename: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *JSONStore) Close() error { return nil }
