package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jroosing/subzone/internal/logging"
)

// FileStore keeps the ledger as a JSON array in a single file.
//
// Each mutation loads the whole file, changes it and writes it back through a
// temporary file and rename, all under one mutex.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// OpenFile opens the ledger file at path.
//
// A missing file is a legitimately empty ledger. A file that exists but cannot
// be parsed is an error: starting with an empty view of a corrupt ledger would
// silently reset existence tracking.
func OpenFile(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, logger: logging.Component(logger, "ledger")}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if records == nil {
		s.logger.Info("ledger file absent, starting empty", "path", path)
	} else {
		s.logger.Info("ledger loaded", "path", path, "records", len(records))
	}
	return s, nil
}

// load returns nil, nil when the file does not exist.
func (s *FileStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", s.path, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// loadForRead degrades an unreadable ledger to an empty one.
func (s *FileStore) loadForRead() []Record {
	records, err := s.load()
	if err != nil {
		s.logger.Error("ledger unreadable, serving empty view", "path", s.path, "err", err)
		return nil
	}
	return records
}

func (s *FileStore) write(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *FileStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Writes never proceed from a degraded view; that would overwrite the
	// unreadable file with a single entry.
	records, err := s.load()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Name == rec.Name {
			return fmt.Errorf("%w: %s", ErrDuplicate, rec.Name)
		}
	}
	return s.write(append(records, rec))
}

// FindByOwner implements Store.
func (s *FileStore) FindByOwner(_ context.Context, owner string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterOwner(s.loadForRead(), owner), nil
}

// UpdateByNameAndOwner implements Store.
func (s *FileStore) UpdateByNameAndOwner(_ context.Context, oldName, owner string, patch Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}

	idx := -1
	for i, r := range records {
		if r.Name == oldName && r.Owner == owner {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	if patch.Name != oldName {
		for i, r := range records {
			if i != idx && r.Name == patch.Name {
				return false, fmt.Errorf("%w: %s", ErrDuplicate, patch.Name)
			}
		}
	}

	patch.apply(&records[idx])
	if err := s.write(records); err != nil {
		return false, err
	}
	return true, nil
}

// Contains implements Store. Unlike the read paths it reports an unreadable
// ledger as an error, since callers use it to guard creation.
func (s *FileStore) Contains(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// All implements Store.
func (s *FileStore) All(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.loadForRead()
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Health reports whether the ledger file is readable and parseable.
func (s *FileStore) Health(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

// Close implements Store. The file store holds no open handles.
func (s *FileStore) Close() error {
	return nil
}
