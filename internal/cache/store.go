// Package cache stores JSON documents addressed purely by content fingerprints.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	rubricsDir = "rubrics"
	scoresDir  = "scores"
	ext        = ".json"
)

// Store is a filesystem backed key-value store. Writes are published with a
// rename so readers never observe partially written entries.
type Store struct {
	root string
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	return &Store{root: filepath.Clean(dir)}, nil
}

func (s *Store) Root() string {
	return s.root
}

// RubricPath returns the entry path of a parsed rubric.
func (s *Store) RubricPath(rubricFingerprint string) string {
	return filepath.Join(s.root, rubricsDir, rubricFingerprint+ext)
}

// ScorePath returns the entry path of a scored resume. Bumping the schema
// version moves new entries to a fresh directory and leaves old ones in place.
func (s *Store) ScorePath(jdFingerprint, rubricFingerprint, schemaVersion, resumeFingerprint string) string {
	return filepath.Join(s.root, scoresDir, jdFingerprint, rubricFingerprint, schemaVersion, resumeFingerprint+ext)
}

// Exists reports whether an entry is present.
func (s *Store) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat cache entry %q: %w", path, err)
}

// Load decodes the entry at path into v. A missing entry is reported with
// false and no error.
func (s *Store) Load(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read cache entry %q: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cache entry %q: %w", path, err)
	}

	return true, nil
}

// Save encodes v and atomically publishes it at path.
func (s *Store) Save(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp_*"+ext)
	if err != nil {
		return fmt.Errorf("create temporary cache file: %w", err)
	}

	tmpName := tmp.Name()
	published := false
	defer func() {
		if !published {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary cache file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporary cache file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary cache file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish cache entry %q: %w", path, err)
	}
	published = true

	return nil
}
