// Package artifact manages the generated image files on disk: unique
// naming, saving, lookup, and retention-based housekeeping.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrArtifactMissing is returned when a stored path does not resolve to an
// existing file. Callers must surface this distinctly from "still
// processing" and "task failed".
var ErrArtifactMissing = errors.New("artifact file missing")

// Store writes and reads artifact files under a single directory. Workers
// only ever append uniquely-named files; the Cleaner is the only deleter.
type Store struct {
	dir string
}

// NewStore creates the artifact directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("artifact directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the managed directory.
func (s *Store) Dir() string {
	return s.dir
}

// Filename builds a unique artifact name from the generation id and a
// suffix ("raw" or "final").
func (s *Store) Filename(generationID, suffix string) string {
	ts := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("meme_%s_%s_%s.jpg", ts, generationID, suffix)
}

// Save writes data under the given name and returns the full path.
func (s *Store) Save(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return path, nil
}

// Open reads a previously stored artifact. A path that no longer resolves
// to a file returns ErrArtifactMissing.
func (s *Store) Open(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return data, nil
}
