// Package artifact materializes extracted file contents as stable files
// in a scratch directory. Every materialization gets a fresh UUID name,
// so identical bytes never share a location and nothing is overwritten.
package artifact

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/diskrescue/preview-cache/pkg/e"
)

const stagingDirName = "staging"

type Artifact struct {
	ID       string
	Path     string
	Size     int64
	Checksum string // lowercase hex BLAKE3-256 of the contents
}

type Store struct {
	baseDir    string
	stagingDir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("artifact directory must not be empty")
	}
	// Remove's prefix guard assumes a clean base path
	dir = filepath.Clean(dir)

	stagingDir := filepath.Join(dir, stagingDirName)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	// Enable uuid rand pool for better performance
	uuid.EnableRandPool()

	store := Store{baseDir: dir, stagingDir: stagingDir}
	return &store, nil
}

// Materialize writes data to a fresh location inside the store. The
// bytes are staged first and renamed into place, so a failure never
// leaves a partial file at a final path.
func (st *Store) Materialize(data []byte) (Artifact, error) {
	artifactID := uuid.New().String()
	finalPath := filepath.Join(st.baseDir, artifactID)

	tmp, err := os.CreateTemp(st.stagingDir, "artifact-*.partial")
	if err != nil {
		return Artifact{}, fmt.Errorf("creating staging file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Artifact{}, fmt.Errorf("writing artifact data: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return Artifact{}, fmt.Errorf("closing staging file: %w", err)
	}

	if err = os.Rename(tmpPath, finalPath); err != nil {
		return Artifact{}, fmt.Errorf("committing artifact: %w", err)
	}
	committed = true

	sum := blake3.Sum256(data)

	return Artifact{
		ID:       artifactID,
		Path:     finalPath,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Verify re-hashes the artifact on disk and compares it against the
// recorded checksum.
func (st *Store) Verify(a Artifact) error {
	fp, err := os.Open(a.Path)
	if os.IsNotExist(err) {
		return e.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer fp.Close()

	hasher := blake3.New()
	if _, err = io.Copy(hasher, fp); err != nil {
		return err
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if sum != a.Checksum {
		return fmt.Errorf("artifact %s checksum mismatch: got %s, want %s", a.ID, sum, a.Checksum)
	}
	return nil
}

// Remove deletes a single artifact. Paths outside the store are
// rejected rather than resolved.
func (st *Store) Remove(path string) error {
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, st.baseDir+string(filepath.Separator)) {
		return e.ErrNotFound
	}

	if err := os.Remove(cleaned); err != nil {
		if os.IsNotExist(err) {
			return e.ErrNotFound
		}
		return err
	}
	return nil
}

// Sweep deletes every materialized artifact and any staging leftovers,
// returning the number of artifacts removed.
func (st *Store) Sweep() (int, error) {
	entries, err := os.ReadDir(st.baseDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err = os.Remove(filepath.Join(st.baseDir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}

	leftovers, err := os.ReadDir(st.stagingDir)
	if err != nil {
		return removed, err
	}
	for _, entry := range leftovers {
		if err = os.Remove(filepath.Join(st.stagingDir, entry.Name())); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

func (st *Store) Stats() (int, int64, error) {
	entries, err := os.ReadDir(st.baseDir)
	if err != nil {
		return 0, 0, err
	}

	count := 0
	var bytes int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return count, bytes, err
		}
		count++
		bytes += info.Size()
	}
	return count, bytes, nil
}

func (st *Store) Dir() string {
	return st.baseDir
}
