// Package blobstore persists raw update payloads on disk between the moment
// a request is accepted and the moment the task queue processes it.
//
// Every payload is stored under a random UUID so concurrent uploads never
// collide and file names never derive from client input. Writes go through a
// temporary file and a rename, so a crash mid-write leaves no half-visible
// update file behind; leftover temporaries are swept by List-driven cleanup.
//
// The store knows nothing about payload formats or error taxonomies: callers
// get plain filesystem errors and classify them at the boundary.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// tmpSuffix marks in-flight writes; files with this suffix are never listed.
const tmpSuffix = ".tmp"

// Store is a directory-backed blob store for update payloads.
// It is safe for concurrent use; all coordination happens in the filesystem.
type Store struct {
	dir string
}

// New opens (or creates) the store rooted at dir.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("blobstore: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string { return s.dir }

// Put streams r into a new update file and returns its UID and size.
// The file becomes visible atomically once fully written and synced.
func (s *Store) Put(r io.Reader) (uid string, size int64, err error) {
	uid = uuid.NewString()
	tmp := filepath.Join(s.dir, uid+tmpSuffix)

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("blobstore: create update file: %w", err)
	}

	size, err = io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return "", 0, fmt.Errorf("blobstore: write update file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", 0, fmt.Errorf("blobstore: sync update file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", 0, fmt.Errorf("blobstore: close update file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, uid)); err != nil {
		os.Remove(tmp)
		return "", 0, fmt.Errorf("blobstore: publish update file: %w", err)
	}
	return uid, size, nil
}

// PutBytes stores data as a new update file. Convenience wrapper over Put.
func (s *Store) PutBytes(data []byte) (uid string, size int64, err error) {
	return s.Put(strings.NewReader(string(data)))
}

// Open returns a reader over the update file uid. The UID is validated before
// touching the filesystem so a crafted value can never escape the store root.
func (s *Store) Open(uid string) (io.ReadCloser, error) {
	if err := validUID(uid); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, uid))
	if err != nil {
		return nil, fmt.Errorf("blobstore: open update file %s: %w", uid, err)
	}
	return f, nil
}

// Delete removes the update file uid. Deleting a missing file is an error;
// callers that tolerate absence should check with errors.Is(err, fs.ErrNotExist).
func (s *Store) Delete(uid string) error {
	if err := validUID(uid); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, uid)); err != nil {
		return fmt.Errorf("blobstore: delete update file %s: %w", uid, err)
	}
	return nil
}

// List returns the UIDs of all published update files, in directory order.
// Temporary files and foreign entries are skipped.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("blobstore: list %s: %w", s.dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		if validUID(e.Name()) != nil {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// validUID rejects anything that is not a canonical UUID string.
func validUID(uid string) error {
	if _, err := uuid.Parse(uid); err != nil || len(uid) != 36 {
		return fmt.Errorf("blobstore: invalid update file id %q", uid)
	}
	return nil
}
