// Package workspace stores the intermediate artifacts of a patch run on local disk.
//
// Keys map to flat file names under the workspace directory, so an artifact can be handed to
// accessors that upload from a local path. Each workspace owns a fresh run directory below the
// configured one and never touches anything else in it.
package workspace

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
	"github.com/pkg/errors"
)

// ErrInvalidKey is returned for keys that would escape the flat layout.
var ErrInvalidKey = errors.New("invalid workspace key")

// Workspace is a diskv-backed artifact store.
type Workspace struct {
	dir string
	dv  *diskv.Diskv
}

// New creates a workspace in a run directory of its own under parent. cacheSize bounds the
// in-memory read cache in bytes. The directory is created on the first write.
func New(parent string, cacheSize uint64) *Workspace {
	flatTransform := func(s string) []string { return []string{} }
	dir := filepath.Join(parent, "run-"+uuid.NewString())
	return &Workspace{
		dir: dir,
		dv: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    flatTransform,
			CacheSizeMax: cacheSize,
		}),
	}
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}

	return nil
}

// Dir returns the run directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the local file backing key.
func (w *Workspace) Path(key string) string {
	return filepath.Join(w.dir, key)
}

// Put stores everything read from r under key.
func (w *Workspace) Put(key string, r io.Reader) error {
	if err := checkKey(key); err != nil {
		return err
	}

	return errors.Wrapf(w.dv.WriteStream(key, r, true), "unable to store %s", key)
}

// PutBytes stores data under key.
func (w *Workspace) PutBytes(key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	return errors.Wrapf(w.dv.Write(key, data), "unable to store %s", key)
}

// Open streams the artifact stored under key straight from disk. The read cache is not
// involved, so the stream may be consumed while another key is being written.
func (w *Workspace) Open(key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(w.Path(key))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", key)
	}

	return f, nil
}

// Bytes reads the artifact stored under key.
func (w *Workspace) Bytes(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := w.dv.Read(key)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", key)
	}

	return data, nil
}

// Has reports whether key is stored.
func (w *Workspace) Has(key string) bool {
	return checkKey(key) == nil && w.dv.Has(key)
}

// Delete removes key.
func (w *Workspace) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	return errors.Wrapf(w.dv.Erase(key), "unable to delete %s", key)
}

// Keys lists the stored keys in sorted order.
func (w *Workspace) Keys(ctx context.Context) []string {
	keys := []string{}
	for key := range w.dv.Keys(ctx.Done()) {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Clear removes the run directory and every artifact in it.
func (w *Workspace) Clear() error {
	return errors.Wrap(w.dv.EraseAll(), "unable to clear workspace")
}
