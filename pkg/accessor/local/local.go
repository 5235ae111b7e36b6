// Package local implements an accessor rooted at a directory on the local filesystem,
// such as an emulator's virtual drive.
package local

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/accessor"
)

// Accessor resolves every path against a root directory.
type Accessor struct {
	root   string
	closed atomic.Bool
}

// New creates an accessor rooted at root.
func New(root string) *Accessor {
	return &Accessor{root: root}
}

// Root returns the directory relative paths are resolved against.
func (a *Accessor) Root() string {
	return a.root
}

// Resolve maps p to a local path: absolute paths pass through, relative paths are joined to the root.
func (a *Accessor) Resolve(p string) string {
	local := filepath.FromSlash(p)
	if filepath.IsAbs(local) {
		return local
	}

	return filepath.Join(a.root, local)
}

func (a *Accessor) stat(p string) (os.FileInfo, bool, error) {
	if a.closed.Load() {
		return nil, false, accessor.ErrClosed
	}
	fi, err := os.Stat(a.Resolve(p))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "unable to stat %s", p)
	}

	return fi, true, nil
}

func (a *Accessor) DirectoryExists(p string) (bool, error) {
	fi, ok, err := a.stat(p)
	if err != nil || !ok {
		return false, err
	}

	return fi.IsDir(), nil
}

func (a *Accessor) FileExists(p string) (bool, error) {
	fi, ok, err := a.stat(p)
	if err != nil || !ok {
		return false, err
	}

	return fi.Mode().IsRegular(), nil
}

func (a *Accessor) CreateDirectoryIfNotExists(p string) error {
	if a.closed.Load() {
		return accessor.ErrClosed
	}

	return errors.Wrapf(os.MkdirAll(a.Resolve(p), 0o755), "unable to create directory %s", p)
}

func (a *Accessor) RemoveFile(p string) error {
	if a.closed.Load() {
		return accessor.ErrClosed
	}

	return errors.Wrapf(os.Remove(a.Resolve(p)), "unable to remove %s", p)
}

func (a *Accessor) list(p string, dirs bool) ([]string, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	entries, err := os.ReadDir(a.Resolve(p))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", p)
	}

	res := []string{}
	for _, entry := range entries {
		if entry.IsDir() != dirs {
			continue
		}
		res = append(res, path.Join(p, entry.Name()))
	}
	sort.Strings(res)

	return res, nil
}

func (a *Accessor) ListDirectories(p string) ([]string, error) {
	return a.list(p, true)
}

func (a *Accessor) ListFiles(p string) ([]string, error) {
	return a.list(p, false)
}

func (a *Accessor) OpenRead(p string) (io.ReadCloser, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	f, err := os.Open(a.Resolve(p))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", p)
	}

	return f, nil
}

func (a *Accessor) OpenWrite(p string) (io.WriteCloser, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	f, err := os.Create(a.Resolve(p))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", p)
	}

	return f, nil
}

func (a *Accessor) UploadFile(localPath, p string) error {
	return accessor.CopyUpload(a, localPath, p)
}

// Close marks the accessor closed. There is nothing else to release.
func (a *Accessor) Close() error {
	a.closed.Store(true)
	return nil
}

var _ accessor.Accessor = (*Accessor)(nil)
