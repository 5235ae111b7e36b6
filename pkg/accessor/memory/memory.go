// Package memory implements an in-memory accessor, used for dry runs and tests.
package memory

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/accessor"
)

type tree struct {
	mu    sync.RWMutex
	dirs  map[string]struct{}
	files map[string][]byte
}

// Accessor is a handle on a file tree kept in memory. The root directory always exists.
// Closing a handle does not affect the tree or the other handles opened on it.
type Accessor struct {
	*tree
	closed atomic.Bool
}

// New creates an empty in-memory tree and returns a handle on it.
func New() *Accessor {
	return &Accessor{
		tree: &tree{
			dirs:  map[string]struct{}{".": {}},
			files: make(map[string][]byte),
		},
	}
}

// Reopen returns a new open handle on the same tree.
func (a *Accessor) Reopen() *Accessor {
	return &Accessor{tree: a.tree}
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func key(p string) string {
	k := clean(p)
	if k == "" {
		return "."
	}

	return k
}

// WriteFile stores data at p, creating parent directories.
func (a *Accessor) WriteFile(p string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mkdirAll(path.Dir(key(p)))
	a.files[key(p)] = append([]byte(nil), data...)
}

// ReadFile returns a copy of the data stored at p.
func (a *Accessor) ReadFile(p string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.files[key(p)]

	return append([]byte(nil), data...), ok
}

// Closed reports whether Close was called on this handle.
func (a *Accessor) Closed() bool {
	return a.closed.Load()
}

func (a *Accessor) mkdirAll(k string) {
	for k != "." && k != "/" {
		a.dirs[k] = struct{}{}
		k = path.Dir(k)
	}
}

func notExist(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
}

func (a *Accessor) DirectoryExists(p string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed.Load() {
		return false, accessor.ErrClosed
	}
	_, ok := a.dirs[key(p)]

	return ok, nil
}

func (a *Accessor) FileExists(p string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed.Load() {
		return false, accessor.ErrClosed
	}
	_, ok := a.files[key(p)]

	return ok, nil
}

func (a *Accessor) CreateDirectoryIfNotExists(p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return accessor.ErrClosed
	}
	if _, ok := a.files[key(p)]; ok {
		return errors.Errorf("unable to create directory %s: a file exists", p)
	}
	a.mkdirAll(key(p))

	return nil
}

func (a *Accessor) RemoveFile(p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return accessor.ErrClosed
	}
	if _, ok := a.files[key(p)]; !ok {
		return notExist("remove", p)
	}
	delete(a.files, key(p))

	return nil
}

func (a *Accessor) ListDirectories(p string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.list(p, a.dirs)
}

func (a *Accessor) ListFiles(p string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	files := make(map[string]struct{}, len(a.files))
	for k := range a.files {
		files[k] = struct{}{}
	}

	return a.list(p, files)
}

func (a *Accessor) list(p string, entries map[string]struct{}) ([]string, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	dir := key(p)
	if _, ok := a.dirs[dir]; !ok {
		return nil, notExist("list", p)
	}

	res := []string{}
	for k := range entries {
		if k == "." || path.Dir(k) != dir {
			continue
		}
		res = append(res, path.Join(p, path.Base(k)))
	}
	sort.Strings(res)

	return res, nil
}

func (a *Accessor) OpenRead(p string) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	data, ok := a.files[key(p)]
	if !ok {
		return nil, notExist("open", p)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

type writer struct {
	bytes.Buffer
	tree *tree
	path string
}

func (w *writer) Close() error {
	w.tree.mu.Lock()
	defer w.tree.mu.Unlock()
	w.tree.files[w.path] = append([]byte(nil), w.Bytes()...)

	return nil
}

func (a *Accessor) OpenWrite(p string) (io.WriteCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	k := key(p)
	if _, ok := a.dirs[path.Dir(k)]; !ok {
		return nil, notExist("create", p)
	}
	a.files[k] = nil

	return &writer{tree: a.tree, path: k}, nil
}

func (a *Accessor) UploadFile(localPath, p string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return errors.Wrapf(err, "unable to read local file %s", localPath)
	}
	w, err := a.OpenWrite(p)
	if err != nil {
		return err
	}
	_, _ = w.Write(data)

	return w.Close()
}

func (a *Accessor) Close() error {
	a.closed.Store(true)

	return nil
}

var _ accessor.Accessor = (*Accessor)(nil)
