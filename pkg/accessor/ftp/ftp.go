// Package ftp implements an accessor for a remote device reachable over FTP,
// such as a console running a homebrew FTP server.
//
// An FTP control connection carries one transfer at a time: a stream returned by
// OpenRead or OpenWrite must be closed before the next operation is issued.
package ftp

import (
	"context"
	"io"
	"io/fs"
	"net/textproto"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	goftp "github.com/jlaffaye/ftp"
	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/accessor"
)

const (
	// DefaultPort is appended to addresses that do not carry one.
	DefaultPort = "21"

	statusFileUnavailable = 550
)

// Option configures Dial.
type Option func(*options)

type options struct {
	user, password string
	timeout        time.Duration
}

// WithCredentials sets the login credentials. The default is an anonymous login.
func WithCredentials(user, password string) Option {
	return func(o *options) {
		o.user = user
		o.password = password
	}
}

// WithTimeout sets the dial and command timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// Accessor is an accessor backed by an FTP connection.
type Accessor struct {
	conn      *goftp.ServerConn
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Address adds the default FTP port to addr when it has none.
func Address(addr string) string {
	if strings.Contains(addr, ":") {
		return addr
	}

	return addr + ":" + DefaultPort
}

// Dial connects and logs in to the FTP server at addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Accessor, error) {
	o := &options{user: "anonymous", password: "anonymous", timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(o)
	}

	conn, err := goftp.Dial(Address(addr), goftp.DialWithContext(ctx), goftp.DialWithTimeout(o.timeout))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to %s", addr)
	}

	err = conn.Login(o.user, o.password)
	if err != nil {
		_ = conn.Quit()
		return nil, errors.Wrapf(err, "unable to log in to %s", addr)
	}

	return &Accessor{conn: conn}, nil
}

// mapErr turns "file unavailable" replies into fs.ErrNotExist.
func mapErr(err error, op, p string) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code == statusFileUnavailable {
		return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
	}

	return errors.Wrapf(err, "unable to %s %s", op, p)
}

func isRoot(p string) bool {
	return p == "." || p == "/"
}

func (a *Accessor) entry(p string) (*goftp.Entry, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	p = path.Clean(p)
	entries, err := a.conn.List(path.Dir(p))
	if err != nil {
		err = mapErr(err, "list", path.Dir(p))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	name := path.Base(p)
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}

	return nil, nil
}

func (a *Accessor) DirectoryExists(p string) (bool, error) {
	if isRoot(path.Clean(p)) {
		if err := a.checkOpen(); err != nil {
			return false, err
		}
		return true, nil
	}
	e, err := a.entry(p)
	if err != nil || e == nil {
		return false, err
	}

	return e.Type == goftp.EntryTypeFolder, nil
}

func (a *Accessor) FileExists(p string) (bool, error) {
	e, err := a.entry(p)
	if err != nil || e == nil {
		return false, err
	}

	return e.Type == goftp.EntryTypeFile, nil
}

func (a *Accessor) CreateDirectoryIfNotExists(p string) error {
	p = path.Clean(p)
	if isRoot(p) {
		return a.checkOpen()
	}

	ok, err := a.DirectoryExists(p)
	if err != nil || ok {
		return err
	}

	err = a.CreateDirectoryIfNotExists(path.Dir(p))
	if err != nil {
		return err
	}

	return mapErr(a.conn.MakeDir(p), "create directory", p)
}

func (a *Accessor) RemoveFile(p string) error {
	if a.closed.Load() {
		return accessor.ErrClosed
	}
	err := a.conn.Delete(p)
	if err != nil {
		return mapErr(err, "remove", p)
	}

	return nil
}

func (a *Accessor) list(p string, t goftp.EntryType) ([]string, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	entries, err := a.conn.List(p)
	if err != nil {
		return nil, mapErr(err, "list", p)
	}

	res := []string{}
	for _, e := range entries {
		if e.Type != t || e.Name == "." || e.Name == ".." {
			continue
		}
		res = append(res, path.Join(p, e.Name))
	}
	sort.Strings(res)

	return res, nil
}

func (a *Accessor) ListDirectories(p string) ([]string, error) {
	return a.list(p, goftp.EntryTypeFolder)
}

func (a *Accessor) ListFiles(p string) ([]string, error) {
	return a.list(p, goftp.EntryTypeFile)
}

func (a *Accessor) OpenRead(p string) (io.ReadCloser, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	resp, err := a.conn.Retr(p)
	if err != nil {
		return nil, mapErr(err, "open", p)
	}

	return resp, nil
}

// pipeWriter streams writes into a STOR transfer running in the background.
type pipeWriter struct {
	*io.PipeWriter
	done chan error
}

func (w *pipeWriter) Close() error {
	err := w.PipeWriter.Close()
	storErr := <-w.done
	if storErr != nil {
		return storErr
	}

	return err
}

func (a *Accessor) OpenWrite(p string) (io.WriteCloser, error) {
	if a.closed.Load() {
		return nil, accessor.ErrClosed
	}
	pr, pw := io.Pipe()
	w := &pipeWriter{PipeWriter: pw, done: make(chan error, 1)}
	go func() {
		err := a.conn.Stor(p, pr)
		if err != nil {
			err = mapErr(err, "write", p)
		}
		// unblock writers if the transfer failed early
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

func (a *Accessor) UploadFile(localPath, p string) error {
	if a.closed.Load() {
		return accessor.ErrClosed
	}
	f, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "unable to open local file %s", localPath)
	}
	defer f.Close()

	err = a.conn.Stor(p, f)
	if err != nil {
		return mapErr(err, "upload", p)
	}

	return nil
}

func (a *Accessor) checkOpen() error {
	if a.closed.Load() {
		return accessor.ErrClosed
	}

	return nil
}

// Close ends the FTP session once.
func (a *Accessor) Close() error {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		a.closeErr = errors.Wrap(a.conn.Quit(), "unable to quit ftp session")
	})

	return a.closeErr
}

var _ accessor.Accessor = (*Accessor)(nil)
