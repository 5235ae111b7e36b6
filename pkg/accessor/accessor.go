// Package accessor defines the storage capabilities pipeline steps use to reach a file hierarchy,
// whether it lives on the local disk, in memory or on a remote device.
//
// Paths are slash separated. Listing operations return entries joined to the listed directory
// in the accessor's own path space, sorted by name. Operations on missing paths return errors
// matching fs.ErrNotExist.
package accessor

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ErrClosed is returned by operations on an accessor that has been closed.
var ErrClosed = errors.New("accessor is closed")

// Accessor is the capability set over a file hierarchy.
type Accessor interface {
	DirectoryExists(path string) (bool, error)
	FileExists(path string) (bool, error)
	// CreateDirectoryIfNotExists creates path and any missing parents.
	CreateDirectoryIfNotExists(path string) error
	RemoveFile(path string) error
	ListDirectories(path string) ([]string, error)
	ListFiles(path string) ([]string, error)
	OpenRead(path string) (io.ReadCloser, error)
	// OpenWrite creates path, truncating it if it exists.
	OpenWrite(path string) (io.WriteCloser, error)
	// UploadFile copies the local file at localPath to path.
	UploadFile(localPath, path string) error
	// Close releases the accessor. Closing twice is a no-op.
	io.Closer
}

// CopyUpload implements UploadFile as copy-then-write for variants without a native transfer.
func CopyUpload(acc Accessor, localPath, path string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "unable to open local file %s", localPath)
	}
	defer src.Close()

	return Copy(acc, src, path)
}

// Copy writes everything from r to path.
func Copy(acc Accessor, r io.Reader, path string) error {
	dst, err := acc.OpenWrite(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s for writing", path)
	}

	_, err = io.Copy(dst, r)
	if err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return errors.Wrapf(dst.Close(), "unable to close %s", path)
}
