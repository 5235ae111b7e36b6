// Package accessortest runs the shared accessor contract against any accessor variant.
package accessortest

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-refresher/pkg/accessor"
)

func write(t *testing.T, acc accessor.Accessor, p, content string) {
	t.Helper()
	w, err := acc.OpenWrite(p)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func read(t *testing.T, acc accessor.Accessor, p string) string {
	t.Helper()
	r, err := acc.OpenRead(p)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(data)
}

// Run exercises every capability of the accessors built by newAccessor.
// Each subtest gets a fresh, empty accessor.
func Run(t *testing.T, newAccessor func(t *testing.T) accessor.Accessor) {
	t.Run("directories", func(t *testing.T) {
		acc := newAccessor(t)

		ok, err := acc.DirectoryExists("game/BCUS98174")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, acc.CreateDirectoryIfNotExists("game/BCUS98174/USRDIR"))
		require.NoError(t, acc.CreateDirectoryIfNotExists("game/BCUS98174/USRDIR"))

		for _, p := range []string{"game", "game/BCUS98174", "game/BCUS98174/USRDIR"} {
			ok, err = acc.DirectoryExists(p)
			require.NoError(t, err)
			assert.True(t, ok, p)

			ok, err = acc.FileExists(p)
			require.NoError(t, err)
			assert.False(t, ok, p)
		}
	})

	t.Run("read write", func(t *testing.T) {
		acc := newAccessor(t)
		require.NoError(t, acc.CreateDirectoryIfNotExists("plugins"))

		write(t, acc, "plugins/patchwork.sprx", "a much longer first version")
		write(t, acc, "plugins/patchwork.sprx", "short")
		assert.Equal(t, "short", read(t, acc, "plugins/patchwork.sprx"))

		ok, err := acc.FileExists("plugins/patchwork.sprx")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = acc.DirectoryExists("plugins/patchwork.sprx")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing", func(t *testing.T) {
		acc := newAccessor(t)

		_, err := acc.OpenRead("nope.bin")
		assert.ErrorIs(t, err, fs.ErrNotExist)

		err = acc.RemoveFile("nope.bin")
		assert.ErrorIs(t, err, fs.ErrNotExist)

		_, err = acc.ListFiles("nope")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("list", func(t *testing.T) {
		acc := newAccessor(t)
		require.NoError(t, acc.CreateDirectoryIfNotExists("game/NPEA00241"))
		require.NoError(t, acc.CreateDirectoryIfNotExists("game/BCUS98174"))
		write(t, acc, "game/b.txt", "b")
		write(t, acc, "game/a.txt", "a")

		dirs, err := acc.ListDirectories("game")
		require.NoError(t, err)
		assert.Equal(t, []string{"game/BCUS98174", "game/NPEA00241"}, dirs)

		files, err := acc.ListFiles("game")
		require.NoError(t, err)
		assert.Equal(t, []string{"game/a.txt", "game/b.txt"}, files)

		files, err = acc.ListFiles("game/BCUS98174")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("remove", func(t *testing.T) {
		acc := newAccessor(t)
		write(t, acc, "EBOOT.BIN", "eboot")
		require.NoError(t, acc.RemoveFile("EBOOT.BIN"))

		ok, err := acc.FileExists("EBOOT.BIN")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("upload", func(t *testing.T) {
		acc := newAccessor(t)
		local := filepath.Join(t.TempDir(), "patchwork.sprx")
		require.NoError(t, os.WriteFile(local, []byte("sprx"), 0o600))
		require.NoError(t, acc.CreateDirectoryIfNotExists("plugins"))

		require.NoError(t, acc.UploadFile(local, "plugins/patchwork.sprx"))
		assert.Equal(t, "sprx", read(t, acc, "plugins/patchwork.sprx"))

		err := acc.UploadFile(filepath.Join(t.TempDir(), "missing"), "plugins/other.sprx")
		assert.Error(t, err)
	})

	t.Run("close", func(t *testing.T) {
		acc := newAccessor(t)
		require.NoError(t, acc.Close())
		require.NoError(t, acc.Close())

		_, err := acc.FileExists("EBOOT.BIN")
		assert.ErrorIs(t, err, accessor.ErrClosed)
	})
}
