package workspace_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-refresher/pkg/workspace"
)

func TestPutOpen(t *testing.T) {
	t.Parallel()

	ws := workspace.New(t.TempDir(), 1024)
	require.NoError(t, ws.Put("eboot.orig", bytes.NewReader([]byte("SCE\x00eboot"))))

	assert.True(t, ws.Has("eboot.orig"))
	assert.False(t, ws.Has("eboot.elf"))

	rc, err := ws.Open("eboot.orig")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("SCE\x00eboot"), data)

	onDisk, err := os.ReadFile(ws.Path("eboot.orig"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestKeysDeleteClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ws := workspace.New(t.TempDir(), 0)
	require.NoError(t, ws.PutBytes("b", []byte("b")))
	require.NoError(t, ws.PutBytes("a", []byte("a")))
	assert.Equal(t, []string{"a", "b"}, ws.Keys(ctx))

	require.NoError(t, ws.Delete("a"))
	assert.Equal(t, []string{"b"}, ws.Keys(ctx))

	require.NoError(t, ws.Clear())
	assert.False(t, ws.Has("b"))

	// the workspace is usable again after a clear
	require.NoError(t, ws.PutBytes("c", []byte("c")))
	got, err := ws.Bytes("c")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}

func TestInvalidKey(t *testing.T) {
	t.Parallel()

	ws := workspace.New(t.TempDir(), 0)
	for _, key := range []string{"", "..", "../escape", "nested/key"} {
		err := ws.PutBytes(key, []byte("x"))
		assert.ErrorIs(t, err, workspace.ErrInvalidKey, key)
	}

	_, err := ws.Open("missing")
	assert.Error(t, err)
}

func TestClearKeepsForeignFiles(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	notes := filepath.Join(parent, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep me"), 0o600))

	ws := workspace.New(parent, 0)
	other := workspace.New(parent, 0)
	assert.NotEqual(t, ws.Dir(), other.Dir())
	assert.Equal(t, parent, filepath.Dir(ws.Dir()))

	require.NoError(t, ws.PutBytes("eboot.orig", []byte("eboot")))
	require.NoError(t, other.PutBytes("eboot.orig", []byte("other")))
	assert.Equal(t, []string{"eboot.orig"}, ws.Keys(context.Background()))

	require.NoError(t, ws.Clear())
	assert.False(t, ws.Has("eboot.orig"))

	data, err := os.ReadFile(notes)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep me"), data)

	got, err := other.Bytes("eboot.orig")
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), got)
}

func TestStreamBetweenKeysWithCache(t *testing.T) {
	t.Parallel()

	ws := workspace.New(t.TempDir(), 1<<20)
	require.NoError(t, ws.PutBytes("eboot.orig", []byte("\x7fELF body")))
	// warm the cache
	_, err := ws.Bytes("eboot.orig")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		rc, err := ws.Open("eboot.orig")
		if err != nil {
			done <- err
			return
		}
		defer rc.Close()
		done <- ws.Put("eboot.elf", rc)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("copy between keys did not finish")
	}

	got, err := ws.Bytes("eboot.elf")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x7fELF body"), got)
}
