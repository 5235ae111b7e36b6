package ftp

import (
	"context"
	"io/fs"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-refresher/pkg/accessor"
	"github.com/askiada/go-refresher/pkg/accessor/accessortest"
)

func dialTestServer(t *testing.T) (*Accessor, *testServer) {
	t.Helper()
	srv := newTestServer(t)
	acc, err := Dial(context.Background(), srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = acc.Close() })

	return acc, srv
}

func TestContract(t *testing.T) {
	t.Parallel()

	accessortest.Run(t, func(t *testing.T) accessor.Accessor {
		acc, _ := dialTestServer(t)
		return acc
	})
}

func TestRootExists(t *testing.T) {
	t.Parallel()

	acc, srv := dialTestServer(t)
	srv.tree.WriteFile("dev_hdd0/game/BCUS98174/USRDIR/EBOOT.BIN", []byte("eboot"))

	for _, p := range []string{".", "/", ""} {
		ok, err := acc.DirectoryExists(p)
		require.NoError(t, err)
		assert.True(t, ok, "%q", p)
	}

	ok, err := acc.FileExists("dev_hdd0/game/BCUS98174/USRDIR/EBOOT.BIN")
	require.NoError(t, err)
	assert.True(t, ok)

	dirs, err := acc.ListDirectories("dev_hdd0/game")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev_hdd0/game/BCUS98174"}, dirs)

	require.NoError(t, acc.Close())
	_, err = acc.DirectoryExists("/")
	assert.ErrorIs(t, err, accessor.ErrClosed)
}

func TestAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "192.168.1.20:21", Address("192.168.1.20"))
	assert.Equal(t, "192.168.1.20:2121", Address("192.168.1.20:2121"))
}

func TestMapErr(t *testing.T) {
	t.Parallel()

	err := mapErr(&textproto.Error{Code: statusFileUnavailable, Msg: "No such file"}, "open", "/dev_hdd0/EBOOT.BIN")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	err = mapErr(&textproto.Error{Code: 421, Msg: "Service not available"}, "open", "/dev_hdd0/EBOOT.BIN")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}
