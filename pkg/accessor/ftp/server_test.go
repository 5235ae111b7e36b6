package ftp

import (
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-refresher/pkg/accessor/memory"
)

// testServer is a minimal passive-mode FTP server over an in-memory tree. It speaks the subset
// of the protocol the accessor uses and lists entries as RFC 3659 facts.
type testServer struct {
	ln   net.Listener
	tree *memory.Accessor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	srv := &testServer{ln: ln, tree: memory.New()}
	go srv.serve()

	return srv
}

func (s *testServer) Addr() string {
	return s.ln.Addr().String()
}

func (s *testServer) serve() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(nc)
	}
}

type session struct {
	conn *textproto.Conn
	pasv net.Listener
}

func (ss *session) reply(code int, format string, args ...interface{}) {
	_ = ss.conn.PrintfLine("%d %s", code, fmt.Sprintf(format, args...))
}

// takePasv hands over the listener opened by the last EPSV.
func (ss *session) takePasv() net.Listener {
	ln := ss.pasv
	ss.pasv = nil

	return ln
}

// transfer runs fn over the data connection announced by the last EPSV.
func (ss *session) transfer(fn func(dc net.Conn) error) {
	ln := ss.takePasv()
	if ln == nil {
		ss.reply(425, "use EPSV first")
		return
	}
	defer ln.Close()

	dc, err := ln.Accept()
	if err != nil {
		ss.reply(425, "%s", err)
		return
	}
	ss.reply(150, "opening data connection")
	err = fn(dc)
	_ = dc.Close()
	if err != nil {
		ss.reply(451, "%s", err)
		return
	}
	ss.reply(226, "transfer complete")
}

// refuse rejects a transfer before the data connection is used.
func (ss *session) refuse(err error) {
	if ln := ss.takePasv(); ln != nil {
		_ = ln.Close()
	}
	ss.reply(550, "%s", err)
}

func (s *testServer) handle(nc net.Conn) {
	defer nc.Close()
	ss := &session{conn: textproto.NewConn(nc)}
	defer func() {
		if ss.pasv != nil {
			_ = ss.pasv.Close()
		}
	}()

	ss.reply(220, "ready")
	for {
		line, err := ss.conn.ReadLine()
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(line, " ")

		switch strings.ToUpper(cmd) {
		case "USER":
			ss.reply(331, "password required")
		case "PASS":
			ss.reply(230, "logged in")
		case "TYPE":
			ss.reply(200, "type set")
		case "EPSV":
			if ss.pasv != nil {
				_ = ss.pasv.Close()
			}
			ss.pasv, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				ss.reply(425, "%s", err)
				continue
			}
			ss.reply(229, "Entering Extended Passive Mode (|||%d|)", ss.pasv.Addr().(*net.TCPAddr).Port)
		case "LIST":
			s.list(ss, arg)
		case "RETR":
			r, err := s.tree.OpenRead(arg)
			if err != nil {
				ss.refuse(err)
				continue
			}
			ss.transfer(func(dc net.Conn) error {
				_, err := io.Copy(dc, r)
				return err
			})
		case "STOR":
			w, err := s.tree.OpenWrite(arg)
			if err != nil {
				ss.refuse(err)
				continue
			}
			ss.transfer(func(dc net.Conn) error {
				_, err := io.Copy(w, dc)
				if cerr := w.Close(); err == nil {
					err = cerr
				}
				return err
			})
		case "MKD":
			if err := s.tree.CreateDirectoryIfNotExists(arg); err != nil {
				ss.reply(550, "%s", err)
				continue
			}
			ss.reply(257, "%q created", arg)
		case "DELE":
			if err := s.tree.RemoveFile(arg); err != nil {
				ss.reply(550, "%s", err)
				continue
			}
			ss.reply(250, "deleted")
		case "QUIT":
			ss.reply(221, "bye")
			return
		default:
			ss.reply(502, "%s not implemented", cmd)
		}
	}
}

func (s *testServer) list(ss *session, dir string) {
	dirs, err := s.tree.ListDirectories(dir)
	if err != nil {
		ss.refuse(err)
		return
	}
	files, err := s.tree.ListFiles(dir)
	if err != nil {
		ss.refuse(err)
		return
	}

	ss.transfer(func(dc net.Conn) error {
		for _, d := range dirs {
			if _, err := fmt.Fprintf(dc, "type=dir;size=0; %s\r\n", path.Base(d)); err != nil {
				return err
			}
		}
		for _, f := range files {
			data, _ := s.tree.ReadFile(f)
			if _, err := fmt.Fprintf(dc, "type=file;size=%d; %s\r\n", len(data), path.Base(f)); err != nil {
				return err
			}
		}
		return nil
	})
}
