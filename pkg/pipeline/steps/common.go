package steps

import (
	"context"
	"io"
	"path"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/accessor"
	"github.com/askiada/go-refresher/pkg/pipeline"
	"github.com/askiada/go-refresher/pkg/title"
	"github.com/askiada/go-refresher/pkg/workspace"
)

// Workspace keys of the EBOOT as it moves through a run.
const (
	KeyEbootOriginal  = "eboot.orig"
	KeyEbootDecrypted = "eboot.elf"
	KeyEbootPatched   = "eboot.elf.patched"
	KeyEbootEncrypted = "eboot.patched"
)

// EbootPath returns the executable of t in the accessor's path space.
func EbootPath(t *title.Info) string {
	return path.Join(t.Path, "USRDIR", "EBOOT.BIN")
}

// BackupPath returns where the original executable of t is kept.
func BackupPath(t *title.Info) string {
	return EbootPath(t) + ".bak"
}

func runAccessor(p *pipeline.Pipeline) (accessor.Accessor, error) {
	if p.Run().Accessor == nil {
		return nil, ErrNoAccessor
	}

	return p.Run().Accessor, nil
}

func runWorkspace(p *pipeline.Pipeline) (*workspace.Workspace, error) {
	if p.Workspace() == nil {
		return nil, ErrNoWorkspace
	}

	return p.Workspace(), nil
}

func runTitle(p *pipeline.Pipeline) (*title.Info, error) {
	if p.Run().Title == nil {
		return nil, ErrNoTitle
	}

	return p.Run().Title, nil
}

// TargetURL returns the url input, falling back to the autodiscovered server URL.
func TargetURL(p *pipeline.Pipeline) (string, error) {
	if u, ok := p.Input(InputURL); ok && u != "" {
		return u, nil
	}
	if disc := p.Run().AutoDiscover; disc != nil && disc.URL != "" {
		return disc.URL, nil
	}

	return "", ErrNoTargetURL
}

// transform streams the artifact stored under from through fn into to.
func transform(ws *workspace.Workspace, from, to string, fn func(dst io.Writer, src io.Reader) error) error {
	src, err := ws.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := fn(pw, src)
		_ = pw.CloseWithError(err)
		done <- err
	}()

	putErr := ws.Put(to, pr)
	_ = pr.CloseWithError(putErr)
	// the store flattens read errors, keep the producer's
	if err := <-done; err != nil {
		return err
	}

	return putErr
}

// checkCtx is called between accessor operations, which do not take a context.
func checkCtx(ctx context.Context) error {
	return errors.WithStack(ctx.Err())
}
