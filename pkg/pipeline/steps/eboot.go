package steps

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/patch"
	"github.com/askiada/go-refresher/pkg/pipeline"
	"github.com/askiada/go-refresher/pkg/title"
)

type downloadEboot struct {
	*pipeline.BaseStep
}

// DownloadEboot copies the title's executable into the workspace.
func DownloadEboot() pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &downloadEboot{pipeline.NewBaseStep(p, "download eboot")}
	}
}

func (s *downloadEboot) Execute(ctx context.Context) error {
	acc, err := runAccessor(s.Pipeline())
	if err != nil {
		return err
	}
	ws, err := runWorkspace(s.Pipeline())
	if err != nil {
		return err
	}
	t, err := runTitle(s.Pipeline())
	if err != nil {
		return err
	}

	src, err := acc.OpenRead(EbootPath(t))
	if err != nil {
		return errors.Wrap(err, "unable to open executable")
	}
	defer src.Close()
	s.SetProgress(0.5)

	err = ws.Put(KeyEbootOriginal, src)
	if err != nil {
		return err
	}
	s.Logger(ctx).Debug(logkeys.Message, "executable downloaded", logkeys.Path, ws.Path(KeyEbootOriginal))
	s.SetProgress(1)

	return nil
}

type cipherStep struct {
	*pipeline.BaseStep
	from, to string
	run      func(ctx context.Context, enc *title.Encryption, dst io.Writer, src io.Reader) error
}

// DecryptEboot decrypts the downloaded executable with c.
func DecryptEboot(c patch.Cipher) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &cipherStep{
			BaseStep: pipeline.NewBaseStep(p, "decrypt eboot"),
			from:     KeyEbootOriginal,
			to:       KeyEbootDecrypted,
			run:      c.Decrypt,
		}
	}
}

// EncryptEboot encrypts the patched executable with c.
func EncryptEboot(c patch.Cipher) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &cipherStep{
			BaseStep: pipeline.NewBaseStep(p, "encrypt eboot"),
			from:     KeyEbootPatched,
			to:       KeyEbootEncrypted,
			run:      c.Encrypt,
		}
	}
}

func (s *cipherStep) Execute(ctx context.Context) error {
	ws, err := runWorkspace(s.Pipeline())
	if err != nil {
		return err
	}
	if s.Pipeline().Run().Encryption == nil {
		s.Pipeline().Run().Encryption = &title.Encryption{}
	}
	enc := s.Pipeline().Run().Encryption

	err = transform(ws, s.from, s.to, func(dst io.Writer, src io.Reader) error {
		return s.run(ctx, enc, dst, src)
	})
	if err != nil {
		return errors.Wrapf(err, "unable to %s", s.Name())
	}
	s.SetProgress(1)

	return nil
}

type backupEboot struct {
	*pipeline.BaseStep
}

// BackupEboot keeps the original executable next to it on the accessor. An existing backup is
// left untouched so the first original survives repeated patching.
func BackupEboot() pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &backupEboot{pipeline.NewBaseStep(p, "backup eboot")}
	}
}

func (s *backupEboot) Execute(ctx context.Context) error {
	acc, err := runAccessor(s.Pipeline())
	if err != nil {
		return err
	}
	ws, err := runWorkspace(s.Pipeline())
	if err != nil {
		return err
	}
	t, err := runTitle(s.Pipeline())
	if err != nil {
		return err
	}

	backup := BackupPath(t)
	ok, err := acc.FileExists(backup)
	if err != nil {
		return errors.Wrap(err, "unable to check backup")
	}
	if ok {
		s.Logger(ctx).Info(logkeys.Message, "backup already exists", logkeys.Path, backup)
		s.SetProgress(1)
		return nil
	}

	err = acc.UploadFile(ws.Path(KeyEbootOriginal), backup)
	if err != nil {
		return errors.Wrap(err, "unable to back up executable")
	}
	s.SetProgress(1)

	return nil
}

type uploadEboot struct {
	*pipeline.BaseStep
}

// UploadEboot replaces the title's executable with the patched one.
func UploadEboot() pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &uploadEboot{pipeline.NewBaseStep(p, "upload eboot")}
	}
}

func (s *uploadEboot) Execute(ctx context.Context) error {
	acc, err := runAccessor(s.Pipeline())
	if err != nil {
		return err
	}
	ws, err := runWorkspace(s.Pipeline())
	if err != nil {
		return err
	}
	t, err := runTitle(s.Pipeline())
	if err != nil {
		return err
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	err = acc.UploadFile(ws.Path(KeyEbootEncrypted), EbootPath(t))
	if err != nil {
		return errors.Wrap(err, "unable to upload executable")
	}
	s.Logger(ctx).Info(logkeys.Message, "executable replaced", logkeys.TitleID, t.ID)
	s.SetProgress(1)

	return nil
}
