package steps

import (
	"context"
	"os"
	"path"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/pipeline"
)

type uploadCompanion struct {
	*pipeline.BaseStep
	localPath, remotePath string
}

// UploadCompanion replaces remotePath with the local plugin file at localPath. The run carries on
// without the plugin when the upload fails.
func UploadCompanion(localPath, remotePath string) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &uploadCompanion{
			BaseStep:   pipeline.NewBaseStep(p, "upload "+path.Base(remotePath)),
			localPath:  localPath,
			remotePath: remotePath,
		}
	}
}

func (s *uploadCompanion) Execute(ctx context.Context) error {
	err := s.BestEffort(ctx, "companion upload", s.upload)
	s.SetProgress(1)

	return err
}

func (s *uploadCompanion) upload(ctx context.Context) error {
	acc, err := runAccessor(s.Pipeline())
	if err != nil {
		return err
	}
	if _, err := os.Stat(s.localPath); err != nil {
		return errors.Wrap(err, "companion file unavailable")
	}

	err = acc.CreateDirectoryIfNotExists(path.Dir(s.remotePath))
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path.Dir(s.remotePath))
	}
	ok, err := acc.FileExists(s.remotePath)
	if err != nil {
		return errors.Wrapf(err, "unable to check %s", s.remotePath)
	}
	if ok {
		err = acc.RemoveFile(s.remotePath)
		if err != nil {
			return errors.Wrapf(err, "unable to remove %s", s.remotePath)
		}
	}
	s.SetProgress(0.5)
	if err := checkCtx(ctx); err != nil {
		return err
	}

	err = acc.UploadFile(s.localPath, s.remotePath)
	if err != nil {
		return errors.Wrapf(err, "unable to upload %s", s.remotePath)
	}
	s.Logger(ctx).Info(logkeys.Message, "companion uploaded", logkeys.Path, s.remotePath)

	return nil
}
