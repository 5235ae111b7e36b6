package steps

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/patch"
	"github.com/askiada/go-refresher/pkg/pipeline"
)

type preparePatcher struct {
	*pipeline.BaseStep
}

// PreparePatcher loads the decrypted executable and checks the target URL fits in it.
func PreparePatcher() pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &preparePatcher{pipeline.NewBaseStep(p, "prepare patcher", URLInput)}
	}
}

func (s *preparePatcher) Execute(ctx context.Context) error {
	ws, err := runWorkspace(s.Pipeline())
	if err != nil {
		return err
	}
	target, err := TargetURL(s.Pipeline())
	if err != nil {
		return err
	}

	data, err := ws.Bytes(KeyEbootDecrypted)
	if err != nil {
		return err
	}
	s.SetProgress(0.5)

	patcher := patch.NewURLPatcher(data)
	err = patcher.Verify(target)
	if err != nil {
		return errors.Wrapf(err, "unable to patch in %s", target)
	}

	s.Pipeline().Run().Patcher = patcher
	s.Logger(ctx).Debug(logkeys.Message, "patch verified", logkeys.GenericCount, len(patcher.Targets()))
	s.SetProgress(1)

	return nil
}

type applyPatch struct {
	*pipeline.BaseStep
}

// ApplyPatch writes the target URL into the executable.
func ApplyPatch() pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &applyPatch{pipeline.NewBaseStep(p, "apply patch")}
	}
}

func (s *applyPatch) Execute(ctx context.Context) error {
	ws, err := runWorkspace(s.Pipeline())
	if err != nil {
		return err
	}
	patcher := s.Pipeline().Run().Patcher
	if patcher == nil {
		return ErrNoPatcher
	}
	target, err := TargetURL(s.Pipeline())
	if err != nil {
		return err
	}

	err = patcher.Patch(target)
	if err != nil {
		return errors.Wrap(err, "unable to apply patch")
	}
	err = ws.PutBytes(KeyEbootPatched, patcher.Bytes())
	if err != nil {
		return err
	}
	s.Logger(ctx).Info(logkeys.Message, "executable patched", logkeys.Endpoint, target)
	s.SetProgress(1)

	return nil
}
