package steps

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/internal/logkeys"
	"github.com/askiada/go-refresher/pkg/accessor/ftp"
	"github.com/askiada/go-refresher/pkg/accessor/local"
	"github.com/askiada/go-refresher/pkg/accessor/memory"
	"github.com/askiada/go-refresher/pkg/pipeline"
)

type setupLocalAccessor struct {
	*pipeline.BaseStep
}

// SetupLocalAccessor roots the run's accessor at the emulator folder given by the root input.
func SetupLocalAccessor() pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &setupLocalAccessor{pipeline.NewBaseStep(p, "setup local accessor", RootInput)}
	}
}

func (s *setupLocalAccessor) Execute(ctx context.Context) error {
	root, _ := s.Pipeline().Input(InputRoot)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return errors.Wrapf(ErrRootNotFound, "%q", root)
	}

	s.Pipeline().Run().Accessor = local.New(root)
	s.Logger(ctx).Debug(logkeys.Message, "accessor ready", logkeys.Path, root)
	s.SetProgress(1)

	return nil
}

type setupMemoryAccessor struct {
	*pipeline.BaseStep
	acc *memory.Accessor
}

// SetupMemoryAccessor gives every run a fresh handle on the tree of acc, for dry runs against an
// in-memory tree. Reset closes the run's handle and leaves acc usable by the next run.
func SetupMemoryAccessor(acc *memory.Accessor) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &setupMemoryAccessor{BaseStep: pipeline.NewBaseStep(p, "setup memory accessor"), acc: acc}
	}
}

func (s *setupMemoryAccessor) Execute(context.Context) error {
	s.Pipeline().Run().Accessor = s.acc.Reopen()
	s.SetProgress(1)

	return nil
}

type setupFTPAccessor struct {
	*pipeline.BaseStep
	opts []ftp.Option
}

// SetupFTPAccessor connects to the console given by the device_address input.
func SetupFTPAccessor(opts ...ftp.Option) pipeline.StepFactory {
	return func(p *pipeline.Pipeline) pipeline.Step {
		return &setupFTPAccessor{BaseStep: pipeline.NewBaseStep(p, "connect to console", DeviceAddressInput), opts: opts}
	}
}

func (s *setupFTPAccessor) Execute(ctx context.Context) error {
	addr, _ := s.Pipeline().Input(InputDeviceAddress)
	s.Logger(ctx).Info(logkeys.Message, "connecting", logkeys.Endpoint, ftp.Address(addr))

	acc, err := ftp.Dial(ctx, addr, s.opts...)
	if err != nil {
		return err
	}

	s.Pipeline().Run().Accessor = acc
	s.SetProgress(1)

	return nil
}
