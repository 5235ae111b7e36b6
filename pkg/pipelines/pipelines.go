// Package pipelines declares the patch pipelines the refresher ships with.
package pipelines

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/accessor/ftp"
	"github.com/askiada/go-refresher/pkg/patch"
	"github.com/askiada/go-refresher/pkg/pipeline"
	"github.com/askiada/go-refresher/pkg/pipeline/steps"
)

const (
	EmulatorID = "rpcs3-patch"
	DeviceID   = "ps3-patch"

	// EmulatorGameDir is relative to the emulator folder.
	EmulatorGameDir = "dev_hdd0/game"
	DeviceGameDir   = "/dev_hdd0/game"

	CompanionPath = "plugins/patchwork.sprx"
)

// ErrUnknownPipeline is returned by Lookup for ids no pipeline is registered under.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Options tunes the shipped definitions.
type Options struct {
	// Cipher decrypts and re-encrypts executables. Defaults to patch.PassthroughCipher.
	Cipher patch.Cipher
	// CompanionFile is the local plugin uploaded next to the patched title. Empty skips it.
	CompanionFile string
	FTPOptions    []ftp.Option
}

func (o Options) cipher() patch.Cipher {
	if o.Cipher == nil {
		return patch.PassthroughCipher{}
	}

	return o.Cipher
}

func patchSteps(gameDir string, o Options) []pipeline.StepFactory {
	res := []pipeline.StepFactory{
		// info gathering
		steps.ValidateTitle(gameDir),
		steps.DownloadEboot(),
		// decryption and patch
		steps.DecryptEboot(o.cipher()),
		steps.PreparePatcher(),
		steps.ApplyPatch(),
		// encryption and upload
		steps.EncryptEboot(o.cipher()),
		steps.BackupEboot(),
		steps.UploadEboot(),
	}
	if o.CompanionFile != "" {
		res = append(res, steps.UploadCompanion(o.CompanionFile, CompanionPath))
	}

	return res
}

// Emulator patches a title installed in an RPCS3 folder.
func Emulator(o Options) pipeline.Definition {
	return pipeline.Definition{
		ID:            EmulatorID,
		Name:          "RPCS3 Patch",
		GuideLink:     "https://docs.littlebigrefresh.com/rpcs3",
		SetupAccessor: steps.SetupLocalAccessor(),
		ListTitles:    steps.ListTitles(EmulatorGameDir),
		Steps:         patchSteps(EmulatorGameDir, o),
	}
}

// Device patches a title on a console reachable over FTP.
func Device(o Options) pipeline.Definition {
	return pipeline.Definition{
		ID:            DeviceID,
		Name:          "PS3 Patch",
		GuideLink:     "https://docs.littlebigrefresh.com/ps3",
		SetupAccessor: steps.SetupFTPAccessor(o.FTPOptions...),
		ListTitles:    steps.ListTitles(DeviceGameDir),
		Steps:         patchSteps(DeviceGameDir, o),
	}
}

var registry = map[string]func(Options) pipeline.Definition{
	EmulatorID: Emulator,
	DeviceID:   Device,
}

// IDs returns the registered pipeline ids, sorted.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Lookup returns the definition registered under id.
func Lookup(id string, o Options) (pipeline.Definition, error) {
	build, ok := registry[id]
	if !ok {
		return pipeline.Definition{}, errors.Wrapf(ErrUnknownPipeline, "%q", id)
	}

	return build(o), nil
}
