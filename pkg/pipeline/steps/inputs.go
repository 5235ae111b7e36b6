package steps

import (
	"github.com/askiada/go-refresher/pkg/pipeline"
)

// Input ids shared by the steps of this package.
const (
	InputTitleID       = "title_id"
	InputRoot          = "root"
	InputURL           = "url"
	InputDeviceAddress = "device_address"
	InputContentID     = "content_id"
)

var (
	TitleIDInput = pipeline.StepInput{
		ID:          InputTitleID,
		Name:        "Title ID",
		Placeholder: "BCUS98174",
		Type:        pipeline.InputTypeString,
	}
	RootInput = pipeline.StepInput{
		ID:          InputRoot,
		Name:        "Emulator folder",
		Placeholder: "~/.config/rpcs3",
		Type:        pipeline.InputTypeDirectory,
	}
	// URLInput overrides the autodiscovered server URL.
	URLInput = pipeline.StepInput{
		ID:          InputURL,
		Name:        "Server URL",
		Placeholder: "http://refresh.example.com/lbp",
		Type:        pipeline.InputTypeURL,
		Optional:    true,
	}
	DeviceAddressInput = pipeline.StepInput{
		ID:          InputDeviceAddress,
		Name:        "Console IP",
		Placeholder: "192.168.1.20",
		Type:        pipeline.InputTypeAddress,
	}
	ContentIDInput = pipeline.StepInput{
		ID:          InputContentID,
		Name:        "Content ID",
		Placeholder: "UP9000-BCUS98174_00-LITTLEBIGPLANET1",
		Type:        pipeline.InputTypeString,
		Optional:    true,
	}
)
