package pipeline

import (
	"github.com/askiada/go-refresher/pkg/accessor"
	"github.com/askiada/go-refresher/pkg/discovery"
	"github.com/askiada/go-refresher/pkg/patch"
	"github.com/askiada/go-refresher/pkg/title"
)

// RunContext is the state steps share during a run. Later steps consume what earlier steps
// produce, so a step must be declared after the producers of the fields it reads.
type RunContext struct {
	// Accessor is set by the accessor setup step and used by every step doing storage I/O.
	// Reset closes it.
	Accessor accessor.Accessor
	// Title is set by title validation and read by the download, backup and upload steps.
	Title *title.Info
	// Encryption is set by title validation, completed by decryption and read by encryption.
	Encryption *title.Encryption
	// Patcher is set by patcher preparation and read by patch application.
	Patcher patch.Patcher
	// AutoDiscover is set by InvokeAutoDiscover and supplies the default target URL.
	// It survives Reset.
	AutoDiscover *discovery.Response
	// TitleList is set by the title listing step and returned by DownloadTitleList.
	// It survives Reset.
	TitleList []title.Info
}
