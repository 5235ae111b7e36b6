package steps

import "github.com/pkg/errors"

var (
	ErrNoAccessor     = errors.New("no accessor was set up")
	ErrNoWorkspace    = errors.New("pipeline has no workspace")
	ErrNoTitle        = errors.New("no title was validated")
	ErrNoPatcher      = errors.New("no patcher was prepared")
	ErrNoTargetURL    = errors.New("no url given and none autodiscovered")
	ErrInvalidTitleID = errors.New("invalid title id")
	ErrTitleNotFound  = errors.New("title is not installed")
	ErrRootNotFound   = errors.New("root directory does not exist")
)
