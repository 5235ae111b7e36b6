package pipeline

import (
	"context"

	"github.com/micromdm/nanolib/log"

	"github.com/askiada/go-refresher/pkg/discovery"
	"github.com/askiada/go-refresher/pkg/pipeline/model"
	"github.com/askiada/go-refresher/pkg/workspace"
)

// Discoverer resolves an endpoint into discovery details.
type Discoverer interface {
	Discover(ctx context.Context, endpoint string) (*discovery.Response, error)
}

type Option func(p *Pipeline)

// WithLogger sets the logger. Run-scoped log lines carry the run id.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithDiscoverer sets the client used by InvokeAutoDiscover.
func WithDiscoverer(d Discoverer) Option {
	return func(p *Pipeline) {
		p.discoverer = d
	}
}

// WithWorkspace sets the scratch store steps keep artifacts in. Reset clears it.
func WithWorkspace(ws *workspace.Workspace) Option {
	return func(p *Pipeline) {
		p.workspace = ws
	}
}

// WithHooks adds pipeline options notified about runs and steps, such as measure and drawer.
func WithHooks(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}
