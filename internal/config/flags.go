package config

import (
	"flag"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-refresher/pkg/pipelines"
)

// inputsValue collects repeated -input id=value flags.
type inputsValue map[string]string

func (v inputsValue) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	sort.Strings(pairs)

	return strings.Join(pairs, ",")
}

func (v inputsValue) Set(s string) error {
	id, value, ok := strings.Cut(s, "=")
	if !ok || id == "" {
		return errors.Errorf("input %q must be id=value", s)
	}
	v[id] = value

	return nil
}

// Flags binds the command line to a configuration.
type Flags struct {
	ConfigFile string
	Version    bool

	fs     *flag.FlagSet
	values Config
	inputs inputsValue
}

// RegisterFlags defines the refresher flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	def := Default()
	f := &Flags{fs: fs, inputs: inputsValue{}}

	fs.StringVar(&f.ConfigFile, "config", "", "path to a YAML configuration file")
	fs.BoolVar(&f.Version, "version", false, "print version and exit")
	fs.StringVar(&f.values.Pipeline, "pipeline", def.Pipeline, "pipeline to run: "+strings.Join(pipelines.IDs(), " | "))
	fs.Var(f.inputs, "input", "pipeline input as id=value, repeatable")
	fs.StringVar(&f.values.Workspace, "workspace", def.Workspace, "parent directory of the per-run artifact directories")
	fs.Uint64Var(&f.values.WorkspaceCache, "workspace-cache", def.WorkspaceCache, "artifact cache size in bytes")
	fs.StringVar(&f.values.Graph, "graph", "", "write the run graph to this DOT file")
	fs.StringVar(&f.values.Discover, "discover", "", "autodiscover the server URL from this endpoint")
	fs.StringVar(&f.values.Companion, "companion", "", "local plugin file uploaded with the patch")
	fs.StringVar(&f.values.FTPUser, "ftp-user", "", "console FTP user, anonymous when empty")
	fs.StringVar(&f.values.FTPPassword, "ftp-password", "", "console FTP password")
	fs.DurationVar(&f.values.FTPTimeout, "ftp-timeout", def.FTPTimeout, "console FTP timeout")
	fs.DurationVar(&f.values.ProgressInterval, "progress-interval", def.ProgressInterval, "progress report interval")
	fs.BoolVar(&f.values.List, "list", false, "list installed titles instead of patching")
	fs.BoolVar(&f.values.Debug, "debug", false, "log debug messages")

	return f
}

// Apply copies the flags that were set over cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "pipeline":
			cfg.Pipeline = f.values.Pipeline
		case "input":
			if cfg.Inputs == nil {
				cfg.Inputs = map[string]string{}
			}
			for k, v := range f.inputs {
				cfg.Inputs[k] = v
			}
		case "workspace":
			cfg.Workspace = f.values.Workspace
		case "workspace-cache":
			cfg.WorkspaceCache = f.values.WorkspaceCache
		case "graph":
			cfg.Graph = f.values.Graph
		case "discover":
			cfg.Discover = f.values.Discover
		case "companion":
			cfg.Companion = f.values.Companion
		case "ftp-user":
			cfg.FTPUser = f.values.FTPUser
		case "ftp-password":
			cfg.FTPPassword = f.values.FTPPassword
		case "ftp-timeout":
			cfg.FTPTimeout = f.values.FTPTimeout
		case "progress-interval":
			cfg.ProgressInterval = f.values.ProgressInterval
		case "list":
			cfg.List = f.values.List
		case "debug":
			cfg.Debug = f.values.Debug
		}
	})
}

// Config loads the configuration file, if one was given, and applies the flags over it.
func (f *Flags) Config() (*Config, error) {
	cfg := Default()
	if f.ConfigFile != "" {
		var err error
		cfg, err = Load(f.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	f.Apply(cfg)

	return cfg, cfg.Validate()
}
