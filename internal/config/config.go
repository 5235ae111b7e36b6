// Package config holds the refresher CLI configuration: defaults, an optional YAML file,
// flag overrides and validation.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-refresher/pkg/pipelines"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings of one refresher invocation.
type Config struct {
	// Pipeline is the id of the pipeline to run. Default: "rpcs3-patch".
	Pipeline string `yaml:"pipeline"`
	// Inputs are handed to the pipeline before it runs, keyed by input id.
	Inputs map[string]string `yaml:"inputs"`
	// Workspace is where run directories for artifacts are created. Each run removes only its own.
	Workspace string `yaml:"workspace"`
	// WorkspaceCache bounds the in-memory artifact cache, in bytes.
	WorkspaceCache uint64 `yaml:"workspace_cache"`
	// Graph, when set, is the DOT file the run graph is written to.
	Graph string `yaml:"graph"`
	// Discover, when set, is the server endpoint autodiscovered before running.
	Discover string `yaml:"discover"`
	// Companion is the local plugin uploaded with the patched title. Empty skips it.
	Companion string `yaml:"companion"`

	FTPUser     string        `yaml:"ftp_user"`
	FTPPassword string        `yaml:"ftp_password"`
	FTPTimeout  time.Duration `yaml:"ftp_timeout"`

	// ProgressInterval is how often progress is logged. Default: 500ms.
	ProgressInterval time.Duration `yaml:"progress_interval"`
	// List lists the installed titles instead of patching.
	List  bool `yaml:"list"`
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Pipeline:         pipelines.EmulatorID,
		Inputs:           map[string]string{},
		Workspace:        filepath.Join(os.TempDir(), "refresher"),
		WorkspaceCache:   16 << 20,
		FTPTimeout:       10 * time.Second,
		ProgressInterval: 500 * time.Millisecond,
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config %s", path)
	}

	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load config %s", path)
	}

	return cfg, nil
}

// Decode reads a YAML document over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "unable to decode yaml")
	}
	if cfg.Inputs == nil {
		cfg.Inputs = map[string]string{}
	}

	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	_, err := pipelines.Lookup(c.Pipeline, pipelines.Options{})
	if err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if c.Workspace == "" {
		return errors.Wrap(ErrInvalidConfig, "workspace must be set")
	}
	if c.ProgressInterval <= 0 {
		return errors.Wrap(ErrInvalidConfig, "progress interval must be positive")
	}
	if c.FTPTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "ftp timeout must be positive")
	}

	return nil
}
