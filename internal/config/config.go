// Package config holds the resolved run configuration of bmalign and loads
// its optional YAML file and environment overlay. Flags are applied on top
// by internal/cli.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"bmalign/core/align"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Environment variables consulted by ApplyEnv.
const (
	EnvRank     = "BMALIGN_RANK"
	EnvSize     = "BMALIGN_SIZE"
	EnvCoord    = "BMALIGN_COORD"
	EnvLogLevel = "BMALIGN_LOG_LEVEL"
)

// Config is the full set of knobs for one rank.
type Config struct {
	Input  string `yaml:"input" validate:"required"`
	Output string `yaml:"output" validate:"required"`
	Random string `yaml:"random" validate:"oneof=R P r p"`
	Format string `yaml:"format" validate:"oneof=text json"`

	// Procs > 0 runs that many ranks as goroutines of this process.
	Procs       int           `yaml:"procs" validate:"gte=0"`
	Rank        int           `yaml:"rank" validate:"gte=0"`
	Size        int           `yaml:"size" validate:"gte=1"`
	Coord       string        `yaml:"coord" validate:"omitempty,hostname_port"`
	DialTimeout time.Duration `yaml:"dial_timeout" validate:"gt=0"`

	Scoring align.Params `yaml:"scoring"`

	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"oneof=json console"`
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Random:      "P",
		Format:      "text",
		Size:        1,
		DialTimeout: 30 * time.Second,
		Scoring:     align.DefaultParams,
		LogLevel:    "warn",
		LogFormat:   "console",
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path yields the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays the BMALIGN_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRank); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvRank, err)
		}
		c.Rank = n
	}
	if v, ok := lookup(EnvSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvSize, err)
		}
		c.Size = n
	}
	if v, ok := lookup(EnvCoord); ok {
		c.Coord = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the rank layout.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch {
	case c.Procs > 0 && c.Size > 1:
		return fmt.Errorf("%w: -np cannot be combined with -size", ErrInvalid)
	case c.Rank >= c.Size:
		return fmt.Errorf("%w: rank %d outside a run of %d", ErrInvalid, c.Rank, c.Size)
	case c.Size > 1 && c.Coord == "":
		return fmt.Errorf("%w: a run of %d ranks needs -coord", ErrInvalid, c.Size)
	}
	return nil
}

// Distributed reports whether this rank talks to others over TCP.
func (c Config) Distributed() bool { return c.Procs == 0 && c.Size > 1 }
