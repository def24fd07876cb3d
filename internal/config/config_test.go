package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmalign/core/align"
	"bmalign/internal/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bmalign.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, align.DefaultParams, cfg.Scoring)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	p := writeFile(t, `
input: seqs.fa
output: out.txt
random: R
scoring:
  match: 2
  gap: -3
dial_timeout: 5s
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "seqs.fa", cfg.Input)
	assert.Equal(t, "R", cfg.Random)
	assert.Equal(t, align.Params{Match: 2, Gap: -3, Substitution: 0}, cfg.Scoring)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, "text", cfg.Format, "unset keys keep defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := config.Load(writeFile(t, "inptu: typo.fa\n"))
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := config.Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		config.EnvRank:     "2",
		config.EnvSize:     " 4 ",
		config.EnvCoord:    "node0:7000",
		config.EnvLogLevel: "DEBUG",
	})))
	assert.Equal(t, 2, cfg.Rank)
	assert.Equal(t, 4, cfg.Size)
	assert.Equal(t, "node0:7000", cfg.Coord)
	assert.Equal(t, "debug", cfg.LogLevel)

	err := cfg.ApplyEnv(env(map[string]string{config.EnvRank: "two"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := config.Default()
	base.Input, base.Output = "in.fa", "out.txt"
	require.NoError(t, base.Validate())

	tests := []struct {
		name string
		mut  func(*config.Config)
	}{
		{"missing input", func(c *config.Config) { c.Input = "" }},
		{"missing output", func(c *config.Config) { c.Output = "" }},
		{"bad random mode", func(c *config.Config) { c.Random = "X" }},
		{"bad format", func(c *config.Config) { c.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"rank beyond size", func(c *config.Config) { c.Size, c.Rank, c.Coord = 2, 2, "localhost:7000" }},
		{"distributed without coord", func(c *config.Config) { c.Size = 3 }},
		{"np with size", func(c *config.Config) { c.Procs, c.Size, c.Coord = 2, 2, "localhost:7000" }},
		{"bad coord", func(c *config.Config) { c.Size, c.Coord = 2, "no port" }},
		{"zero dial timeout", func(c *config.Config) { c.DialTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mut(&c)
			assert.ErrorIs(t, c.Validate(), config.ErrInvalid)
		})
	}
}

func TestDistributed(t *testing.T) {
	c := config.Default()
	assert.False(t, c.Distributed())
	c.Size = 3
	assert.True(t, c.Distributed())
	c.Size, c.Procs = 1, 3
	assert.False(t, c.Distributed())
}
