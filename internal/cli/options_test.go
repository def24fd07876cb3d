// internal/cli/options_test.go
package cli

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bmalign/internal/config"
)

func newFS() *flag.FlagSet { return flag.NewFlagSet("test", flag.ContinueOnError) }

func noEnv(string) (string, bool) { return "", false }

func mustParse(t *testing.T, args ...string) Options {
	t.Helper()
	opts, err := ParseArgsEnv(newFS(), args, noEnv)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	return opts
}

func TestBootstrapFlags(t *testing.T) {
	o := mustParse(t, "-i", "in.fa", "-o", "out.txt", "-r", "R")
	c := o.Config
	if c.Input != "in.fa" || c.Output != "out.txt" || c.Random != "R" {
		t.Errorf("bad bootstrap parse %+v", c)
	}
	if c.Size != 1 || c.Format != "text" {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestMissingInputOrOutput(t *testing.T) {
	for _, args := range [][]string{
		{"-o", "out.txt"},
		{"-i", "in.fa"},
	} {
		_, err := ParseArgsEnv(newFS(), args, noEnv)
		if !errors.Is(err, config.ErrInvalid) {
			t.Errorf("%v: want ErrInvalid, got %v", args, err)
		}
	}
}

func TestBadRandomMode(t *testing.T) {
	_, err := ParseArgsEnv(newFS(), []string{"-i", "a", "-o", "b", "-r", "Q"}, noEnv)
	if err == nil {
		t.Fatal("expected error for -r Q")
	}
}

func TestHelpAndVersion(t *testing.T) {
	if _, err := ParseArgsEnv(newFS(), []string{"-h"}, noEnv); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("want ErrHelp, got %v", err)
	}
	o := mustParse(t, "-version")
	if !o.Version {
		t.Fatal("version flag not set")
	}
}

func TestPositionalsRejected(t *testing.T) {
	if _, err := ParseArgsEnv(newFS(), []string{"-i", "a", "-o", "b", "extra"}, noEnv); err == nil {
		t.Fatal("expected error for stray positional")
	}
}

func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	body := "input: file.fa\noutput: file.out\nsize: 4\ncoord: file:7000\nlog_level: info\nscoring:\n  match: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	env := func(k string) (string, bool) {
		switch k {
		case config.EnvRank:
			return "1", true
		case config.EnvCoord:
			return "env:7000", true
		}
		return "", false
	}

	o, err := ParseArgsEnv(newFS(), []string{"-config", path, "-coord", "flag:7000", "-dial-timeout", "3s"}, env)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := o.Config
	if c.Input != "file.fa" || c.Size != 4 || c.Scoring.Match != 5 || c.LogLevel != "info" {
		t.Errorf("file values lost: %+v", c)
	}
	if c.Rank != 1 {
		t.Errorf("env rank = %d, want 1", c.Rank)
	}
	if c.Coord != "flag:7000" {
		t.Errorf("flag should beat env and file, coord = %q", c.Coord)
	}
	if c.DialTimeout != 3*time.Second {
		t.Errorf("dial timeout = %v", c.DialTimeout)
	}
	if c.Scoring.Gap != -1 {
		t.Errorf("unset flag clobbered file/default gap: %d", c.Scoring.Gap)
	}
}

func TestUsageMentionsFlags(t *testing.T) {
	fs := NewFlagSet("bmalign")
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	_, _ = ParseArgsEnv(fs, []string{"-h"}, noEnv)
	fs.Usage()
	for _, want := range []string{"bmalign", "-coord", "-np", "-metrics-addr"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}
