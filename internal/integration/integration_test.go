// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bmalign/internal/app"
	"bmalign/pkg/api"
)

const fixture = `>s0 first sequence
ACGTTGCA
>s1
AGGTTCA
>s2
ACGATGA
>s3
ccgttgcaa
`

func write(t *testing.T, name, data string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, []byte(data), 0644); err != nil {
		t.Fatalf("write %s: %v", fn, err)
	}
	return fn
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out, errBuf bytes.Buffer
	if code := app.Run(args, &out, &errBuf); code != 0 {
		t.Fatalf("run %v: exit %d, stderr=%s", args, code, errBuf.String())
	}
	return out.String()
}

func TestEndToEndText(t *testing.T) {
	fa := write(t, "in.fa", fixture)
	out := run(t, "-i", fa, "-o", "-")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 8 {
		t.Fatalf("want 4 header lines and 4 rows, got:\n%s", out)
	}
	for i, prefix := range []string{"iterations: ", "score: ", "accepted: ", "log: A"} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	width := -1
	for i, line := range lines[4:] {
		prefix := fmt.Sprintf("seq %d: ", i)
		if !strings.HasPrefix(line, prefix) {
			t.Fatalf("row %d = %q", i, line)
		}
		row := strings.TrimPrefix(line, prefix)
		if width >= 0 && len(row) != width {
			t.Errorf("ragged output row %d: %q", i, row)
		}
		width = len(row)
	}
	if got := strings.ReplaceAll(strings.TrimPrefix(lines[7], "seq 3: "), "-", ""); got != "CCGTTGCAA" {
		t.Errorf("residues should be upper-cased and preserved, got %q", got)
	}
}

func TestOutputFileJSON(t *testing.T) {
	fa := write(t, "in.fa", fixture)
	dst := filepath.Join(t.TempDir(), "report.json")
	if out := run(t, "-i", fa, "-o", dst, "-format", "json", "-r", "P"); out != "" {
		t.Fatalf("stdout should be empty when -o is a file, got %q", out)
	}
	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	var rep api.ReportV1
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.RunID == "" || len(rep.Sequences) != 4 || rep.Accepted < 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.Sequences[0].Name != "s0" || rep.Sequences[0].Description != "first sequence" {
		t.Errorf("header not carried through bootstrap: %+v", rep.Sequences[0])
	}
}

func TestDeterministicInPseudoMode(t *testing.T) {
	fa := write(t, "in.fa", fixture)
	a := run(t, "-i", fa, "-o", "-", "-np", "3")
	b := run(t, "-i", fa, "-o", "-", "-np", "3")
	if a != b {
		t.Fatalf("pseudo mode should be reproducible:\n%s\nvs\n%s", a, b)
	}
}

func TestTCPRanksMatchInProcess(t *testing.T) {
	const size = 3
	fa := write(t, "in.fa", fixture)
	want := run(t, "-i", fa, "-o", "-", "-np", fmt.Sprint(size))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	coord := lis.Addr().String()
	_ = lis.Close()

	outs := make([]bytes.Buffer, size)
	errs := make([]bytes.Buffer, size)
	codes := make([]int, size)
	var wg sync.WaitGroup
	for r := 0; r < size; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			codes[r] = app.RunContext(context.Background(), []string{
				"-i", fa, "-o", "-",
				"-rank", fmt.Sprint(r), "-size", fmt.Sprint(size), "-coord", coord,
				"-dial-timeout", "5s",
			}, &outs[r], &errs[r])
		}(r)
	}
	wg.Wait()
	for r, code := range codes {
		if code != 0 {
			t.Fatalf("rank %d exit %d: %s", r, code, errs[r].String())
		}
	}
	if got := outs[0].String(); got != want {
		t.Fatalf("tcp run differs from in-process run:\n%s\nvs\n%s", got, want)
	}
	for r := 1; r < size; r++ {
		if outs[r].Len() != 0 {
			t.Errorf("rank %d wrote a report: %q", r, outs[r].String())
		}
	}
}

func TestUsageErrors(t *testing.T) {
	cases := [][]string{
		{"-o", "-"},
		{"-i", "x.fa"},
		{"-i", "x.fa", "-o", "-", "-r", "Z"},
		{"-bogus"},
	}
	for _, args := range cases {
		var errBuf bytes.Buffer
		if code := app.Run(args, io.Discard, &errBuf); code != 2 {
			t.Errorf("%v: exit %d, want 2 (stderr=%s)", args, code, errBuf.String())
		}
	}
}

func TestRuntimeErrors(t *testing.T) {
	two := write(t, "two.fa", ">a\nACGT\n>b\nACGA\n")
	missing := filepath.Join(t.TempDir(), "nope.fa")
	for _, in := range []string{two, missing} {
		var errBuf bytes.Buffer
		if code := app.Run([]string{"-i", in, "-o", "-", "-np", "2"}, io.Discard, &errBuf); code != 3 {
			t.Errorf("%s: exit %d, want 3 (stderr=%s)", in, code, errBuf.String())
		}
	}
}

func TestVersionAndHelp(t *testing.T) {
	out := run(t, "-version")
	if !strings.HasPrefix(out, "bmalign version ") {
		t.Errorf("version output %q", out)
	}
	if out := run(t, "-h"); !strings.Contains(out, "-coord") {
		t.Errorf("help output missing flags:\n%s", out)
	}
}
