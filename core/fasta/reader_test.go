package fasta

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const plain = `>seq1 first record
ACGT
acg
>seq2
NNnn

>seq3	tabbed  desc
`

// writeGz creates a gzipped FASTA file with provided data, returns the file path.
func writeGz(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fa.gz")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatalf("tmp: %v", err)
	}
	gw := gzip.NewWriter(fh)
	if _, err := gw.Write([]byte(data)); err != nil {
		t.Fatalf("write gz: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := fh.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestScanRecords(t *testing.T) {
	var got []Record
	err := ScanCtx(context.Background(), strings.NewReader(plain), func(r Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 records, got %d", len(got))
	}
	if got[0].Name != "seq1" || got[0].Description != "first record" || string(got[0].Residues) != "ACGTACG" {
		t.Errorf("record 0 = %+v", got[0])
	}
	if got[1].Index != 1 || string(got[1].Residues) != "NNNN" || got[1].Description != "" {
		t.Errorf("record 1 = %+v", got[1])
	}
	if got[2].Name != "seq3" || got[2].Description != "tabbed  desc" || len(got[2].Residues) != 0 {
		t.Errorf("record 2 = %+v", got[2])
	}
}

func TestScanRejectsHeaderlessData(t *testing.T) {
	err := ScanCtx(context.Background(), strings.NewReader("ACGT\n>s\nA\n"), func(Record) error { return nil })
	if err == nil {
		t.Fatal("expected error for sequence before header")
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ScanCtx(ctx, strings.NewReader(plain), func(Record) error { return nil })
	if err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestReadAllGzip(t *testing.T) {
	gzPath := writeGz(t, plain)

	recs, err := ReadAll(context.Background(), gzPath)
	if err != nil {
		t.Fatalf("read gz: %v", err)
	}
	if len(recs) != 3 || recs[0].Name != "seq1" || recs[2].Name != "seq3" {
		t.Fatalf("gzip parse failed, recs=%+v", recs)
	}
}

func TestReadAllStdin(t *testing.T) {
	// Fake stdin by swapping os.Stdin
	orig := os.Stdin
	r, w, _ := os.Pipe()
	os.Stdin = r
	defer func() { os.Stdin = orig }()

	go func() {
		_, _ = io.WriteString(w, plain)
		_ = w.Close()
	}()

	recs, err := ReadAll(context.Background(), "-")
	if err != nil {
		t.Fatalf("read stdin: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records from stdin, got %d", len(recs))
	}
}

func TestReadAllMissingFile(t *testing.T) {
	if _, err := ReadAll(context.Background(), filepath.Join(t.TempDir(), "nope.fa")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
