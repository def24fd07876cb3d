// core/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// Record is one parsed FASTA entry. Index is its 0-based position in the
// input and doubles as the sequence id for alignment.
type Record struct {
	Index       int
	Name        string
	Description string
	Residues    []byte
}

// ScanCtx parses FASTA from r and calls emit once per record.
// It returns promptly when ctx is done, even mid-file.
func ScanCtx(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	var (
		cur   Record
		open  bool
		index int
	)

	flush := func() error {
		if !open {
			return nil
		}
		cur.Index = index
		index++
		if err := emit(cur); err != nil {
			return err
		}
		cur = Record{}
		return nil
	}

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == ';' {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			cur.Name, cur.Description = parseHeader(line[1:])
			open = true
			continue
		}
		if !open {
			return fmt.Errorf("fasta: sequence data before first header")
		}
		cur.Residues = append(cur.Residues, bytes.ToUpper(line)...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	return flush()
}

// ReadAll opens path ("-" for stdin, gzip detected) and returns every record.
func ReadAll(ctx context.Context, path string) ([]Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var recs []Record
	err = ScanCtx(ctx, rc, func(r Record) error {
		recs = append(recs, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func parseHeader(hdr []byte) (name, desc string) {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i]), string(bytes.TrimSpace(hdr[i+1:]))
	}
	return string(hdr), ""
}
