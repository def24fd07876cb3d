// internal/report/report.go
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"syscall"

	"bmalign/core/fasta"
	"bmalign/core/search"
	"bmalign/pkg/api"
)

// Build assembles the stable report for out. names supplies the FASTA
// headers by sequence id and may be shorter than the alignment.
func Build(runID string, out search.Outcome, names []fasta.Record) api.ReportV1 {
	r := api.ReportV1{
		RunID:      runID,
		Iterations: out.Iterations,
		Score:      out.Score,
		Accepted:   out.Accepted,
		Log:        string(out.Log),
		Sequences:  make([]api.SequenceV1, 0, len(out.Alignment)),
	}
	for _, s := range out.Alignment {
		row := api.SequenceV1{ID: s.ID, Residues: string(s.Residues)}
		if s.ID >= 0 && s.ID < len(names) {
			row.Name = names[s.ID].Name
			row.Description = names[s.ID].Description
		}
		r.Sequences = append(r.Sequences, row)
	}
	return r
}

// WriteText writes the plain report.
func WriteText(w io.Writer, r api.ReportV1) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "iterations: %d\n", r.Iterations)
	fmt.Fprintf(bw, "score: %d\n", r.Score)
	fmt.Fprintf(bw, "accepted: %d\n", r.Accepted)
	fmt.Fprintf(bw, "log: %s\n", r.Log)
	for _, s := range r.Sequences {
		fmt.Fprintf(bw, "seq %d: %s\n", s.ID, s.Residues)
	}
	return bw.Flush()
}

// WriteJSON writes r as one indented JSON document.
func WriteJSON(w io.Writer, r api.ReportV1) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Write dispatches on format ("text" or "json").
func Write(w io.Writer, format string, r api.ReportV1) error {
	switch format {
	case "text", "":
		return WriteText(w, r)
	case "json":
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Downstream consumers like `head` close early; that is not a failure.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
