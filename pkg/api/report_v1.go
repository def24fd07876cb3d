// pkg/api/report_v1.go
package api

// ReportV1 is the stable JSON schema of a finished alignment.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ReportV1 struct {
	RunID      string       `json:"run_id,omitempty"`
	Iterations int          `json:"iterations"`
	Score      int          `json:"score"`
	Accepted   int          `json:"accepted"`
	Log        string       `json:"log"`
	Sequences  []SequenceV1 `json:"sequences"`
}

// SequenceV1 is one aligned row.
type SequenceV1 struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Residues    string `json:"residues"`
}
