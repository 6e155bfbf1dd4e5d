package domain

// StageReport is the per-unit tally every pipeline stage returns, so
// partial success stays distinguishable from total failure.
type StageReport struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
