package pipeline

import (
	"encoding/json"
	"io"
)

// coeffMatrix is anything exposing an L x 2 coefficient matrix.
type coeffMatrix interface {
	Coeffs() [][2]float64
}

// WriteCoeffs serializes the trained coefficients as an indented JSON array
// of [cx, cy] pairs, one per basis term.
func WriteCoeffs(w io.Writer, field coeffMatrix) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(field.Coeffs())
}
