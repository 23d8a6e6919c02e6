// Package basis provides the distortion model function families fitted by
// the calibrator. A model maps a detector coordinate to a 2D displacement as
// a linear combination of fixed basis functions with per-term (x, y)
// coefficients.
package basis

import (
	"fmt"

	"github.com/jcranney/mavdac/pkg/geometry"
)

// ShapeError reports a coefficient matrix whose dimensions or values do not
// match the model.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return e.Msg
}

// Model is implemented by distortion function families the calibrator can
// fit. Sample evaluates a single basis term; SetCoeffs installs the fitted
// L x 2 coefficient matrix, after which the model is trained and read-only.
type Model interface {
	// Terms returns L, the number of basis functions.
	Terms() int
	// Sample evaluates basis term index at p. index must lie in [0, Terms()).
	Sample(p geometry.Vec2, index int) (float64, error)
	// SetCoeffs installs the L x 2 coefficient matrix. It may be called at
	// most once, and rejects wrongly shaped or non-finite input with a
	// ShapeError.
	SetCoeffs(coeffs [][2]float64) error
	// Eval returns the modelled displacement at p. Before training it
	// evaluates with all-zero coefficients.
	Eval(p geometry.Vec2) geometry.Vec2
}

func indexError(index, terms int) error {
	return fmt.Errorf("basis term index %d out of range [0, %d)", index, terms)
}
