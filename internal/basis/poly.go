package basis

import (
	"fmt"
	"math"

	"github.com/jcranney/mavdac/pkg/geometry"
)

// TermCount returns the number of bivariate monomials of total degree <= d,
// (d+1)(d+2)/2.
func TermCount(d int) int {
	return (d + 1) * (d + 2) / 2
}

// BiVarPoly is a bivariate polynomial distortion model of bounded total
// degree, evaluated in coordinates normalized against a reference detector
// shape so that coefficient magnitudes stay well conditioned regardless of
// detector size.
//
// Terms are ordered by total degree, then by x exponent: index i maps to the
// monomial u^k * v^(n-k) with n = floor((-1+sqrt(1+8i))/2) and
// k = i - n(n+1)/2, where u = (x - W/2)/(W/2) and v = (y - H/2)/(H/2). The
// first terms are 1, v, u, v^2, u*v, u^2, ... This ordering is the contract
// between fitting and evaluation and must never change.
type BiVarPoly struct {
	degree  int
	width   int
	height  int
	coeffs  [][2]float64
	trained bool
}

// NewBiVarPoly creates an untrained polynomial model of the given total
// degree for a width x height detector. Coefficients start at zero.
func NewBiVarPoly(degree, width, height int) (*BiVarPoly, error) {
	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative, got %d", degree)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("reference shape must be positive, got %dx%d", width, height)
	}
	return &BiVarPoly{
		degree: degree,
		width:  width,
		height: height,
		coeffs: make([][2]float64, TermCount(degree)),
	}, nil
}

// Degree returns the maximum total degree of the model.
func (b *BiVarPoly) Degree() int {
	return b.degree
}

// Terms returns the number of monomials in the model.
func (b *BiVarPoly) Terms() int {
	return len(b.coeffs)
}

// RefShape returns the detector shape the model normalizes coordinates
// against.
func (b *BiVarPoly) RefShape() (width, height int) {
	return b.width, b.height
}

// Trained reports whether coefficients have been loaded.
func (b *BiVarPoly) Trained() bool {
	return b.trained
}

// Sample evaluates monomial index at p in normalized coordinates.
func (b *BiVarPoly) Sample(p geometry.Vec2, index int) (float64, error) {
	if index < 0 || index >= len(b.coeffs) {
		return 0, indexError(index, len(b.coeffs))
	}
	n := int(math.Floor((-1 + math.Sqrt(1+8*float64(index))) / 2))
	k := index - n*(n+1)/2

	u := (p.X - float64(b.width)/2) / (float64(b.width) / 2)
	v := (p.Y - float64(b.height)/2) / (float64(b.height) / 2)
	return math.Pow(u, float64(k)) * math.Pow(v, float64(n-k)), nil
}

// SetCoeffs installs the fitted coefficient matrix and marks the model
// trained. The matrix must be Terms() x 2 with finite entries, and a trained
// model rejects further loads.
func (b *BiVarPoly) SetCoeffs(coeffs [][2]float64) error {
	if b.trained {
		return &ShapeError{Msg: "coefficients already loaded"}
	}
	if len(coeffs) != len(b.coeffs) {
		return &ShapeError{Msg: fmt.Sprintf(
			"coefficient matrix has %d rows, model has %d terms", len(coeffs), len(b.coeffs))}
	}
	for i, c := range coeffs {
		if !(geometry.Vec2{X: c[0], Y: c[1]}).IsFinite() {
			return &ShapeError{Msg: fmt.Sprintf("non-finite coefficient at term %d", i)}
		}
	}
	copy(b.coeffs, coeffs)
	b.trained = true
	return nil
}

// Coeffs returns a copy of the L x 2 coefficient matrix.
func (b *BiVarPoly) Coeffs() [][2]float64 {
	out := make([][2]float64, len(b.coeffs))
	copy(out, b.coeffs)
	return out
}

// Eval returns the modelled displacement at p. Safe for concurrent use once
// the model is trained.
func (b *BiVarPoly) Eval(p geometry.Vec2) geometry.Vec2 {
	var out geometry.Vec2
	for i, c := range b.coeffs {
		s, _ := b.Sample(p, i)
		out.X += c[0] * s
		out.Y += c[1] * s
	}
	return out
}
