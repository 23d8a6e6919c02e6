package basis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcranney/mavdac/pkg/geometry"
)

func TestTermCount(t *testing.T) {
	// closed form (d+1)(d+2)/2 against explicit enumeration of (i,j), i+j<=d
	for d := 0; d <= 6; d++ {
		want := 0
		for i := 0; i <= d; i++ {
			for j := 0; i+j <= d; j++ {
				want++
			}
		}
		assert.Equal(t, want, TermCount(d), "degree %d", d)
	}
}

func TestTermBijectionCoversAllExponents(t *testing.T) {
	// every index maps to a unique exponent pair with total degree <= D,
	// verified by sampling: term i at (2,3) must equal 2^k * 3^(n-k)
	b, err := NewBiVarPoly(4, 2, 2) // shape 2x2 => u = x-1, v = y-1
	require.NoError(t, err)

	seen := map[[2]int]bool{}
	for i := 0; i < b.Terms(); i++ {
		var match [2]int
		found := false
		for n := 0; n <= 4 && !found; n++ {
			for k := 0; k <= n && !found; k++ {
				want := math.Pow(2, float64(k)) * math.Pow(3, float64(n-k))
				got, err := b.Sample(geometry.Vec2{X: 3, Y: 4}, i)
				require.NoError(t, err)
				if got == want {
					match = [2]int{k, n - k}
					found = true
				}
			}
		}
		require.True(t, found, "term %d matches no exponent pair", i)
		assert.False(t, seen[match], "term %d duplicates exponents %v", i, match)
		seen[match] = true
	}
	assert.Len(t, seen, TermCount(4))
}

func TestSampleIndexOutOfRange(t *testing.T) {
	b, err := NewBiVarPoly(1, 100, 100)
	require.NoError(t, err)

	_, err = b.Sample(geometry.Vec2{X: 1, Y: 1}, -1)
	assert.Error(t, err)
	_, err = b.Sample(geometry.Vec2{X: 1, Y: 1}, b.Terms())
	assert.Error(t, err)
}

func TestSampleNormalization(t *testing.T) {
	b, err := NewBiVarPoly(2, 4000, 2000)
	require.NoError(t, err)

	// detector center maps to (0,0): every non-constant term vanishes
	center := geometry.Vec2{X: 2000, Y: 1000}
	s, err := b.Sample(center, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
	for i := 1; i < b.Terms(); i++ {
		s, err := b.Sample(center, i)
		require.NoError(t, err)
		assert.Equal(t, 0.0, s, "term %d at center", i)
	}

	// detector corner maps to (-1,-1)
	s, err = b.Sample(geometry.Vec2{X: 0, Y: 0}, 2) // u^1 v^0
	require.NoError(t, err)
	assert.Equal(t, -1.0, s)
}

func TestSetCoeffsRoundTrip(t *testing.T) {
	b, err := NewBiVarPoly(2, 100, 100)
	require.NoError(t, err)

	coeffs := make([][2]float64, b.Terms())
	for i := range coeffs {
		coeffs[i] = [2]float64{0.1 * float64(i+1), -0.25 * float64(i)}
	}
	require.NoError(t, b.SetCoeffs(coeffs))
	assert.True(t, b.Trained())
	assert.Equal(t, coeffs, b.Coeffs())

	// trained model is read-only
	var shapeErr *ShapeError
	err = b.SetCoeffs(coeffs)
	require.ErrorAs(t, err, &shapeErr)
}

func TestSetCoeffsRejectsWrongShape(t *testing.T) {
	b, err := NewBiVarPoly(1, 100, 100)
	require.NoError(t, err)

	var shapeErr *ShapeError
	err = b.SetCoeffs(make([][2]float64, b.Terms()+1))
	require.ErrorAs(t, err, &shapeErr)
	assert.False(t, b.Trained())
}

func TestSetCoeffsRejectsNonFinite(t *testing.T) {
	b, err := NewBiVarPoly(0, 100, 100)
	require.NoError(t, err)

	var shapeErr *ShapeError
	err = b.SetCoeffs([][2]float64{{math.NaN(), 0}})
	require.ErrorAs(t, err, &shapeErr)

	b2, err := NewBiVarPoly(0, 100, 100)
	require.NoError(t, err)
	err = b2.SetCoeffs([][2]float64{{0, math.Inf(1)}})
	require.ErrorAs(t, err, &shapeErr)
}

func TestEvalLinearInCoefficients(t *testing.T) {
	coeffs := [][2]float64{{0.5, -1}, {2, 0.25}, {-3, 1.5}}
	scaled := make([][2]float64, len(coeffs))
	for i, c := range coeffs {
		scaled[i] = [2]float64{7 * c[0], 7 * c[1]}
	}

	b1, err := NewBiVarPoly(1, 500, 500)
	require.NoError(t, err)
	require.NoError(t, b1.SetCoeffs(coeffs))
	b7, err := NewBiVarPoly(1, 500, 500)
	require.NoError(t, err)
	require.NoError(t, b7.SetCoeffs(scaled))

	for _, p := range []geometry.Vec2{{X: 0, Y: 0}, {X: 123.4, Y: 56.7}, {X: 499, Y: 250}} {
		d1 := b1.Eval(p)
		d7 := b7.Eval(p)
		assert.InDelta(t, 7*d1.X, d7.X, 1e-12)
		assert.InDelta(t, 7*d1.Y, d7.Y, 1e-12)
	}
}

func TestEvalUntrainedIsZero(t *testing.T) {
	b, err := NewBiVarPoly(3, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec2{}, b.Eval(geometry.Vec2{X: 42, Y: 17}))
}

func TestNewBiVarPolyValidation(t *testing.T) {
	_, err := NewBiVarPoly(-1, 100, 100)
	assert.Error(t, err)
	_, err = NewBiVarPoly(2, 0, 100)
	assert.Error(t, err)
	_, err = NewBiVarPoly(2, 100, -5)
	assert.Error(t, err)
}
