// Package synth renders synthetic calibration frames: Gaussian pinhole spots
// on a hex grid with optional per-pinhole placement error and a known
// distortion field. It backs the simulate tool and the end-to-end tests.
package synth

import (
	"math"
	"math/rand"

	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/pkg/geometry"
)

// Scene holds the true pinhole positions of a simulated mask. Each position
// is the nominal grid point plus a fixed manufacturing error that persists
// across every frame rendered from the scene.
type Scene struct {
	Width    int
	Height   int
	Pinholes []geometry.Vec2
}

// NewScene samples the grid over a width x height detector and perturbs each
// pinhole by a Gaussian placement error with the given standard deviation in
// pixels.
func NewScene(g *grid.Hex, width, height int, jitter float64, rng *rand.Rand) *Scene {
	points := g.AllPoints(width, height)
	pinholes := make([]geometry.Vec2, len(points))
	for i, p := range points {
		pinholes[i] = geometry.Vec2{
			X: p.X + jitter*rng.NormFloat64(),
			Y: p.Y + jitter*rng.NormFloat64(),
		}
	}
	return &Scene{Width: width, Height: height, Pinholes: pinholes}
}

// Render produces one frame with the mask at the given commanded shift.
// Every pinhole appears as a Gaussian spot of the given full width at half
// maximum and peak value, displaced by distort evaluated at the spot's
// shifted position. distort may be nil for an undistorted frame.
func (s *Scene) Render(shift geometry.Vec2, distort func(geometry.Vec2) geometry.Vec2, fwhm, peak float64) *fits.Image {
	im := &fits.Image{
		Data:   make([]float64, s.Width*s.Height),
		Width:  s.Width,
		Height: s.Height,
		Shift:  shift,
	}

	sigma := fwhm / (2 * math.Sqrt(2*math.Ln2))
	window := int(4*sigma) + 1

	for _, p := range s.Pinholes {
		c := p.Add(shift)
		if distort != nil {
			c = c.Add(distort(c))
		}
		x0 := int(c.X) - window
		x1 := int(c.X) + window
		y0 := int(c.Y) - window
		y1 := int(c.Y) + window
		for y := y0; y <= y1; y++ {
			if y < 0 || y >= s.Height {
				continue
			}
			for x := x0; x <= x1; x++ {
				if x < 0 || x >= s.Width {
					continue
				}
				dx := float64(x) - c.X
				dy := float64(y) - c.Y
				im.Data[y*s.Width+x] += peak * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			}
		}
	}
	return im
}
