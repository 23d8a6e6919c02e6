// Package render produces diagnostic imagery: grid-alignment overlays on
// calibration frames, PNG previews, and quiver plots of a fitted distortion
// field.
package render

import (
	"math"

	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/internal/grid"
)

// DrawGridCircles adds val to the pixels on a circle of the given radius
// around every grid point (shifted by the frame's commanded shift), so the
// centroiding windows can be checked against the recorded spots by eye.
func DrawGridCircles(im *fits.Image, g *grid.Hex, radius, val float64) {
	const nTheta = 1000
	for _, p := range g.AllPoints(im.Width, im.Height) {
		c := p.Add(im.Shift)
		for i := 0; i < nTheta; i++ {
			theta := 2 * math.Pi * float64(i) / nTheta
			x := int(c.X + radius*math.Cos(theta))
			y := int(c.Y + radius*math.Sin(theta))
			if x < 0 || x >= im.Width || y < 0 || y >= im.Height {
				continue
			}
			im.Data[y*im.Width+x] += val
		}
	}
}
