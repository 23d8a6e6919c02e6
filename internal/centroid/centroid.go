// Package centroid measures pinhole centers of gravity in calibration frames
// and assembles them into the rectangular observation table consumed by the
// calibrator.
package centroid

import (
	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/pkg/geometry"
)

// Centroid is one pinhole measurement in one frame. COG is the flux-weighted
// measured center, Pos the nominal position of the pinhole in that frame
// (registered grid position plus the frame's commanded shift).
type Centroid struct {
	COG  geometry.Vec2
	Flux float64
	Pos  geometry.Vec2
}

// COG computes the flux-weighted center of gravity of the pixels within
// radius of point. Pixels outside the circular mask or the image bounds are
// ignored. A region with zero integrated flux yields NaN coordinates, which
// the flux threshold filters out downstream.
func COG(im *fits.Image, point geometry.Vec2, radius int) Centroid {
	xc := int(point.X)
	yc := int(point.Y)

	var sumX, sumY, flux float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x := xc + dx
			y := yc + dy
			if x < 0 || x >= im.Width || y < 0 || y >= im.Height {
				continue
			}
			val := im.At(x, y)
			sumX += float64(x) * val
			sumY += float64(y) * val
			flux += val
		}
	}

	return Centroid{
		COG:  geometry.Vec2{X: sumX / flux, Y: sumY / flux},
		Flux: flux,
		Pos:  point,
	}
}
