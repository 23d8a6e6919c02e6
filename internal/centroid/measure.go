package centroid

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/pkg/geometry"
)

// Measure computes a centroid for every (pinhole, frame) pair and returns the
// rectangular observation table. A pinhole is kept only if its integrated
// flux exceeds fluxThresh in every frame; a pinhole that drops below the
// threshold in any frame is discarded entirely, preserving the rectangular
// structure.
//
// The kept pinholes' nominal positions are re-registered to the mean measured
// position across frames (after removing each frame's commanded shift), so
// the nominal grid only has to locate the measurement window, not predict the
// exact aperture position.
func Measure(images []*fits.Image, g *grid.Hex, radius int, fluxThresh float64) (*ObservationSet, error) {
	if len(images) == 0 {
		return nil, &PreconditionError{Msg: "no images to measure"}
	}
	pinholes := g.AllPoints(images[0].Width, images[0].Height)

	rows := make([][]Centroid, len(pinholes))
	var grp errgroup.Group
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i, pinhole := range pinholes {
		i, pinhole := i, pinhole
		grp.Go(func() error {
			cogs := make([]Centroid, len(images))
			for j, im := range images {
				cogs[j] = COG(im, pinhole.Add(im.Shift), radius)
				if !(cogs[j].Flux > fluxThresh) {
					return nil // pinhole too faint in this frame, drop it
				}
			}
			rows[i] = cogs
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	var kept [][]Centroid
	for _, cogs := range rows {
		if cogs == nil {
			continue
		}
		registerPinhole(cogs, images)
		kept = append(kept, cogs)
	}
	return NewObservationSet(kept)
}

// registerPinhole replaces the nominal positions of one pinhole's
// observations with the mean measured position across all frames, carried
// back into each frame by its commanded shift. The residual registration
// error of this mean is constant per pinhole and cancels in the differential
// fit.
func registerPinhole(cogs []Centroid, images []*fits.Image) {
	var mean geometry.Vec2
	for j, im := range images {
		mean = mean.Add(cogs[j].COG.Sub(im.Shift))
	}
	mean = mean.Scale(1 / float64(len(images)))
	for j, im := range images {
		cogs[j].Pos = mean.Add(im.Shift)
	}
}
