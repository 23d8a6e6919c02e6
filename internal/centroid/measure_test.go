package centroid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/internal/synth"
	"github.com/jcranney/mavdac/pkg/geometry"
)

// cleanFluxThresh keeps only spots fully inside the detector: a complete
// spot integrates to roughly peak * 2*pi*sigma^2 ~ 180k, an edge-clipped one
// to much less.
const cleanFluxThresh = 100000.0

func renderFrames(t *testing.T, g *grid.Hex, jitter float64, shifts []geometry.Vec2) ([]*fits.Image, *synth.Scene) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	scene := synth.NewScene(g, 600, 600, jitter, rng)
	require.NotEmpty(t, scene.Pinholes)

	images := make([]*fits.Image, len(shifts))
	for i, s := range shifts {
		images[i] = scene.Render(s, nil, 4.0, 10000)
	}
	return images, scene
}

func TestMeasureCentersMatchSpots(t *testing.T) {
	g := grid.NewHex(150, 0, geometry.Vec2{})
	shifts := []geometry.Vec2{{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 0, Y: 8}}
	images, _ := renderFrames(t, g, 0, shifts)

	set, err := Measure(images, g, 12, cleanFluxThresh)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, set.Pinholes(), 5)
	assert.Equal(t, len(shifts), set.Shifts())

	// without jitter or distortion the measured center sits on the
	// re-registered nominal position
	for i := 0; i < set.Pinholes(); i++ {
		for j, c := range set.Pinhole(i) {
			assert.InDelta(t, c.Pos.X, c.COG.X, 0.1, "pinhole %d frame %d", i, j)
			assert.InDelta(t, c.Pos.Y, c.COG.Y, 0.1, "pinhole %d frame %d", i, j)
		}
	}
}

func TestMeasureReRegistersToMeanPosition(t *testing.T) {
	g := grid.NewHex(150, 0, geometry.Vec2{})
	shifts := []geometry.Vec2{{X: 0, Y: 0}, {X: 10, Y: -5}}
	// jitter moves the true apertures off the nominal grid
	images, _ := renderFrames(t, g, 1.5, shifts)

	set, err := Measure(images, g, 12, cleanFluxThresh)
	require.NoError(t, err)
	require.GreaterOrEqual(t, set.Pinholes(), 1)

	for i := 0; i < set.Pinholes(); i++ {
		cogs := set.Pinhole(i)
		// nominal positions of one pinhole differ between frames by exactly
		// the commanded shift difference
		d := cogs[1].Pos.Sub(cogs[0].Pos)
		assert.InDelta(t, 10.0, d.X, 1e-12)
		assert.InDelta(t, -5.0, d.Y, 1e-12)
		// and sit at the mean measured position, not the raw grid point
		mean := cogs[0].COG.Sub(shifts[0]).Add(cogs[1].COG.Sub(shifts[1])).Scale(0.5)
		assert.InDelta(t, mean.X, cogs[0].Pos.X, 1e-9)
		assert.InDelta(t, mean.Y, cogs[0].Pos.Y, 1e-9)
	}
}

func TestMeasureThresholdFiltersPinholes(t *testing.T) {
	g := grid.NewHex(150, 0, geometry.Vec2{})
	shifts := []geometry.Vec2{{X: 0, Y: 0}, {X: 8, Y: 0}}
	images, _ := renderFrames(t, g, 0, shifts)

	// a threshold above every spot's integrated flux leaves nothing
	var precond *PreconditionError
	_, err := Measure(images, g, 12, 1e12)
	require.ErrorAs(t, err, &precond)
	assert.Contains(t, precond.Error(), "no valid observations")

	// lowering the threshold keeps more pinholes
	strict, err := Measure(images, g, 12, cleanFluxThresh)
	require.NoError(t, err)
	loose, err := Measure(images, g, 12, 100.0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, loose.Pinholes(), strict.Pinholes())
}

func TestMeasureNoImages(t *testing.T) {
	g := grid.NewHex(150, 0, geometry.Vec2{})
	var precond *PreconditionError
	_, err := Measure(nil, g, 12, 100.0)
	require.ErrorAs(t, err, &precond)
}
