package render

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcranney/mavdac/internal/basis"
	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/pkg/geometry"
)

func blankFrame(width, height int) *fits.Image {
	return &fits.Image{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

func TestDrawGridCirclesAddsFlux(t *testing.T) {
	im := blankFrame(400, 400)
	g := grid.NewHex(150, 0, geometry.Vec2{})

	DrawGridCircles(im, g, 20, 100)

	total := 0.0
	for _, v := range im.Data {
		total += v
	}
	assert.Greater(t, total, 0.0)

	// circle pixels sit near radius 20 from a grid point, the center stays
	// untouched
	p := g.AllPoints(400, 400)[0]
	assert.Equal(t, 0.0, im.At(int(p.X), int(p.Y)))
}

func TestDrawGridCirclesRespectsShift(t *testing.T) {
	a := blankFrame(400, 400)
	b := blankFrame(400, 400)
	b.Shift = geometry.Vec2{X: 50, Y: 0}
	g := grid.NewHex(150, 0, geometry.Vec2{})

	DrawGridCircles(a, g, 10, 100)
	DrawGridCircles(b, g, 10, 100)

	assert.NotEqual(t, a.Data, b.Data)
}

func TestWritePNG(t *testing.T) {
	im := blankFrame(64, 32)
	for i := range im.Data {
		im.Data[i] = float64(i)
	}
	path := filepath.Join(t.TempDir(), "preview.png")
	require.NoError(t, WritePNG(im, path, 1024))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}

func TestWritePNGDownscales(t *testing.T) {
	im := blankFrame(200, 100)
	path := filepath.Join(t.TempDir(), "preview.png")
	require.NoError(t, WritePNG(im, path, 50))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 50, decoded.Bounds().Dx())
	assert.Equal(t, 25, decoded.Bounds().Dy())
}

func TestQuiverPlotWritesFigure(t *testing.T) {
	field, err := basis.NewBiVarPoly(1, 400, 400)
	require.NoError(t, err)
	require.NoError(t, field.SetCoeffs([][2]float64{{0, 0}, {0, 0.5}, {1, 0}}))

	path := filepath.Join(t.TempDir(), "field.png")
	require.NoError(t, QuiverPlot(field, 400, 400, 100, 10, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestQuiverPlotRejectsBadStep(t *testing.T) {
	field, err := basis.NewBiVarPoly(0, 400, 400)
	require.NoError(t, err)
	assert.Error(t, QuiverPlot(field, 400, 400, 0, 1, "unused.png"))
}

func TestQuiverPlotSamplesLengthMismatch(t *testing.T) {
	err := QuiverPlotSamples(
		[]geometry.Vec2{{X: 1, Y: 1}},
		nil,
		1, "unused.png")
	assert.Error(t, err)
}
