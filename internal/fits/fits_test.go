package fits

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcranney/mavdac/pkg/geometry"
)

func testFrame(width, height int, shift geometry.Vec2) *Image {
	im := &Image{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
		Shift:  shift,
	}
	for i := range im.Data {
		im.Data[i] = float64(i) * 0.5
	}
	return im
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.fits")
	im := testFrame(16, 9, geometry.Vec2{X: 12.5, Y: -3.0})
	require.NoError(t, im.Write(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, im.Width, got.Width)
	assert.Equal(t, im.Height, got.Height)
	assert.Equal(t, im.Shift, got.Shift)
	assert.Equal(t, im.Data, got.Data)
}

func TestAtIndexesRowMajor(t *testing.T) {
	im := testFrame(4, 3, geometry.Vec2{})
	assert.Equal(t, im.Data[2*4+3], im.At(3, 2))
}

func TestLoadImagesNoMatches(t *testing.T) {
	_, err := LoadImages(filepath.Join(t.TempDir(), "img_*.fits"))
	assert.True(t, errors.Is(err, ErrNoMatches))
}

func TestLoadImagesOrderedByPath(t *testing.T) {
	dir := t.TempDir()
	shifts := []geometry.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	for i, s := range shifts {
		im := testFrame(8, 8, s)
		require.NoError(t, im.Write(filepath.Join(dir, "img_"+string(rune('0'+i))+".fits")))
	}

	imgs, err := LoadImages(filepath.Join(dir, "img_*.fits"))
	require.NoError(t, err)
	require.Len(t, imgs, len(shifts))
	for i, im := range imgs {
		assert.Equal(t, shifts[i], im.Shift, "frame %d out of order", i)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.fits"))
	assert.Error(t, err)
}
