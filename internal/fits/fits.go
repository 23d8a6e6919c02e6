// Package fits provides loading and saving of calibration frames stored as
// FITS files. Each frame carries the commanded mask shift in its header
// (XSHIFT/YSHIFT, pixels), which downstream measurement relies on.
package fits

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/astrogo/fitsio"
	"golang.org/x/sync/errgroup"

	"github.com/jcranney/mavdac/pkg/geometry"
)

// ErrNoMatches is returned by LoadImages when the glob pattern matches no files.
var ErrNoMatches = errors.New("no files match pattern")

// Image is a single calibration frame with its pixel data flattened row-major
// (Data[y*Width+x]) and the commanded mask shift read from the FITS header.
type Image struct {
	Data   []float64
	Width  int
	Height int
	Shift  geometry.Vec2
	Path   string
}

// At returns the pixel value at (x, y). Callers must stay in bounds.
func (im *Image) At(x, y int) float64 {
	return im.Data[y*im.Width+x]
}

// Load reads a single FITS frame from disk. The primary HDU must be a
// two-dimensional image and its header must carry XSHIFT and YSHIFT.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fit, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("open fits %s: %w", path, err)
	}
	defer fit.Close()

	hdu := fit.HDU(0)
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%s: primary HDU is not an image", path)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) != 2 {
		return nil, fmt.Errorf("%s: expected NAXIS==2, got %d", path, len(axes))
	}
	width, height := axes[0], axes[1]
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%s: invalid image shape %dx%d", path, width, height)
	}

	xshift, err := headerFloat(hdr, "XSHIFT")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	yshift, err := headerFloat(hdr, "YSHIFT")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	data, err := readPixels(img, hdr.Bitpix(), width*height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Image{
		Data:   data,
		Width:  width,
		Height: height,
		Shift:  geometry.Vec2{X: xshift, Y: yshift},
		Path:   path,
	}, nil
}

// readPixels reads the image data for any of the standard BITPIX encodings
// and converts it to float64.
func readPixels(img fitsio.Image, bitpix, n int) ([]float64, error) {
	out := make([]float64, n)
	switch bitpix {
	case 8:
		raw := make([]int8, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case -64:
		if err := img.Read(&out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	return out, nil
}

// headerFloat extracts a numeric header card as float64.
func headerFloat(hdr *fitsio.Header, key string) (float64, error) {
	card := hdr.Get(key)
	if card == nil {
		return 0, fmt.Errorf("missing %s in fits header", key)
	}
	switch v := card.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s in fits header must be float or int, got %T", key, card.Value)
	}
}

// Write saves the frame as a 64-bit float FITS file with the shift recorded
// in the header.
func (im *Image) Write(path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	fit, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("create fits %s: %w", path, err)
	}
	defer fit.Close()

	img := fitsio.NewImage(-64, []int{im.Width, im.Height})
	defer img.Close()

	err = img.Header().Append(
		fitsio.Card{Name: "XSHIFT", Value: im.Shift.X, Comment: "commanded mask shift in x (pixels)"},
		fitsio.Card{Name: "YSHIFT", Value: im.Shift.Y, Comment: "commanded mask shift in y (pixels)"},
	)
	if err != nil {
		return fmt.Errorf("write fits header %s: %w", path, err)
	}
	if err := img.Write(&im.Data); err != nil {
		return fmt.Errorf("write fits data %s: %w", path, err)
	}
	return fit.Write(img)
}

// LoadImages loads every frame matching the glob pattern, in lexical path
// order so that shift-image indices are stable across runs. Frames are
// decoded in parallel.
func LoadImages(pattern string) ([]*Image, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatches, pattern)
	}

	imgs := make([]*Image, len(matches))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range matches {
		i, path := i, path
		g.Go(func() error {
			im, err := Load(path)
			if err != nil {
				return err
			}
			imgs[i] = im
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return imgs, nil
}
