// Package pipeline sequences one calibration run: load frames, measure
// centroids against the grid, fit the distortion model, and hand back the
// trained field. Any step's failure aborts the run; there are no partial
// results.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jcranney/mavdac/internal/basis"
	"github.com/jcranney/mavdac/internal/calib"
	"github.com/jcranney/mavdac/internal/centroid"
	"github.com/jcranney/mavdac/internal/fits"
	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/internal/render"
)

// InputError reports unusable user input, such as a glob pattern matching no
// files or a malformed coordinate line.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Config carries every knob of one calibration run. The grid is resolved by
// the caller (the CLI may prompt before creating a default one).
type Config struct {
	// Pattern is the glob matching the calibration frames.
	Pattern string
	// Grid is the pinhole mask layout.
	Grid *grid.Hex
	// Radius is the centroiding window radius in pixels.
	Radius int
	// FluxThresh is the minimum integrated flux for a valid centroid.
	FluxThresh float64
	// Degree is the total degree of the polynomial distortion model.
	Degree int
	// PreviewPath, when set, receives a copy of the first frame with the
	// centroiding windows drawn on it, for visual grid alignment checks.
	// A .png extension selects a stretched PNG instead of FITS.
	PreviewPath string
}

// Run executes one calibration and returns the trained distortion field.
func Run(cfg Config) (*basis.BiVarPoly, error) {
	if cfg.Grid == nil {
		return nil, &InputError{Msg: "no grid model configured"}
	}

	images, err := fits.LoadImages(cfg.Pattern)
	if err != nil {
		if errors.Is(err, fits.ErrNoMatches) {
			return nil, &InputError{Msg: "no calibration frames", Err: err}
		}
		return nil, err
	}

	obs, err := centroid.Measure(images, cfg.Grid, cfg.Radius, cfg.FluxThresh)
	if err != nil {
		return nil, err
	}

	model, err := basis.NewBiVarPoly(cfg.Degree, images[0].Width, images[0].Height)
	if err != nil {
		return nil, err
	}
	if err := calib.Fit(obs, model); err != nil {
		return nil, err
	}

	if cfg.PreviewPath != "" {
		preview := *images[0]
		preview.Data = append([]float64(nil), images[0].Data...)
		render.DrawGridCircles(&preview, cfg.Grid, float64(cfg.Radius), previewCircleValue(&preview))
		if err := writePreview(&preview, cfg.PreviewPath); err != nil {
			return nil, fmt.Errorf("write preview: %w", err)
		}
	}
	return model, nil
}

// writePreview saves the annotated frame, as a stretched PNG when the path
// asks for one and as full-depth FITS otherwise.
func writePreview(im *fits.Image, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return render.WritePNG(im, path, 2048)
	}
	return im.Write(path)
}

// previewCircleValue picks an overlay brightness that stands out against the
// frame content.
func previewCircleValue(im *fits.Image) float64 {
	var max float64
	for _, v := range im.Data {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return 1
	}
	return max / 2
}
