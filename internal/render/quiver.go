package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jcranney/mavdac/internal/basis"
	"github.com/jcranney/mavdac/pkg/geometry"
)

// QuiverPlot renders the fitted distortion field as displacement segments on
// a regular lattice over the detector and saves the figure to path (format
// chosen by extension, e.g. .png or .pdf). Displacements are multiplied by
// gain so that sub-pixel distortions remain visible.
func QuiverPlot(field basis.Model, width, height, step int, gain float64, path string) error {
	if step <= 0 {
		return fmt.Errorf("step must be positive, got %d", step)
	}

	p := plot.New()
	p.Title.Text = "recovered distortion field"
	p.X.Label.Text = "x (pixels)"
	p.Y.Label.Text = "y (pixels)"

	for y := step / 2; y < height; y += step {
		for x := step / 2; x < width; x += step {
			pos := geometry.Vec2{X: float64(x), Y: float64(y)}
			d := field.Eval(pos).Scale(gain)
			seg := plotter.XYs{
				{X: pos.X, Y: pos.Y},
				{X: pos.X + d.X, Y: pos.Y + d.Y},
			}
			line, err := plotter.NewLine(seg)
			if err != nil {
				return err
			}
			line.Width = vg.Points(1)
			p.Add(line)
		}
	}

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

// QuiverPlotSamples renders precomputed (position, displacement) pairs, e.g.
// from a mavdac evaluation output file.
func QuiverPlotSamples(positions, displacements []geometry.Vec2, gain float64, path string) error {
	if len(positions) != len(displacements) {
		return fmt.Errorf("positions and displacements differ in length: %d vs %d",
			len(positions), len(displacements))
	}

	p := plot.New()
	p.Title.Text = "distortion samples"
	p.X.Label.Text = "x (pixels)"
	p.Y.Label.Text = "y (pixels)"

	for i, pos := range positions {
		d := displacements[i].Scale(gain)
		seg := plotter.XYs{
			{X: pos.X, Y: pos.Y},
			{X: pos.X + d.X, Y: pos.Y + d.Y},
		}
		line, err := plotter.NewLine(seg)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
