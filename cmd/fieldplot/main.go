// Command fieldplot renders a quiver plot of distortion samples produced by
// mavdac (posx,posy,distx,disty lines), or of a freshly calibrated field
// when given a frame pattern instead of an evaluation file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/internal/pipeline"
	"github.com/jcranney/mavdac/internal/render"
	"github.com/jcranney/mavdac/pkg/geometry"
)

func main() {
	evalPath := flag.String("eval", "", "mavdac evaluation output file to plot")
	pattern := flag.String("pattern", "", "Calibration frame glob to fit and plot instead of -eval")
	gridPath := flag.String("grid", "grid.yaml", "Grid definition file (with -pattern)")
	radius := flag.Int("radius", 30, "Centroiding window radius in pixels (with -pattern)")
	thresh := flag.Float64("thresh", 10000.0, "Minimum integrated flux (with -pattern)")
	degree := flag.Int("degree", 3, "Polynomial degree (with -pattern)")
	step := flag.Int("step", 200, "Quiver lattice spacing in pixels (with -pattern)")
	gain := flag.Float64("gain", 50.0, "Displacement magnification for visibility")
	out := flag.String("o", "field.png", "Output figure path")
	flag.Parse()

	switch {
	case *evalPath != "":
		if err := plotEvalFile(*evalPath, *gain, *out); err != nil {
			log.Fatal(err)
		}
	case *pattern != "":
		if err := plotFit(*pattern, *gridPath, *radius, *thresh, *degree, *step, *gain, *out); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Fprintln(os.Stderr, "fieldplot: need -eval or -pattern")
		flag.Usage()
		os.Exit(1)
	}
	log.Printf("wrote %s", *out)
}

func plotEvalFile(path string, gain float64, out string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var positions, displacements []geometry.Vec2
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			return fmt.Errorf("expected posx,posy,distx,disty, got %q", line)
		}
		vals := make([]float64, 4)
		for i := range vals {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
			if err != nil {
				return fmt.Errorf("bad value in %q: %w", line, err)
			}
		}
		positions = append(positions, geometry.Vec2{X: vals[0], Y: vals[1]})
		displacements = append(displacements, geometry.Vec2{X: vals[2], Y: vals[3]})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return render.QuiverPlotSamples(positions, displacements, gain, out)
}

func plotFit(pattern, gridPath string, radius int, thresh float64, degree, step int, gain float64, out string) error {
	g, err := grid.Load(gridPath)
	if err != nil {
		return err
	}
	field, err := pipeline.Run(pipeline.Config{
		Pattern:    pattern,
		Grid:       g,
		Radius:     radius,
		FluxThresh: thresh,
		Degree:     degree,
	})
	if err != nil {
		return err
	}
	w, h := field.RefShape()
	return render.QuiverPlot(field, w, h, step, gain, out)
}
