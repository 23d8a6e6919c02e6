// Command mavdac recovers the static distortion field of a wide-field imager
// from shifted pinhole-mask exposures and either prints the fitted
// coefficients or maps a file of query coordinates through the field.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jcranney/mavdac/internal/calib"
	"github.com/jcranney/mavdac/internal/grid"
	"github.com/jcranney/mavdac/internal/pipeline"
	"github.com/jcranney/mavdac/internal/version"
)

const (
	exitOK           = 0
	exitInput        = 1
	exitGridDeclined = 2
	exitSingularFit  = 3
)

func main() {
	gridPath := flag.String("grid", "grid.yaml", "Path to the grid definition file")
	radius := flag.Int("radius", 30, "Centroiding window radius in pixels")
	thresh := flag.Float64("thresh", 10000.0, "Minimum integrated flux for a valid centroid")
	degree := flag.Int("degree", 3, "Total degree of the polynomial distortion model")
	preview := flag.String("preview", "", "Optional path for a preview of the first frame with centroid windows drawn (.png or FITS)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mavdac [flags] <pattern> [coordinates]\n\n")
		fmt.Fprintf(os.Stderr, "  <pattern>      glob matching the calibration FITS frames\n")
		fmt.Fprintf(os.Stderr, "  [coordinates]  optional file of x,y query points, one per line\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("mavdac %s (%s)\n", version.Version, version.GitCommit)
		return
	}
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(exitInput)
	}

	os.Exit(run(flag.Arg(0), flag.Arg(1), *gridPath, *radius, *thresh, *degree, *preview))
}

func run(pattern, coordPath, gridPath string, radius int, thresh float64, degree int, preview string) int {
	g, code := resolveGrid(gridPath)
	if code != exitOK {
		return code
	}

	field, err := pipeline.Run(pipeline.Config{
		Pattern:     pattern,
		Grid:        g,
		Radius:      radius,
		FluxThresh:  thresh,
		Degree:      degree,
		PreviewPath: preview,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
		var numErr *calib.NumericalError
		if errors.As(err, &numErr) {
			return exitSingularFit
		}
		return exitInput
	}

	if coordPath == "" {
		if err := pipeline.WriteCoeffs(os.Stdout, field); err != nil {
			fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
			return exitInput
		}
		return exitOK
	}

	f, err := os.Open(coordPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
		return exitInput
	}
	defer f.Close()

	coords, err := pipeline.ParseCoordinates(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
		return exitInput
	}
	if err := pipeline.WriteEvaluations(os.Stdout, field, coords); err != nil {
		fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
		return exitInput
	}
	return exitOK
}

// resolveGrid loads the grid definition, offering to create a default hex
// grid when the file does not exist yet.
func resolveGrid(path string) (*grid.Hex, int) {
	g, err := grid.Load(path)
	if err == nil {
		return g, exitOK
	}
	if !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
		return nil, exitInput
	}

	fmt.Fprintf(os.Stderr, "grid definition %s not found, create default hex grid? [y/N] ", path)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(os.Stderr, "mavdac: aborted, no grid definition")
		return nil, exitGridDeclined
	}

	g = grid.DefaultHex()
	if err := g.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "mavdac: %v\n", err)
		return nil, exitInput
	}
	fmt.Fprintf(os.Stderr, "wrote default grid to %s\n", path)
	return g, exitOK
}
