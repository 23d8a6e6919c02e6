package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcranney/mavdac/internal/basis"
	"github.com/jcranney/mavdac/pkg/geometry"
)

// ParseCoordinates reads a coordinate query file: one "x,y" pair per
// non-empty line, optional trailing comma. A malformed line yields an
// InputError naming the line.
func ParseCoordinates(r io.Reader) ([]geometry.Vec2, error) {
	var coords []geometry.Vec2
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c, err := parseCoordinate(line)
		if err != nil {
			return nil, &InputError{Msg: fmt.Sprintf("coordinate line %d", lineno), Err: err}
		}
		coords = append(coords, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return coords, nil
}

func parseCoordinate(line string) (geometry.Vec2, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return geometry.Vec2{}, fmt.Errorf("expected \"x,y\", got %q", line)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return geometry.Vec2{}, fmt.Errorf("bad x-ordinate %q", fields[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return geometry.Vec2{}, fmt.Errorf("bad y-ordinate %q", fields[1])
	}
	return geometry.Vec2{X: x, Y: y}, nil
}

// WriteEvaluations evaluates the field at every query point and writes one
// "posx,posy,distx,disty" line per point, in input order.
func WriteEvaluations(w io.Writer, field basis.Model, coords []geometry.Vec2) error {
	bw := bufio.NewWriter(w)
	for _, c := range coords {
		d := field.Eval(c)
		_, err := fmt.Fprintf(bw, "%s,%s,%s,%s\n",
			formatFloat(c.X), formatFloat(c.Y), formatFloat(d.X), formatFloat(d.Y))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
