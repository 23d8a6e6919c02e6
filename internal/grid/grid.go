// Package grid models the pinhole calibration mask: a hexagonal lattice of
// apertures described by pitch, rotation and offset, persisted as a small
// YAML definition file.
package grid

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jcranney/mavdac/pkg/geometry"
)

// Hex describes a hexagonal pinhole lattice. Pitch is the aperture spacing in
// pixels, Rotation is in radians, Offset shifts the whole lattice in pixels.
type Hex struct {
	Pitch    float64       `yaml:"pitch"`
	Rotation float64       `yaml:"rotation"`
	Offset   geometry.Vec2 `yaml:"offset"`
}

// NewHex creates a hex grid with the given geometry.
func NewHex(pitch, rotation float64, offset geometry.Vec2) *Hex {
	return &Hex{Pitch: pitch, Rotation: rotation, Offset: offset}
}

// DefaultHex returns the grid used when no definition file exists yet:
// 100 px pitch, no rotation, no offset.
func DefaultHex() *Hex {
	return NewHex(100.0, 0.0, geometry.Vec2{})
}

// Load reads a grid definition from a YAML file.
func Load(path string) (*Hex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Hex
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse grid file %s: %w", path, err)
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("grid file %s: %w", path, err)
	}
	return &g, nil
}

// Save writes the grid definition to a YAML file.
func (g *Hex) Save(path string) error {
	if err := g.validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (g *Hex) validate() error {
	if g.Pitch <= 0 {
		return fmt.Errorf("pitch must be positive, got %v", g.Pitch)
	}
	return nil
}

// AllPoints enumerates the nominal pinhole centers that land within a
// width x height detector. The lattice is built as a square integer grid,
// sheared into hex packing (x += y/2, y *= sqrt(3)/2), rotated, offset, and
// finally centered on the detector before bounds filtering.
func (g *Hex) AllPoints(width, height int) []geometry.Vec2 {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	// Enough lattice cells to cover the detector diagonal at any rotation.
	n := int(2*float64(maxDim)/g.Pitch) + 2

	sin, cos := math.Sincos(g.Rotation)
	cx := float64(width)/2 - 0.5
	cy := float64(height)/2 - 0.5

	var points []geometry.Vec2
	for i := -n; i <= n; i++ {
		for j := -n; j <= n; j++ {
			x := float64(i) * g.Pitch
			y := float64(j) * g.Pitch
			// hex packing
			x += 0.5 * y
			y *= math.Sqrt(3) / 2
			// rotate about the lattice origin
			x, y = x*cos-y*sin, x*sin+y*cos
			// lattice offset, then center on the detector
			x += g.Offset.X + cx
			y += g.Offset.Y + cy
			if x >= 0 && x < float64(width) && y >= 0 && y < float64(height) {
				points = append(points, geometry.Vec2{X: x, Y: y})
			}
		}
	}
	return points
}
