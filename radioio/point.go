// Package radioio defines the data model shared by the propagation,
// lateration, nlls, robust and receiver packages: points, radio source
// identities, readings and fingerprints.
package radioio

import (
	"fmt"
	"math"

	"indoor-locator/locatorerr"
)

// Point is an inhomogeneous coordinate vector of fixed dimension (2 or 3).
type Point struct {
	coords []float64
}

// NewPoint builds a Point from its coordinates. Dimension must be 2 or 3.
func NewPoint(coords ...float64) (Point, error) {
	if len(coords) != 2 && len(coords) != 3 {
		return Point{}, locatorerr.New(locatorerr.InvalidArgument, "radioio.NewPoint",
			fmt.Errorf("point dimension must be 2 or 3, got %d", len(coords)))
	}
	cp := make([]float64, len(coords))
	copy(cp, coords)
	return Point{coords: cp}, nil
}

// MustPoint is NewPoint but panics on invalid dimension; reserved for tests
// and fixture generation where the dimension is a compile-time constant.
func MustPoint(coords ...float64) Point {
	p, err := NewPoint(coords...)
	if err != nil {
		panic(err)
	}
	return p
}

// Dim returns the point's dimensionality (2 or 3).
func (p Point) Dim() int {
	return len(p.coords)
}

// At returns the i-th coordinate.
func (p Point) At(i int) float64 {
	return p.coords[i]
}

// Coords returns a copy of the underlying coordinate slice.
func (p Point) Coords() []float64 {
	cp := make([]float64, len(p.coords))
	copy(cp, p.coords)
	return cp
}

// WithCoord returns a copy of p with coordinate i set to v.
func (p Point) WithCoord(i int, v float64) Point {
	cp := p.Coords()
	cp[i] = v
	return Point{coords: cp}
}

// Distance returns the Euclidean distance between p and q. Panics if
// dimensions differ — callers are expected to validate dimensions up front
// the way Reading/Fingerprint construction does.
func (p Point) Distance(q Point) float64 {
	if p.Dim() != q.Dim() {
		panic(fmt.Sprintf("radioio: mismatched point dimensions %d vs %d", p.Dim(), q.Dim()))
	}
	sum := 0.0
	for i := range p.coords {
		d := p.coords[i] - q.coords[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Sub returns p - q component-wise.
func (p Point) Sub(q Point) []float64 {
	out := make([]float64, p.Dim())
	for i := range p.coords {
		out[i] = p.coords[i] - q.coords[i]
	}
	return out
}

func (p Point) String() string {
	if p.Dim() == 2 {
		return fmt.Sprintf("(%.4f, %.4f)", p.coords[0], p.coords[1])
	}
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", p.coords[0], p.coords[1], p.coords[2])
}
