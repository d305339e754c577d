package footprint

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point returns the planar [lon, lat] point.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%g, %g)", p.Lat, p.Lon)
}

// Validate checks that both coordinates are finite and in range.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return errors.Wrapf(ErrMalformedInput, "non-finite coordinate %v", p)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return errors.Wrapf(ErrMalformedInput, "latitude %g out of range", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return errors.Wrapf(ErrMalformedInput, "longitude %g out of range", p.Lon)
	}
	return nil
}

// Corner indexes a CornerSet. Corners go clockwise from the top-left one.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	}
	return fmt.Sprintf("corner(%d)", int(c))
}

// CornerSet holds the four corners of a tile as reported by its grid.
// The top edge joins TopLeft and TopRight, the bottom edge joins
// BottomRight and BottomLeft.
type CornerSet struct {
	points [4]GeoPoint
}

// NewCornerSet validates the points and returns them as a CornerSet.
func NewCornerSet(points ...GeoPoint) (CornerSet, error) {
	if len(points) != 4 {
		return CornerSet{}, errors.Wrapf(ErrMalformedInput, "expected 4 corners, got %d", len(points))
	}

	var cs CornerSet
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return CornerSet{}, errors.WithMessagef(err, "%s corner", Corner(i))
		}
		cs.points[i] = p
	}
	return cs, nil
}

// CornersFromLatLon builds a CornerSet from interleaved lat, lon values,
// the layout used by tiling grid reference files.
func CornersFromLatLon(values []float64) (CornerSet, error) {
	if len(values) != 8 {
		return CornerSet{}, errors.Wrapf(ErrMalformedInput, "expected 8 coordinates, got %d", len(values))
	}

	points := make([]GeoPoint, 0, 4)
	for i := 0; i < len(values); i += 2 {
		points = append(points, GeoPoint{Lat: values[i], Lon: values[i+1]})
	}
	return NewCornerSet(points...)
}

// ParseCorners parses interleaved lat, lon values given as text.
func ParseCorners(values []string) (CornerSet, error) {
	coords := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return CornerSet{}, errors.Wrapf(ErrMalformedInput, "coordinate %d: %q is not a number", i, v)
		}
		coords[i] = f
	}
	return CornersFromLatLon(coords)
}

// At returns a single corner.
func (c CornerSet) At(corner Corner) GeoPoint {
	return c.points[corner]
}

// Points returns the corners in grid order.
func (c CornerSet) Points() [4]GeoPoint {
	return c.points
}

// snapToMeridian returns a copy where each corner lying on the antimeridian
// takes the sign of its neighbour on the same horizontal edge.
func (c CornerSet) snapToMeridian() CornerSet {
	edges := [2][2]Corner{{TopLeft, TopRight}, {BottomRight, BottomLeft}}
	for _, e := range edges {
		a, b := &c.points[e[0]], &c.points[e[1]]
		snapLon(a, b.Lon)
		snapLon(b, a.Lon)
	}
	return c
}

func snapLon(p *GeoPoint, neighbour float64) {
	if math.Abs(p.Lon) != Antimeridian || neighbour == 0 {
		return
	}
	p.Lon = math.Copysign(Antimeridian, neighbour)
}

// Ring returns the naive closed quadrilateral in [lon, lat] order.
func (c CornerSet) Ring() orb.Ring {
	ring := make(orb.Ring, 0, 5)
	for _, p := range c.points {
		ring = append(ring, p.Point())
	}
	return append(ring, c.points[0].Point())
}
