package footprint

import (
	"math"

	"github.com/pkg/errors"
)

// CrossingThreshold is the longitude delta above which an edge is taken to
// wrap through the antimeridian rather than span the globe.
const CrossingThreshold = 355.0

// CrossingKind tells which horizontal edges of a tile cross the antimeridian.
type CrossingKind int

const (
	CrossingNone CrossingKind = iota
	CrossingTop
	CrossingBottom
	CrossingBoth
)

func (k CrossingKind) String() string {
	switch k {
	case CrossingNone:
		return "none"
	case CrossingTop:
		return "top"
	case CrossingBottom:
		return "bottom"
	case CrossingBoth:
		return "both"
	}
	return "unknown"
}

// Slant is the shape of a tile whose top or bottom edge alone crosses the
// antimeridian. It picks the corners used to interpolate the cut points.
type Slant int

const (
	SlantNone Slant = iota
	// SlantForward is a /_/ parallelogram: the top edge sits east of the bottom one.
	SlantForward
	// SlantBackward is a \_\ parallelogram: the bottom edge sits east of the top one.
	SlantBackward
)

func (s Slant) String() string {
	switch s {
	case SlantNone:
		return "none"
	case SlantForward:
		return "forward"
	case SlantBackward:
		return "backward"
	}
	return "unknown"
}

// Crossing is the full classification of a corner set.
type Crossing struct {
	Kind  CrossingKind
	Slant Slant
}

func (c Crossing) String() string {
	if c.Slant == SlantNone {
		return c.Kind.String()
	}
	return c.Kind.String() + "/" + c.Slant.String()
}

func edgeCrosses(a, b GeoPoint) bool {
	return math.Abs(a.Lon-b.Lon) > CrossingThreshold
}

// DetectCrossing reports which horizontal edges wrap through the antimeridian.
func DetectCrossing(c CornerSet) CrossingKind {
	top := edgeCrosses(c.At(TopLeft), c.At(TopRight))
	bottom := edgeCrosses(c.At(BottomRight), c.At(BottomLeft))

	switch {
	case top && bottom:
		return CrossingBoth
	case top:
		return CrossingTop
	case bottom:
		return CrossingBottom
	default:
		return CrossingNone
	}
}

// Classify detects the crossing kind and, for partial crossings, the slant.
// Corner sign combinations that match no known shape are rejected.
func Classify(c CornerSet) (Crossing, error) {
	east := func(corner Corner) bool { return c.At(corner).Lon > 0 }

	kind := DetectCrossing(c)
	switch kind {
	case CrossingNone:
		return Crossing{Kind: kind}, nil
	case CrossingBoth:
		if east(TopLeft) && east(BottomLeft) && !east(TopRight) && !east(BottomRight) {
			return Crossing{Kind: kind}, nil
		}
	case CrossingTop:
		switch {
		case east(BottomRight) && !east(TopRight):
			return Crossing{Kind: kind, Slant: SlantForward}, nil
		case east(TopLeft) && !east(BottomLeft):
			return Crossing{Kind: kind, Slant: SlantBackward}, nil
		}
	case CrossingBottom:
		switch {
		case east(BottomLeft) && !east(TopLeft):
			return Crossing{Kind: kind, Slant: SlantForward}, nil
		case east(TopRight) && !east(BottomRight):
			return Crossing{Kind: kind, Slant: SlantBackward}, nil
		}
	}

	return Crossing{Kind: kind}, errors.Wrapf(ErrUnrecognizedCrossing,
		"%s edge crossing with corner longitudes %g, %g, %g, %g", kind,
		c.At(TopLeft).Lon, c.At(TopRight).Lon, c.At(BottomRight).Lon, c.At(BottomLeft).Lon)
}

// InterpolateCrossingLatitude returns the latitude at which the straight
// edge from east (stored longitude near +180) to west (near -180) meets the
// antimeridian.
func InterpolateCrossingLatitude(east, west GeoPoint) float64 {
	span := 360 - east.Lon + west.Lon
	if span <= 0 {
		return east.Lat
	}
	fraction := (180 - east.Lon) / span
	return east.Lat + fraction*(west.Lat-east.Lat)
}
