package footprint

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Antimeridian is the longitude of the east side of the dateline.
const Antimeridian = 180.0

func eastCut(lat float64) orb.Point { return orb.Point{Antimeridian, lat} }
func westCut(lat float64) orb.Point { return orb.Point{-Antimeridian, lat} }

// closed turns vertices into a closed ring, dropping consecutive repeats
// such as a corner lying exactly on the cut meridian.
func closed(points ...orb.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		if len(ring) > 0 && ring[len(ring)-1].Equal(p) {
			continue
		}
		ring = append(ring, p)
	}
	if len(ring) > 1 && ring[len(ring)-1].Equal(ring[0]) {
		ring = ring[:len(ring)-1]
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// Build computes the planar footprint of a tile. Tiles crossing the
// antimeridian are split at +/-180 into an east part and a west part.
// A corner written as -180 or +180 is first moved to the side of its
// horizontal neighbour, so a tile that only touches the antimeridian is
// not split.
// Build is pure, so calling it twice on the same corners yields equal results.
func Build(c CornerSet) (Footprint, error) {
	c = c.snapToMeridian()

	crossing, err := Classify(c)
	if err != nil {
		return Footprint{}, err
	}

	tl, tr := c.At(TopLeft), c.At(TopRight)
	br, bl := c.At(BottomRight), c.At(BottomLeft)

	var rings []orb.Ring
	switch crossing.Kind {
	case CrossingNone:
		rings = []orb.Ring{closed(tl.Point(), tr.Point(), br.Point(), bl.Point())}

	case CrossingBoth:
		k1 := InterpolateCrossingLatitude(tl, tr)
		k2 := InterpolateCrossingLatitude(bl, br)
		rings = []orb.Ring{
			closed(tl.Point(), eastCut(k1), eastCut(k2), bl.Point()),
			closed(westCut(k1), tr.Point(), br.Point(), westCut(k2)),
		}

	case CrossingTop:
		switch crossing.Slant {
		case SlantForward:
			k1 := InterpolateCrossingLatitude(tl, tr)
			k2 := InterpolateCrossingLatitude(br, tr)
			rings = []orb.Ring{
				closed(tl.Point(), eastCut(k1), eastCut(k2), br.Point(), bl.Point()),
				closed(westCut(k1), tr.Point(), westCut(k2)),
			}
		case SlantBackward:
			k1 := InterpolateCrossingLatitude(tl, tr)
			k2 := InterpolateCrossingLatitude(tl, bl)
			rings = []orb.Ring{
				closed(tl.Point(), eastCut(k1), eastCut(k2)),
				closed(westCut(k1), tr.Point(), br.Point(), bl.Point(), westCut(k2)),
			}
		}

	case CrossingBottom:
		switch crossing.Slant {
		case SlantForward:
			k1 := InterpolateCrossingLatitude(bl, tl)
			k2 := InterpolateCrossingLatitude(bl, br)
			rings = []orb.Ring{
				closed(bl.Point(), eastCut(k1), eastCut(k2)),
				closed(westCut(k1), tl.Point(), tr.Point(), br.Point(), westCut(k2)),
			}
		case SlantBackward:
			k1 := InterpolateCrossingLatitude(tr, br)
			k2 := InterpolateCrossingLatitude(bl, br)
			rings = []orb.Ring{
				closed(tl.Point(), tr.Point(), eastCut(k1), eastCut(k2), bl.Point()),
				closed(westCut(k1), br.Point(), westCut(k2)),
			}
		}
	}

	if len(rings) == 0 {
		return Footprint{}, errors.Wrapf(ErrUnrecognizedCrossing, "no assembly for %s crossing", crossing)
	}

	parts := make([]orb.Polygon, len(rings))
	for i, ring := range rings {
		if err := validateRing(ring); err != nil {
			return Footprint{}, errors.WithMessagef(err, "%s part of %s crossing", partName(i, len(rings)), crossing)
		}
		parts[i] = orb.Polygon{ring}
	}

	return Footprint{crossing: crossing, parts: parts}, nil
}

func partName(i, n int) string {
	switch {
	case n == 1:
		return "single"
	case i == 0:
		return "east"
	default:
		return "west"
	}
}
