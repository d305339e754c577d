package footprint

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Footprint is the planar extent of a tile: a single polygon, or an east and
// a west polygon when the tile straddles the antimeridian. It is never
// modified after Build returns it.
type Footprint struct {
	crossing Crossing
	parts    []orb.Polygon
}

// Crossing returns the classification the footprint was assembled from.
func (f Footprint) Crossing() Crossing {
	return f.crossing
}

// IsEmpty reports whether the footprint was never built.
func (f Footprint) IsEmpty() bool {
	return len(f.parts) == 0
}

// IsSplit reports whether the footprint was cut at the antimeridian.
func (f Footprint) IsSplit() bool {
	return len(f.parts) == 2
}

// Parts returns a copy of the component polygons, east part first.
func (f Footprint) Parts() []orb.Polygon {
	parts := make([]orb.Polygon, len(f.parts))
	for i, p := range f.parts {
		parts[i] = p.Clone()
	}
	return parts
}

// East returns the part touching +180, or the only part of an unsplit footprint.
func (f Footprint) East() orb.Polygon {
	if f.IsEmpty() {
		return nil
	}
	return f.parts[0].Clone()
}

// West returns the part touching -180.
func (f Footprint) West() (orb.Polygon, bool) {
	if !f.IsSplit() {
		return nil, false
	}
	return f.parts[1].Clone(), true
}

// Geometry returns an orb.Polygon or, for split footprints, an orb.MultiPolygon.
func (f Footprint) Geometry() orb.Geometry {
	switch len(f.parts) {
	case 0:
		return nil
	case 1:
		return f.parts[0].Clone()
	default:
		return orb.MultiPolygon(f.Parts())
	}
}

// Bound returns the axis-aligned envelope of every vertex of every part.
// Split footprints always reach -180 and +180.
func (f Footprint) Bound() orb.Bound {
	if f.IsEmpty() {
		return orb.Bound{}
	}
	b := f.parts[0].Bound()
	for _, p := range f.parts[1:] {
		b = b.Union(p.Bound())
	}
	return b
}

// PartBounds returns one envelope per part, east part first.
func (f Footprint) PartBounds() []orb.Bound {
	bounds := make([]orb.Bound, len(f.parts))
	for i, p := range f.parts {
		bounds[i] = p.Bound()
	}
	return bounds
}

// Contains reports whether a [lon, lat] point lies inside any part.
func (f Footprint) Contains(p orb.Point) bool {
	for _, part := range f.parts {
		if planar.PolygonContains(part, p) {
			return true
		}
	}
	return false
}

// Intersects reports whether any part overlaps the bound.
func (f Footprint) Intersects(b orb.Bound) bool {
	for _, part := range f.parts {
		if polygonIntersectsBound(part, b) {
			return true
		}
	}
	return false
}

func polygonIntersectsBound(p orb.Polygon, b orb.Bound) bool {
	if len(p) == 0 || !p.Bound().Intersects(b) {
		return false
	}

	shell := p[0]
	for _, v := range shell {
		if b.Contains(v) {
			return true
		}
	}

	box := b.ToRing()
	for _, v := range box {
		if planar.RingContains(shell, v) {
			return true
		}
	}

	for i := 0; i < len(shell)-1; i++ {
		for j := 0; j < len(box)-1; j++ {
			if segmentsIntersect(shell[i], shell[i+1], box[j], box[j+1]) {
				return true
			}
		}
	}
	return false
}
