package footprint

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// minRingArea is the smallest accepted ring area, in square degrees.
const minRingArea = 1e-12

// validateRing rejects closed rings that cannot serve as a polygon shell.
func validateRing(r orb.Ring) error {
	if len(r) < 4 {
		return errors.Wrapf(ErrDegeneratePolygon, "ring has %d vertices", len(r))
	}

	vertices := r[:len(r)-1]
	distinct := make(map[orb.Point]struct{}, len(vertices))
	for _, p := range vertices {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return errors.Wrapf(ErrDegeneratePolygon, "ring has %d distinct vertices", len(distinct))
	}

	if area := planar.Area(orb.Polygon{r}); area < minRingArea {
		return errors.Wrapf(ErrDegeneratePolygon, "ring area %g", area)
	}

	n := len(vertices)
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return errors.Wrapf(ErrDegeneratePolygon, "edges %d and %d intersect", i, j)
			}
		}
	}
	return nil
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// onSegment reports whether q, known to be collinear with p and r, lies on pr.
func onSegment(p, q, r orb.Point) bool {
	return q[0] >= min(p[0], r[0]) && q[0] <= max(p[0], r[0]) &&
		q[1] >= min(p[1], r[1]) && q[1] <= max(p[1], r[1])
}

// segmentsIntersect reports whether segments p1p2 and p3p4 share any point.
func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(p3, p1, p4):
		return true
	case d2 == 0 && onSegment(p3, p2, p4):
		return true
	case d3 == 0 && onSegment(p1, p3, p2):
		return true
	case d4 == 0 && onSegment(p1, p4, p2):
		return true
	}
	return false
}
