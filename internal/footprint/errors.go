package footprint

import "github.com/pkg/errors"

var (
	// ErrMalformedInput is returned when a corner set does not hold exactly
	// four valid coordinates.
	ErrMalformedInput = errors.New("malformed corner set")

	// ErrUnrecognizedCrossing is returned when an edge spans the antimeridian
	// but the corner longitudes match none of the known tile shapes.
	ErrUnrecognizedCrossing = errors.New("unrecognized antimeridian crossing pattern")

	// ErrDegeneratePolygon is returned when an assembled ring has fewer than
	// three distinct vertices, no area, or crossing edges.
	ErrDegeneratePolygon = errors.New("degenerate footprint polygon")
)
