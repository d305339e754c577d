package footprint

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCorners(t *testing.T, latlon ...float64) CornerSet {
	t.Helper()
	cs, err := CornersFromLatLon(latlon)
	require.NoError(t, err)
	return cs
}

// vertices drops the closing point of a ring.
func vertices(r orb.Ring) []orb.Point {
	return r[:len(r)-1]
}

func assertPoints(t *testing.T, expected []orb.Point, actual []orb.Point) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i][0], actual[i][0], 1e-9, "vertex %d lon", i)
		assert.InDelta(t, expected[i][1], actual[i][1], 1e-9, "vertex %d lat", i)
	}
}

// latsOn returns the latitudes of the ring vertices lying on the given meridian.
func latsOn(r orb.Ring, lon float64) []float64 {
	var lats []float64
	for _, p := range vertices(r) {
		if p[0] == lon {
			lats = append(lats, p[1])
		}
	}
	return lats
}

var splitCases = []struct {
	name     string
	corners  []float64
	crossing Crossing
	east     []orb.Point
	west     []orb.Point
}{
	{
		name:     "both edges",
		corners:  []float64{-16, 179.5, -16.1, -179.5, -17.1, -179.4, -17, 179.6},
		crossing: Crossing{Kind: CrossingBoth},
		east:     []orb.Point{{179.5, -16}, {180, -16.05}, {180, -17.04}, {179.6, -17}},
		west:     []orb.Point{{-180, -16.05}, {-179.5, -16.1}, {-179.4, -17.1}, {-180, -17.04}},
	},
	{
		name:     "top edge forward",
		corners:  []float64{10, 179.5, 10, -179.8, 9, 179.9, 9, 179.0},
		crossing: Crossing{Kind: CrossingTop, Slant: SlantForward},
		east:     []orb.Point{{179.5, 10}, {180, 10}, {180, 9 + 1.0/3}, {179.9, 9}, {179.0, 9}},
		west:     []orb.Point{{-180, 10}, {-179.8, 10}, {-180, 9 + 1.0/3}},
	},
	{
		name:     "top edge backward",
		corners:  []float64{10, 179.8, 10, -179.5, 9, -179.2, 9, -179.9},
		crossing: Crossing{Kind: CrossingTop, Slant: SlantBackward},
		east:     []orb.Point{{179.8, 10}, {180, 10}, {180, 10 - 2.0/3}},
		west:     []orb.Point{{-180, 10}, {-179.5, 10}, {-179.2, 9}, {-179.9, 9}, {-180, 10 - 2.0/3}},
	},
	{
		name:     "bottom edge forward",
		corners:  []float64{10, -179.9, 10, -179.2, 9, -179.5, 9, 179.8},
		crossing: Crossing{Kind: CrossingBottom, Slant: SlantForward},
		east:     []orb.Point{{179.8, 9}, {180, 9 + 2.0/3}, {180, 9}},
		west:     []orb.Point{{-180, 9 + 2.0/3}, {-179.9, 10}, {-179.2, 10}, {-179.5, 9}, {-180, 9}},
	},
	{
		name:     "bottom edge backward",
		corners:  []float64{10, 179.2, 10, 179.9, 9, -179.8, 9, 179.5},
		crossing: Crossing{Kind: CrossingBottom, Slant: SlantBackward},
		east:     []orb.Point{{179.2, 10}, {179.9, 10}, {180, 10 - 1.0/3}, {180, 9}, {179.5, 9}},
		west:     []orb.Point{{-180, 10 - 1.0/3}, {-179.8, 9}, {-180, 9}},
	},
}

func TestBuildNoCrossing(t *testing.T) {
	cs := mustCorners(t, 10, -90, 10, -85, 5, -85, 5, -90)

	fp, err := Build(cs)
	require.NoError(t, err)

	assert.False(t, fp.IsSplit())
	assert.Equal(t, Crossing{Kind: CrossingNone}, fp.Crossing())

	parts := fp.Parts()
	require.Len(t, parts, 1)
	require.Len(t, parts[0], 1)
	assert.Equal(t, cs.Ring(), parts[0][0])
	assert.Len(t, vertices(parts[0][0]), 4)

	_, ok := fp.Geometry().(orb.Polygon)
	assert.True(t, ok)
}

func TestBuildSplitCases(t *testing.T) {
	for _, tc := range splitCases {
		t.Run(tc.name, func(t *testing.T) {
			fp, err := Build(mustCorners(t, tc.corners...))
			require.NoError(t, err)

			assert.Equal(t, tc.crossing, fp.Crossing())
			require.True(t, fp.IsSplit())

			west, ok := fp.West()
			require.True(t, ok)
			assertPoints(t, tc.east, vertices(fp.East()[0]))
			assertPoints(t, tc.west, vertices(west[0]))

			mp, ok := fp.Geometry().(orb.MultiPolygon)
			require.True(t, ok)
			assert.Len(t, mp, 2)
		})
	}
}

func TestBuildSplitPartsAreSimpleAndClockwise(t *testing.T) {
	for _, tc := range splitCases {
		t.Run(tc.name, func(t *testing.T) {
			fp, err := Build(mustCorners(t, tc.corners...))
			require.NoError(t, err)

			for i, part := range fp.Parts() {
				ring := part[0]
				assert.True(t, ring.Closed(), "part %d closed", i)
				assert.Equal(t, orb.CW, ring.Orientation(), "part %d winding", i)
				assert.NoError(t, validateRing(ring), "part %d simple", i)
			}
		})
	}
}

func TestBuildSplitCoversMeridianWithoutGap(t *testing.T) {
	for _, tc := range splitCases {
		t.Run(tc.name, func(t *testing.T) {
			cs := mustCorners(t, tc.corners...)
			fp, err := Build(cs)
			require.NoError(t, err)

			eastBound, westBound := fp.PartBounds()[0], fp.PartBounds()[1]
			assert.Equal(t, 180.0, eastBound.Max[0])
			assert.Equal(t, -180.0, westBound.Min[0])

			westmost, eastmost := 180.0, -180.0
			for _, p := range cs.Points() {
				if p.Lon > 0 {
					westmost = min(westmost, p.Lon)
				} else {
					eastmost = max(eastmost, p.Lon)
				}
			}
			assert.Equal(t, westmost, eastBound.Min[0])
			assert.Equal(t, eastmost, westBound.Max[0])

			west, _ := fp.West()
			assert.Equal(t, latsOn(fp.East()[0], 180), latsOn(west[0], -180))
		})
	}
}

func TestBuildSplitBoundTouchesDateline(t *testing.T) {
	for _, tc := range splitCases {
		t.Run(tc.name, func(t *testing.T) {
			fp, err := Build(mustCorners(t, tc.corners...))
			require.NoError(t, err)

			b := fp.Bound()
			assert.True(t, b.Min[0] <= -179 || b.Max[0] >= 179)

			for _, pb := range fp.PartBounds() {
				assert.LessOrEqual(t, pb.Max[0]-pb.Min[0], 1.0)
			}
		})
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	for _, tc := range splitCases {
		cs := mustCorners(t, tc.corners...)
		first, err := Build(cs)
		require.NoError(t, err)
		second, err := Build(cs)
		require.NoError(t, err)
		assert.Equal(t, first, second, tc.name)
	}
}

func TestBuildDatelineScenario(t *testing.T) {
	// Corner longitudes 179.5, -179.5, -179.0, 179.0: both horizontal edges
	// wrap, the east part keeps the original top-left corner.
	cs := mustCorners(t, 20, 179.5, 20, -179.5, 19, -179.0, 19, 179.0)

	fp, err := Build(cs)
	require.NoError(t, err)
	assert.Equal(t, CrossingBoth, fp.Crossing().Kind)
	assert.Contains(t, vertices(fp.East()[0]), orb.Point{179.5, 20})
}

func TestBuildTopCrossingKeepsEastCorner(t *testing.T) {
	cs := mustCorners(t, 10, 179.5, 10, -179.8, 9, 179.9, 9, 179.0)

	fp, err := Build(cs)
	require.NoError(t, err)
	assert.Equal(t, CrossingTop, fp.Crossing().Kind)
	assert.Contains(t, vertices(fp.East()[0]), orb.Point{179.5, 10})
}

func TestBuildUnrecognizedCrossing(t *testing.T) {
	cases := map[string][]float64{
		"both edges reversed":  {10, -179.5, 10, 179.5, 9, 179.5, 9, -179.5},
		"top edge reversed":    {10, -179.5, 10, 179.5, 9, 179.6, 9, 179.0},
		"bottom edge reversed": {10, 179.0, 10, 179.6, 9, 179.5, 9, -179.5},
	}
	for name, corners := range cases {
		t.Run(name, func(t *testing.T) {
			fp, err := Build(mustCorners(t, corners...))
			require.ErrorIs(t, err, ErrUnrecognizedCrossing)
			assert.True(t, fp.IsEmpty())
		})
	}
}

func TestBuildDegenerate(t *testing.T) {
	cases := map[string][]float64{
		"single point":       {1, 1, 1, 1, 1, 1, 1, 1},
		"collinear":          {0, 0, 1, 0, 2, 0, 3, 0},
		"bowtie":             {10, 0, 10, 1, 9, 0, 9, 1},
		"zero width meridian": {10, 180, 10, -180, 9, -180, 9, 180},
	}
	for name, corners := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(mustCorners(t, corners...))
			require.ErrorIs(t, err, ErrDegeneratePolygon)
		})
	}
}

func TestBuildCornersOnMeridian(t *testing.T) {
	cases := []struct {
		name    string
		corners []float64
		bound   orb.Bound
	}{
		{
			name:    "east edge written as -180",
			corners: []float64{10, 179, 10, -180, 9, -180, 9, 179},
			bound:   orb.Bound{Min: orb.Point{179, 9}, Max: orb.Point{180, 10}},
		},
		{
			name:    "west edge written as +180",
			corners: []float64{10, 180, 10, -179.5, 9, -179.5, 9, 180},
			bound:   orb.Bound{Min: orb.Point{-180, 9}, Max: orb.Point{-179.5, 10}},
		},
		{
			name:    "one corner on the meridian",
			corners: []float64{10, 179, 10, -180, 9, 180, 9, 179},
			bound:   orb.Bound{Min: orb.Point{179, 9}, Max: orb.Point{180, 10}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cs := mustCorners(t, tc.corners...)
			fp, err := Build(cs)
			require.NoError(t, err)
			assert.Equal(t, CrossingNone, fp.Crossing().Kind)
			assert.False(t, fp.IsSplit())
			assert.Equal(t, tc.bound, fp.Bound())

			// the corner set itself is left as given
			assert.Equal(t, tc.corners[3], cs.At(TopRight).Lon)
		})
	}
}

func TestBuildMeridianCornerInSplitTile(t *testing.T) {
	// the top edge ends on the meridian, only the bottom edge crosses
	fp, err := Build(mustCorners(t, 10, 179, 10, -180, 9, -179.5, 9, 179.2))
	require.NoError(t, err)
	assert.Equal(t, Crossing{Kind: CrossingBottom, Slant: SlantBackward}, fp.Crossing())
	assert.True(t, fp.IsSplit())
	assert.Equal(t, 180.0, fp.East()[0].Bound().Max[0])
}
