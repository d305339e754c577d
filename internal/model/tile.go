package model

import (
	"fmt"
	"time"

	"eotile/internal/footprint"
	"eotile/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// Tile is one cell of a tiling grid together with its planar footprint.
// A Tile is not safe for concurrent mutation; services replace tiles
// instead of calling SetCorners on shared ones.
type Tile struct {
	ID        string
	Scheme    Scheme
	UpdatedAt time.Time

	corners   footprint.CornerSet
	footprint footprint.Footprint
}

// EdgeLengths holds the geodesic length of each tile side in meters.
type EdgeLengths struct {
	Top, Bottom, Left, Right float64
}

// NewTile resolves the source corners and builds the tile footprint.
func NewTile(src FootprintSource) (*Tile, error) {
	if src.TileID() == "" {
		return nil, errors.Wrap(footprint.ErrMalformedInput, "empty tile id")
	}

	corners, err := src.Corners()
	if err != nil {
		return nil, errors.WithMessagef(err, "tile %s", src.TileID())
	}

	t := &Tile{ID: src.TileID(), Scheme: src.Scheme()}
	if err := t.SetCorners(corners); err != nil {
		return nil, err
	}
	return t, nil
}

// SetCorners replaces the corners and the footprint built from them.
// On failure the tile keeps its previous state.
func (t *Tile) SetCorners(corners footprint.CornerSet) error {
	fp, err := footprint.Build(corners)
	if err != nil {
		return errors.WithMessagef(err, "tile %s", t.ID)
	}

	t.corners = corners
	t.footprint = fp
	t.UpdatedAt = time.Now()
	return nil
}

func (t *Tile) Corners() footprint.CornerSet {
	return t.corners
}

func (t *Tile) Footprint() footprint.Footprint {
	return t.footprint
}

// BoundingBox is derived from the current footprint on every call.
func (t *Tile) BoundingBox() orb.Bound {
	return t.footprint.Bound()
}

// AreaKm2 returns the geodesic area of the footprint.
func (t *Tile) AreaKm2() float64 {
	g := t.footprint.Geometry()
	if g == nil {
		return 0
	}
	return geo.Area(g) / 1e6
}

// EdgeLengths measures the tile sides along great circles.
func (t *Tile) EdgeLengths() EdgeLengths {
	tl, tr := t.corners.At(footprint.TopLeft), t.corners.At(footprint.TopRight)
	br, bl := t.corners.At(footprint.BottomRight), t.corners.At(footprint.BottomLeft)

	return EdgeLengths{
		Top:    util.HaversineDistance(tl.Lat, tl.Lon, tr.Lat, tr.Lon),
		Bottom: util.HaversineDistance(bl.Lat, bl.Lon, br.Lat, br.Lon),
		Left:   util.HaversineDistance(tl.Lat, tl.Lon, bl.Lat, bl.Lon),
		Right:  util.HaversineDistance(tr.Lat, tr.Lon, br.Lat, br.Lon),
	}
}

func (t *Tile) String() string {
	return fmt.Sprintf("%s tile %s (%s crossing)", t.Scheme, t.ID, t.footprint.Crossing())
}
