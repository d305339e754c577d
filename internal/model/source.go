package model

import (
	"fmt"

	"eotile/internal/footprint"

	"github.com/pkg/errors"
)

// FootprintSource is anything that can name a tile and report its corners.
// Each grid scheme provides its own variant; they all share footprint.Build.
type FootprintSource interface {
	TileID() string
	Scheme() Scheme
	Corners() (footprint.CornerSet, error)
}

// S2Cell is a Sentinel-2 tile with its corners as listed in the tiling grid:
// interleaved lat, lon for the upper-left, upper-right, lower-right and
// lower-left corners.
type S2Cell struct {
	ID string
	BB [8]float64
}

func (c S2Cell) TileID() string { return c.ID }
func (S2Cell) Scheme() Scheme   { return SchemeS2 }

func (c S2Cell) Corners() (footprint.CornerSet, error) {
	return footprint.CornersFromLatLon(c.BB[:])
}

// WRS2Scene is a Landsat scene addressed by path and row.
type WRS2Scene struct {
	Path, Row      int
	UL, UR, LR, LL footprint.GeoPoint
}

func (s WRS2Scene) TileID() string { return fmt.Sprintf("%d%03d", s.Path, s.Row) }
func (WRS2Scene) Scheme() Scheme   { return SchemeL8 }

func (s WRS2Scene) Corners() (footprint.CornerSet, error) {
	if s.Path < 1 || s.Path > 233 || s.Row < 1 || s.Row > 248 {
		return footprint.CornerSet{}, errors.Wrapf(footprint.ErrMalformedInput, "path/row %d/%d outside WRS-2", s.Path, s.Row)
	}
	return footprint.NewCornerSet(s.UL, s.UR, s.LR, s.LL)
}

// DEMCell is a one degree elevation cell named after its south-west corner.
type DEMCell struct {
	Product  Scheme
	Lat, Lon int
}

func (c DEMCell) TileID() string {
	ns, ew := "N", "E"
	lat, lon := c.Lat, c.Lon
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%s%02d%s%03d", ns, lat, ew, lon)
}

func (c DEMCell) Scheme() Scheme { return c.Product }

func (c DEMCell) Corners() (footprint.CornerSet, error) {
	if c.Product != SchemeSRTM && c.Product != SchemeCOP {
		return footprint.CornerSet{}, errors.Errorf("%q is not a DEM product", c.Product)
	}
	south, west := float64(c.Lat), float64(c.Lon)
	return footprint.NewCornerSet(
		footprint.GeoPoint{Lat: south + 1, Lon: west},
		footprint.GeoPoint{Lat: south + 1, Lon: west + 1},
		footprint.GeoPoint{Lat: south, Lon: west + 1},
		footprint.GeoPoint{Lat: south, Lon: west},
	)
}

// RawSource carries corners that arrive already resolved, from the API or
// a generated grid.
type RawSource struct {
	ID     string
	Kind   Scheme
	Points []footprint.GeoPoint
}

func (r RawSource) TileID() string { return r.ID }
func (r RawSource) Scheme() Scheme { return r.Kind }

func (r RawSource) Corners() (footprint.CornerSet, error) {
	return footprint.NewCornerSet(r.Points...)
}
