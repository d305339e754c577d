// Package grid generates fixed-size tiles over a lat/lon region, including
// regions that wrap across the antimeridian.
package grid

import (
	"fmt"
	"math"

	"eotile/internal/footprint"
	"eotile/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// maxTileDegrees keeps generated tiles well below the crossing threshold.
const maxTileDegrees = 90.0

// Region is a lat/lon box. West > East means the box wraps across the
// antimeridian.
type Region struct {
	North, South, West, East float64
}

// Wraps reports whether the region crosses the antimeridian.
func (r Region) Wraps() bool {
	return r.West > r.East
}

// Width returns the east-west extent in degrees.
func (r Region) Width() float64 {
	if r.Wraps() {
		return r.East + 360 - r.West
	}
	return r.East - r.West
}

// Validate checks that the region corners are valid coordinates.
func (r Region) Validate() error {
	for _, p := range []footprint.GeoPoint{{Lat: r.North, Lon: r.West}, {Lat: r.South, Lon: r.East}} {
		if err := p.Validate(); err != nil {
			return errors.WithMessage(err, "region")
		}
	}
	if r.Width() == 0 {
		return errors.Wrap(footprint.ErrMalformedInput, "region has no east-west extent")
	}
	if r.North <= r.South {
		return errors.Wrapf(footprint.ErrMalformedInput, "region north %g must be above south %g", r.North, r.South)
	}
	return nil
}

// BuildFixedSizeGrid covers region with tiles of roughly size x size meters.
// Rows run north to south; every row starts at the western edge and moves
// east until it has passed the eastern edge, so the region is fully
// covered. Corner longitudes are wrapped into [-180, 180], which gives
// tiles that straddle the antimeridian crossing corner sets.
func BuildFixedSizeGrid(region Region, size float64) ([]model.RawSource, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, errors.Errorf("tile size must be positive, got %g", size)
	}

	var tiles []model.RawSource
	width := region.Width()

	lat := region.North
	for lat > region.South {
		// Next latitude exactly size meters south, clamped at the pole
		nextLat := math.Max(geo.PointAtBearingAndDistance(orb.Point{region.West, lat}, 180, size).Lat(), -90)
		if nextLat >= lat {
			break
		}

		// Longitude span covering size meters along the middle of the row
		midLat := (lat + nextLat) / 2
		lonDiff := size / (orb.EarthRadius * math.Cos(midLat*math.Pi/180)) * 180 / math.Pi
		if lonDiff > maxTileDegrees || math.IsNaN(lonDiff) {
			return nil, errors.Errorf("tile of %gm spans %.1f degrees at latitude %.2f", size, lonDiff, midLat)
		}

		offset := 0.0
		for offset < width {
			west := region.West + offset
			east := west + lonDiff

			tiles = append(tiles, model.RawSource{
				ID:   tileID(size, lat, wrapWest(west)),
				Kind: model.SchemeGrid,
				Points: []footprint.GeoPoint{
					{Lat: lat, Lon: wrapWest(west)},
					{Lat: lat, Lon: wrapEast(east)},
					{Lat: nextLat, Lon: wrapEast(east)},
					{Lat: nextLat, Lon: wrapWest(west)},
				},
			})
			offset += lonDiff
		}

		lat = nextLat
	}

	return tiles, nil
}

// tileID names a tile after its size and top-left corner.
func tileID(size, lat, lon float64) string {
	return fmt.Sprintf("G%.0f_%.5f_%.5f", size, lat, lon)
}

// wrapWest maps a western edge into [-180, 180); 180 becomes -180.
func wrapWest(lon float64) float64 {
	for lon >= footprint.Antimeridian {
		lon -= 360
	}
	return lon
}

// wrapEast maps an eastern edge into (-180, 180]; 180 stays 180.
func wrapEast(lon float64) float64 {
	for lon > footprint.Antimeridian {
		lon -= 360
	}
	return lon
}
