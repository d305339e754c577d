package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Scheme identifies the tiling grid a tile belongs to.
type Scheme string

const (
	SchemeS2   Scheme = "S2"   // Sentinel-2 MGRS tiles
	SchemeL8   Scheme = "L8"   // Landsat WRS-2 path/row scenes
	SchemeSRTM Scheme = "SRTM" // SRTM 1 degree DEM cells
	SchemeCOP  Scheme = "COP"  // Copernicus 1 degree DEM cells
	SchemeGrid Scheme = "GRID" // fixed-size generated grid
)

var schemes = []Scheme{SchemeS2, SchemeL8, SchemeSRTM, SchemeCOP, SchemeGrid}

// ParseScheme accepts a scheme name in any case.
func ParseScheme(s string) (Scheme, error) {
	for _, scheme := range schemes {
		if strings.EqualFold(s, string(scheme)) {
			return scheme, nil
		}
	}
	return "", errors.Errorf("unknown tile scheme %q", s)
}
