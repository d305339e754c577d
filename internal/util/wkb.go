package util

import (
	"encoding/binary"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pkg/errors"
)

// MarshalWKB encodes a polygon or multipolygon as little-endian WKB.
func MarshalWKB(g orb.Geometry) ([]byte, error) {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return nil, errors.Errorf("unsupported geometry %T", g)
	}

	data, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "encode wkb")
	}
	return data, nil
}

// UnmarshalWKB decodes a WKB polygon or multipolygon.
func UnmarshalWKB(data []byte) (orb.Geometry, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode wkb")
	}

	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g, nil
	}
	return nil, errors.Errorf("unsupported wkb geometry %T", g)
}
