package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"eotile/internal/footprint"
	"eotile/internal/util"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Float64Slice is stored as a JSON array.
type Float64Slice []float64

func (s Float64Slice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Float64Slice) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*s = nil
		return nil
	default:
		return errors.Errorf("cannot scan %T into Float64Slice", value)
	}
	return json.Unmarshal(data, s)
}

// TilePG model for PostgreSQL storage
type TilePG struct {
	ID     string `gorm:"primaryKey;size:32"`
	Scheme Scheme `gorm:"size:8;not null;index"`

	// Corners holds interleaved lat, lon values from top-left clockwise.
	Corners  Float64Slice `gorm:"type:jsonb;not null"`
	Crossing string       `gorm:"size:32;not null"`

	// Footprint is the WKB polygon or multipolygon for PostGIS consumers.
	Footprint []byte  `gorm:"type:bytea"`
	MinLon    float64 `gorm:"not null"`
	MinLat    float64 `gorm:"not null"`
	MaxLon    float64 `gorm:"not null"`
	MaxLat    float64 `gorm:"not null"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (TilePG) TableName() string {
	return "tiles"
}

// TileFromPG rebuilds a Tile from its stored corners. The stored footprint
// column is not trusted; the footprint is always rebuilt.
func TileFromPG(pg *TilePG) (*Tile, error) {
	corners, err := footprint.CornersFromLatLon(pg.Corners)
	if err != nil {
		return nil, errors.WithMessagef(err, "tile %s", pg.ID)
	}

	t := &Tile{ID: pg.ID, Scheme: pg.Scheme}
	if err := t.SetCorners(corners); err != nil {
		return nil, err
	}
	t.UpdatedAt = pg.UpdatedAt
	return t, nil
}

// TileToPG converts a Tile to its database row.
func TileToPG(t *Tile) (*TilePG, error) {
	wkb, err := util.MarshalWKB(t.Footprint().Geometry())
	if err != nil {
		return nil, errors.Wrapf(err, "encode footprint of tile %s", t.ID)
	}

	corners := make(Float64Slice, 0, 8)
	for _, p := range t.Corners().Points() {
		corners = append(corners, p.Lat, p.Lon)
	}

	bound := t.BoundingBox()
	return &TilePG{
		ID:        t.ID,
		Scheme:    t.Scheme,
		Corners:   corners,
		Crossing:  t.Footprint().Crossing().String(),
		Footprint: wkb,
		MinLon:    bound.Min.Lon(),
		MinLat:    bound.Min.Lat(),
		MaxLon:    bound.Max.Lon(),
		MaxLat:    bound.Max.Lat(),
		UpdatedAt: t.UpdatedAt,
	}, nil
}
