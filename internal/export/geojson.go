package export

import (
	"encoding/json"
	"io"
	"os"

	"eotile/internal/footprint"
	"eotile/internal/model"
	"eotile/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FootprintFeature wraps a footprint into a feature carrying its crossing.
func FootprintFeature(fp footprint.Footprint) *geojson.Feature {
	feature := geojson.NewFeature(fp.Geometry())
	feature.BBox = geojson.NewBBox(fp.Bound())

	crossing := fp.Crossing()
	feature.Properties["crossing"] = crossing.Kind.String()
	if crossing.Slant != footprint.SlantNone {
		feature.Properties["slant"] = crossing.Slant.String()
	}
	feature.Properties["parts"] = len(fp.Parts())
	return feature
}

// TileFeature builds the feature of a tile with its measured properties.
func TileFeature(t *model.Tile) *geojson.Feature {
	feature := FootprintFeature(t.Footprint())
	feature.ID = t.ID

	edges := t.EdgeLengths()
	feature.Properties["id"] = t.ID
	feature.Properties["scheme"] = string(t.Scheme)
	feature.Properties["top_width_km"] = util.RoundToKilometers(edges.Top)
	feature.Properties["bottom_width_km"] = util.RoundToKilometers(edges.Bottom)
	feature.Properties["left_height_km"] = util.RoundToKilometers(edges.Left)
	feature.Properties["right_height_km"] = util.RoundToKilometers(edges.Right)
	feature.Properties["area_km2"] = util.RoundToKilometers(t.AreaKm2() * 1000)
	return feature
}

// TileFeatureCollection builds one feature per tile, in order.
func TileFeatureCollection(tiles []*model.Tile) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range tiles {
		fc.Append(TileFeature(t))
	}
	return fc
}

// WKT renders a footprint as POLYGON or MULTIPOLYGON text.
func WKT(fp footprint.Footprint) string {
	g := fp.Geometry()
	if g == nil {
		return wkt.MarshalString(orb.Polygon{})
	}
	return wkt.MarshalString(g)
}

// WriteGeoJSON writes v as indented GeoJSON.
func WriteGeoJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode geojson")
}

// ExportTilesToGeoJSON writes tiles to a GeoJSON file for visualization.
func ExportTilesToGeoJSON(tiles []*model.Tile, outputFile string) error {
	zap.S().Infof("Exporting %d tiles to GeoJSON file: %s", len(tiles), outputFile)

	f, err := os.Create(outputFile)
	if err != nil {
		return errors.Wrap(err, "create geojson file")
	}
	defer f.Close()

	if err := WriteGeoJSON(f, TileFeatureCollection(tiles)); err != nil {
		return err
	}

	zap.S().Infof("Successfully exported tiles to %s", outputFile)
	return nil
}
