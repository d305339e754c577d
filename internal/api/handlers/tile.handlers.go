package routes

import (
	"net/http"
	"strconv"
	"strings"

	"eotile/internal/export"
	"eotile/internal/footprint"
	"eotile/internal/model"
	"eotile/internal/service/tile"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const geoJSONContentType = "application/geo+json"

// TileHandler serves the tile catalog
type TileHandler struct {
	tiles *tile.TileService
}

// NewTileHandler creates a handler over the catalog
func NewTileHandler(tiles *tile.TileService) *TileHandler {
	return &TileHandler{tiles: tiles}
}

// RegisterTileRequest adds a tile with explicit corners to the catalog
type RegisterTileRequest struct {
	ID     string `json:"id" binding:"required"`
	Scheme string `json:"scheme" binding:"required"`
	FootprintRequest
}

// SetupTileHandlers registers the tile catalog endpoints
func SetupTileHandlers(router *gin.RouterGroup, h *TileHandler) {
	tileGroup := router.Group("/tiles")

	tileGroup.GET("", h.SearchTiles)
	tileGroup.POST("", h.RegisterTile)
	tileGroup.GET("/at", h.TilesAtPoint)
	tileGroup.GET("/:id", h.GetTile)
}

// GetTile GET /api/tiles/:id - returns one tile as GeoJSON or WKT
func (h *TileHandler) GetTile(c *gin.Context) {
	id := c.Param("id")

	if c.Query("format") == "wkt" {
		t, ok := h.tiles.Get(id)
		if !ok {
			notFound(c, id)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":       t.ID,
			"scheme":   t.Scheme,
			"crossing": t.Footprint().Crossing().String(),
			"wkt":      export.WKT(t.Footprint()),
		})
		return
	}

	data, ok, err := h.tiles.Feature(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !ok {
		notFound(c, id)
		return
	}
	c.Data(http.StatusOK, geoJSONContentType, data)
}

// SearchTiles GET /api/tiles?bbox=minLon,minLat,maxLon,maxLat&scheme=S2
// A bbox with minLon > maxLon wraps across the antimeridian.
func (h *TileHandler) SearchTiles(c *gin.Context) {
	raw := c.Query("bbox")
	if raw == "" {
		badRequest(c, "missing_parameter", "bbox parameter is required (format: minLon,minLat,maxLon,maxLat)")
		return
	}

	bounds, err := parseBBox(raw)
	if err != nil {
		badRequest(c, "invalid_parameter", err.Error())
		return
	}

	var scheme model.Scheme
	if s := c.Query("scheme"); s != "" {
		if scheme, err = model.ParseScheme(s); err != nil {
			badRequest(c, "invalid_parameter", err.Error())
			return
		}
	}

	tiles := h.tiles.Search(scheme, bounds...)
	c.JSON(http.StatusOK, export.TileFeatureCollection(tiles))
}

// TilesAtPoint GET /api/tiles/at?lat=&lon= - tiles containing the point
func (h *TileHandler) TilesAtPoint(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		badRequest(c, "invalid_parameter", "lat and lon must be numbers")
		return
	}
	if err := (footprint.GeoPoint{Lat: lat, Lon: lon}).Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, export.TileFeatureCollection(h.tiles.SearchPoint(lat, lon)))
}

// RegisterTile POST /api/tiles - builds and stores a tile
func (h *TileHandler) RegisterTile(c *gin.Context) {
	var req RegisterTileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "Invalid JSON format: "+err.Error())
		return
	}

	scheme, err := model.ParseScheme(req.Scheme)
	if err != nil {
		badRequest(c, "invalid_parameter", err.Error())
		return
	}

	points, err := req.points()
	if err != nil {
		abortWithError(c, err)
		return
	}

	t, err := h.tiles.Register(c.Request.Context(), model.RawSource{ID: req.ID, Kind: scheme, Points: points})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, export.TileFeature(t))
}

// parseBBox parses minLon,minLat,maxLon,maxLat into one bound, or two when
// the box wraps across the antimeridian.
func parseBBox(raw string) ([]orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, errors.Errorf("bbox must contain 4 coordinates: minLon,minLat,maxLon,maxLat")
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Errorf("invalid bbox value %q", p)
		}
		v[i] = f
	}
	minLon, minLat, maxLon, maxLat := v[0], v[1], v[2], v[3]

	for _, p := range []footprint.GeoPoint{{Lat: minLat, Lon: minLon}, {Lat: maxLat, Lon: maxLon}} {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if minLat > maxLat {
		return nil, errors.Errorf("minLat %g is north of maxLat %g", minLat, maxLat)
	}

	if minLon <= maxLon {
		return []orb.Bound{{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}}, nil
	}
	return []orb.Bound{
		{Min: orb.Point{minLon, minLat}, Max: orb.Point{footprint.Antimeridian, maxLat}},
		{Min: orb.Point{-footprint.Antimeridian, minLat}, Max: orb.Point{maxLon, maxLat}},
	}, nil
}

func notFound(c *gin.Context, id string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
		"error":   "not_found",
		"message": "tile " + id + " not found",
	})
}
