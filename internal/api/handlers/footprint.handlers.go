package routes

import (
	"net/http"

	"eotile/internal/export"
	"eotile/internal/footprint"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// FootprintRequest carries four [lat, lon] corners from top-left clockwise.
type FootprintRequest struct {
	Corners [][]float64 `json:"corners" binding:"required"`
}

func (r FootprintRequest) points() ([]footprint.GeoPoint, error) {
	points := make([]footprint.GeoPoint, len(r.Corners))
	for i, pair := range r.Corners {
		if len(pair) != 2 {
			return nil, errors.Wrapf(footprint.ErrMalformedInput,
				"corner %d has %d values, want [lat, lon]", i, len(pair))
		}
		points[i] = footprint.GeoPoint{Lat: pair[0], Lon: pair[1]}
	}
	return points, nil
}

func (r FootprintRequest) cornerSet() (footprint.CornerSet, error) {
	points, err := r.points()
	if err != nil {
		return footprint.CornerSet{}, err
	}
	return footprint.NewCornerSet(points...)
}

// SetupFootprintHandlers registers the stateless footprint endpoint
func SetupFootprintHandlers(router *gin.RouterGroup) {
	router.POST("/footprints", BuildFootprint)
}

// BuildFootprint POST /api/footprints - builds a footprint without storing it
func BuildFootprint(c *gin.Context) {
	var req FootprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "Invalid JSON format: "+err.Error())
		return
	}

	corners, err := req.cornerSet()
	if err != nil {
		abortWithError(c, err)
		return
	}

	fp, err := footprint.Build(corners)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if c.Query("format") == "wkt" {
		c.JSON(http.StatusOK, gin.H{
			"crossing": fp.Crossing().String(),
			"wkt":      export.WKT(fp),
		})
		return
	}
	c.JSON(http.StatusOK, export.FootprintFeature(fp))
}
