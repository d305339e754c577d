package api

import (
	routes "eotile/internal/api/handlers"
	"eotile/internal/service/tile"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, port string, tiles *tile.TileService) {
	r.Use(RequestID(), RequestLogger())

	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), port, tiles)

	// Setup footprint and tile handlers
	routes.SetupFootprintHandlers(api)
	routes.SetupTileHandlers(api, routes.NewTileHandler(tiles))
}
