package routes

import (
	"net/http"

	"eotile/internal/service/tile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, port string, tiles *tile.TileService) {
	router.GET("/", func(c *gin.Context) {
		// stored_tiles is null when the database cannot be reached
		var stored interface{}
		if n, err := tiles.StoredCount(c.Request.Context()); err != nil {
			zap.S().Warnf("Counting stored tiles failed: %v", err)
		} else {
			stored = n
		}

		c.JSON(http.StatusOK, gin.H{
			"service":      "eotile",
			"port":         port,
			"initialized":  tiles.IsInitialized(),
			"tiles":        tiles.Count(),
			"stored_tiles": stored,
		})
	})
}
