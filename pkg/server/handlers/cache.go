package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-geoai"
	"github.com/soundprediction/go-geoai/pkg/server/dto"
)

// CacheHandler handles cache maintenance requests
type CacheHandler struct {
	ai geoai.GeoAI
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(ai geoai.GeoAI) *CacheHandler {
	return &CacheHandler{ai: ai}
}

// Clear handles DELETE /cache/:key
func (h *CacheHandler) Clear(c *gin.Context) {
	key := c.Param("key")
	if err := h.ai.ClearCache(key); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "cache_clear_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.ClearCacheResponse{Success: true, Key: key})
}
