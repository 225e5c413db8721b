package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and which optional stores are wired
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"digests":       h.digestsStored(),
		"probe_history": h.history != nil,
	})
}

func (h *Handler) digestsStored() bool {
	if r, ok := h.digests.(interface{ HasStore() bool }); ok {
		return r.HasStore()
	}
	return h.digests != nil
}
