package handler

import (
	"net/http"
	"strconv"

	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/marketing"

	"github.com/gin-gonic/gin"
)

// GetAirdrops godoc
// @Summary      List airdrop promotions
// @Description  Returns promotions from the local catalog, optionally filtered
// @Tags         airdrops
// @Produce      json
// @Param        status   query  string  false  "Status filter (open, closed, upcoming)"
// @Param        network  query  string  false  "Network filter (ton, bsc, eth)"
// @Param        limit    query  int     false  "Maximum number of entries"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/airdrops [get]
func (h *Handler) GetAirdrops(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-airdrops")
	defer span.End()

	items := marketing.FilterPromotions(h.promotions.Promotions(), c.Query("status"), c.Query("network"))
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n < len(items) {
			items = items[:n]
		}
	}
	if items == nil {
		items = []domain.Promotion{}
	}

	c.JSON(http.StatusOK, gin.H{"airdrops": items, "count": len(items)})
}
