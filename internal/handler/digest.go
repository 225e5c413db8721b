package handler

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/repository"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetDigest godoc
// @Summary      Latest digest of a scheduled job
// @Description  Returns the last message the scheduler sent for prices, airdrop or faucet
// @Tags         digests
// @Produce      json
// @Param        job  path  string  true  "Job name (prices, airdrop, faucet)"
// @Success      200  {object}  domain.Digest
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/digests/{job} [get]
func (h *Handler) GetDigest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-digest")
	defer span.End()

	job := c.Param("job")
	span.SetAttributes(attribute.String("job", job))
	if !slices.Contains(domain.DigestJobs, job) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job: " + job, "jobs": domain.DigestJobs})
		return
	}

	d, ok, err := h.digests.Latest(ctx, job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "digest store unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no digest yet for " + job})
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetFaucetRuns godoc
// @Summary      Recent faucet probe runs
// @Description  Returns persisted probe reports, newest first
// @Tags         faucet
// @Produce      json
// @Param        limit  query  int  false  "Number of runs (default 10, max 100)"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/faucet/runs [get]
func (h *Handler) GetFaucetRuns(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-faucet-runs")
	defer span.End()

	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "probe history is not enabled"})
		return
	}

	limit := 10
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	reports, err := h.history.RecentReports(ctx, limit)
	if errors.Is(err, repository.ErrNoPool) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "probe history is not enabled"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load probe history"})
		return
	}
	if reports == nil {
		reports = []domain.ProbeReport{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": reports})
}
