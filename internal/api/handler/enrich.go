package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nahuelp/clipstack/internal/enrich"
	"github.com/nahuelp/clipstack/internal/jobs"
)

// EnrichHandler handles enrichment job endpoints.
type EnrichHandler struct {
	controller *enrich.Controller
}

// NewEnrichHandler creates a new enrichment handler.
// Parameters:
//   - controller: job controller instance.
// Returns:
//   - *EnrichHandler: initialized handler.
func NewEnrichHandler(controller *enrich.Controller) *EnrichHandler {
	return &EnrichHandler{controller: controller}
}

// Start handles POST /api/v1/enrich/start.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *EnrichHandler) Start(c *gin.Context) {
	var req enrich.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	job, err := h.controller.StartJob(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Cannot start job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// Status handles GET /api/v1/enrich/status/:id.
func (h *EnrichHandler) Status(c *gin.Context) {
	job, err := h.controller.Status(c.Param("id"))
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Pause handles POST /api/v1/enrich/pause/:id.
func (h *EnrichHandler) Pause(c *gin.Context) {
	if err := h.controller.Pause(c.Param("id")); err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

// Resume handles POST /api/v1/enrich/resume/:id.
func (h *EnrichHandler) Resume(c *gin.Context) {
	if err := h.controller.Resume(c.Param("id")); err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

// Cancel handles POST /api/v1/enrich/cancel/:id.
func (h *EnrichHandler) Cancel(c *gin.Context) {
	if err := h.controller.Cancel(c.Param("id")); err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Delete handles DELETE /api/v1/enrich/jobs/:id.
func (h *EnrichHandler) Delete(c *gin.Context) {
	if err := h.controller.Delete(c.Param("id")); err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// List handles GET /api/v1/enrich/jobs.
func (h *EnrichHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"jobs": h.controller.List(),
	})
}

// jobError maps controller errors onto HTTP status codes.
func (h *EnrichHandler) jobError(c *gin.Context, err error) {
	status := http.StatusConflict
	if errors.Is(err, jobs.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
