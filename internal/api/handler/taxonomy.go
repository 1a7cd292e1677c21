package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nahuelp/clipstack/internal/repository"
)

// TaxonomyHandler handles read-only area and topic endpoints.
type TaxonomyHandler struct {
	taxonomy *repository.TaxonomyRepository
}

// NewTaxonomyHandler creates a new taxonomy handler.
func NewTaxonomyHandler(taxonomy *repository.TaxonomyRepository) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: taxonomy}
}

// ListAreas handles GET /api/v1/areas.
func (h *TaxonomyHandler) ListAreas(c *gin.Context) {
	areas, err := h.taxonomy.ListAreas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

// AreaTopics handles GET /api/v1/areas/:id/topics.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *TaxonomyHandler) AreaTopics(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid area ID",
		})
		return
	}

	topics, err := h.taxonomy.TopicsByArea(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}
