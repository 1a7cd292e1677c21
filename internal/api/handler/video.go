package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nahuelp/clipstack/internal/repository"
)

// VideoHandler handles read-only video record endpoints.
type VideoHandler struct {
	videos *repository.VideoRepository
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videos *repository.VideoRepository) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// GetVideo handles GET /api/v1/videos/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid video ID",
		})
		return
	}

	video, err := h.videos.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, video)
}

// GetStats handles GET /api/v1/stats.
func (h *VideoHandler) GetStats(c *gin.Context) {
	counts, err := h.videos.CountBySource(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"by_source": counts,
	})
}
