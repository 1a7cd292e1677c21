package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// modelChecker verifies the language model backend is reachable.
type modelChecker interface {
	Health(ctx context.Context) error
}

// transcriberChecker verifies the transcription toolchain is usable.
type transcriberChecker interface {
	CheckReady(ctx context.Context) error
}

// HealthHandler handles liveness and readiness endpoints.
type HealthHandler struct {
	db      *gorm.DB
	model   modelChecker
	whisper transcriberChecker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *gorm.DB, model modelChecker, whisper transcriberChecker) *HealthHandler {
	return &HealthHandler{db: db, model: model, whisper: whisper}
}

// Health returns process liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready aggregates the readiness of the database, the model backend,
// and the transcription toolchain. It returns 200 when everything a job
// could need is available, 503 otherwise, with a per-component detail.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	components := gin.H{}
	healthy := true

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = err.Error()
		healthy = false
	}
	components["database"] = dbStatus

	modelStatus := "ok"
	if err := h.model.Health(ctx); err != nil {
		modelStatus = err.Error()
		healthy = false
	}
	components["model"] = modelStatus

	whisperStatus := "ok"
	if err := h.whisper.CheckReady(ctx); err != nil {
		whisperStatus = err.Error()
		healthy = false
	}
	components["transcription"] = whisperStatus

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
	})
}
