package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/harvester"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
	"github.com/kurihiro0119/opendata-harvester/internal/summary"
)

// Handler handles API requests
type Handler struct {
	store    storage.Store
	manager  *harvester.Manager
	reporter summary.Reporter
}

// NewHandler creates a new API handler
func NewHandler(store storage.Store, manager *harvester.Manager, reporter summary.Reporter) *Handler {
	return &Handler{
		store:    store,
		manager:  manager,
		reporter: reporter,
	}
}

// RegisterSource registers or updates a harvest source
// POST /api/v1/sources
func (h *Handler) RegisterSource(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("unreadable request body"))
		return
	}

	src, err := domain.ParseSource(raw)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	now := time.Now()
	if src.ID == "" {
		src.ID = uuid.New().String()
		src.CreatedAt = now
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now

	if err := h.store.SaveSource(c.Request.Context(), src); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": src,
	})
}

// ListSources returns all registered sources
// GET /api/v1/sources
func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.store.ListSources(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": sources,
	})
}

// GetSource returns one source
// GET /api/v1/sources/:id
func (h *Handler) GetSource(c *gin.Context) {
	src, err := h.store.GetSource(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": src,
	})
}

// DeleteSource removes a source
// DELETE /api/v1/sources/:id
func (h *Handler) DeleteSource(c *gin.Context) {
	if err := h.store.DeleteSource(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// StartJob starts a harvest job for a source
// POST /api/v1/sources/:id/jobs
func (h *Handler) StartJob(c *gin.Context) {
	job, err := h.manager.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"data": job,
	})
}

// ListJobs returns jobs for a source, newest first
// GET /api/v1/sources/:id/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.store.ListJobs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": jobs,
	})
}

// GetJob returns the status report for one job
// GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	report, err := h.reporter.JobReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": report,
	})
}

// ListJobItems returns the items of one job, optionally filtered by status
// GET /api/v1/jobs/:id/items?status=failed
func (h *Handler) ListJobItems(c *gin.Context) {
	jobID := c.Param("id")

	var (
		items []*domain.Item
		err   error
	)
	if status := c.Query("status"); status != "" {
		items, err = h.store.ListItemsByStatus(c.Request.Context(), jobID, domain.ItemStatus(status))
	} else {
		items, err = h.store.ListItems(c.Request.Context(), jobID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": items,
	})
}

// CancelJob cancels a running job
// POST /api/v1/jobs/:id/cancel
func (h *Handler) CancelJob(c *gin.Context) {
	if err := h.manager.Cancel(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"data": gin.H{"cancelled": true},
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
