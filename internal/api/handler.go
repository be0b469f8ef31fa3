package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/property360-2/richwell-potal-sub001/internal/approval"
	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/grading"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/model"
	"github.com/property360-2/richwell-potal-sub001/internal/queue"
	"github.com/property360-2/richwell-potal-sub001/internal/storage"
	"github.com/property360-2/richwell-potal-sub001/internal/sweep"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

type Handler struct {
	gradingService  *grading.Service
	approvalService *approval.Service
	sweepService    *sweep.Service
	producer        *queue.Producer
	store           storage.Storage
	cfg             *config.Config
	log             zerolog.Logger
}

func NewHandler(
	gradingService *grading.Service,
	approvalService *approval.Service,
	sweepService *sweep.Service,
	producer *queue.Producer,
	store storage.Storage,
	cfg *config.Config,
) *Handler {
	return &Handler{
		gradingService:  gradingService,
		approvalService: approvalService,
		sweepService:    sweepService,
		producer:        producer,
		store:           store,
		cfg:             cfg,
		log:             logger.Get(),
	}
}

func (h *Handler) SubmitGrade(c *gin.Context) {
	var req model.SubmitGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.gradingService.SubmitGrade(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) RevokeResolution(c *gin.Context) {
	resolution, err := h.gradingService.RevokeResolution(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

func (h *Handler) Decide(c *gin.Context) {
	var req model.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resolution, err := h.approvalService.Decide(c.Request.Context(), c.Param("id"),
		reviewerRole(actorRole(c)), req.Decision, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// reviewerRole maps the token role onto the approval service's reviewer
// roles. Unknown roles map to empty and fail the step's role check.
func reviewerRole(tokenRole string) string {
	switch tokenRole {
	case RoleHead:
		return approval.RoleHead
	case RoleRegistrar:
		return approval.RoleRegistrar
	case RoleAdmin:
		return approval.RoleAdmin
	}
	return ""
}

func (h *Handler) ListPending(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		// Infer the queue from the caller's own role.
		switch actorRole(c) {
		case RoleHead:
			role = approval.RoleHead
		case RoleRegistrar:
			role = approval.RoleRegistrar
		}
	}

	pending, err := h.approvalService.ListPending(c.Request.Context(), role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

// SweepPreview runs a dry-run sweep synchronously; it only reads.
func (h *Handler) SweepPreview(c *gin.Context) {
	report, err := h.sweepService.Sweep(c.Request.Context(), true)
	if err != nil {
		h.log.Error().Err(err).Msg("Sweep preview failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// SweepTrigger enqueues a commit-mode sweep for the worker.
func (h *Handler) SweepTrigger(c *gin.Context) {
	job := model.SweepJob{
		JobID:       uuid.NewString(),
		RequestedBy: actorID(c),
		RequestedAt: time.Now(),
	}

	if err := h.producer.EnqueueSweepJob(c.Request.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue sweep job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue sweep job"})
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("requested_by", job.RequestedBy).Msg("Sweep job enqueued")

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Sweep job queued successfully",
		"job":     job,
	})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SweepReportDownload serves an archived sweep report from object
// storage for the registrar's audit trail. Path params mirror the
// archive key layout: sweep-reports/<yyyy-mm>/<job-id>.xlsx.
func (h *Handler) SweepReportDownload(c *gin.Context) {
	key := fmt.Sprintf("sweep-reports/%s/%s.xlsx", c.Param("month"), c.Param("job"))

	exists, err := h.store.Exists(c.Request.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to check report archive")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "sweep report not found"})
		return
	}

	body, err := h.store.Download(c.Request.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to download sweep report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to read sweep report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", c.Param("job")))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err == apperrors.ErrNotAssigned, err == apperrors.ErrWrongReviewer:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperrors.IsLocked(err):
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	case apperrors.IsInvalidState(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
