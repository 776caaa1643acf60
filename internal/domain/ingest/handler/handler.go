// Package handler exposes the statement ingestion surface over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/internal/domain/ingest/service"
)

// IdentityFunc extracts the authenticated user from a request. The auth
// layer itself lives outside this module; the handlers only need the ID.
type IdentityFunc func(*gin.Context) (uuid.UUID, bool)

// Handler wires the upload service to gin routes.
type Handler struct {
	uploads  *service.UploadService
	identity IdentityFunc
	logger   *slog.Logger
}

func New(uploads *service.UploadService, identity IdentityFunc, logger *slog.Logger) *Handler {
	return &Handler{uploads: uploads, identity: identity, logger: logger}
}

// Register mounts the statement routes on the router.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/statements")
	g.POST("/upload", h.upload)
	g.GET("/history", h.history)
	g.GET("/:id/status", h.status)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/retry", h.retry)
}

type uploadResponse struct {
	ID                         string     `json:"id"`
	Status                     string     `json:"status"`
	FileName                   string     `json:"file_name"`
	FileSize                   int64      `json:"file_size"`
	BankAccountID              string     `json:"bank_account_id"`
	StatementPeriodStart       *time.Time `json:"statement_period_start,omitempty"`
	StatementPeriodEnd         *time.Time `json:"statement_period_end,omitempty"`
	ProcessingStartedAt        *time.Time `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt      *time.Time `json:"processing_completed_at,omitempty"`
	TotalTransactionsExtracted *int       `json:"total_transactions_extracted,omitempty"`
	ConfidenceScore            *float64   `json:"confidence_score,omitempty"`
	ErrorMessage               *string    `json:"error_message,omitempty"`
	CreatedAt                  time.Time  `json:"created_at"`
}

func toUploadResponse(u *ingest.StatementUpload) uploadResponse {
	return uploadResponse{
		ID:                         u.ID.String(),
		Status:                     string(u.Status),
		FileName:                   u.FileName,
		FileSize:                   u.FileSize,
		BankAccountID:              u.BankAccountID.String(),
		StatementPeriodStart:       u.StatementPeriodStart,
		StatementPeriodEnd:         u.StatementPeriodEnd,
		ProcessingStartedAt:        u.ProcessingStartedAt,
		ProcessingCompletedAt:      u.ProcessingCompletedAt,
		TotalTransactionsExtracted: u.TotalTransactionsExtracted,
		ConfidenceScore:            u.ConfidenceScore,
		ErrorMessage:               u.ErrorMessage,
		CreatedAt:                  u.CreatedAt,
	}
}

func (h *Handler) upload(c *gin.Context) {
	userID, ok := h.identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer src.Close()

	upload, err := h.uploads.Submit(c.Request.Context(), userID, service.SubmitRequest{
		FileName:    file.Filename,
		Size:        file.Size,
		ContentType: file.Header.Get("Content-Type"),
		Content:     src,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toUploadResponse(upload))
}

func (h *Handler) status(c *gin.Context) {
	userID, ok := h.identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return
	}

	upload, err := h.uploads.Status(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUploadResponse(upload))
}

func (h *Handler) history(c *gin.Context) {
	userID, ok := h.identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	uploads, total, err := h.uploads.History(
		c.Request.Context(),
		userID,
		c.Query("bank"),
		c.Query("status"),
		limit,
		offset,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]uploadResponse, 0, len(uploads))
	for _, u := range uploads {
		items = append(items, toUploadResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{
		"uploads": items,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) delete(c *gin.Context) {
	userID, ok := h.identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return
	}

	if err := h.uploads.Delete(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) retry(c *gin.Context) {
	userID, ok := h.identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return
	}

	upload, err := h.uploads.Retry(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toUploadResponse(upload))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var dup *ingest.DuplicateError
	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": dup.Msg, "reason": string(dup.Reason)})
	case errors.Is(err, ingest.ErrUploadProcessing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ingest.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, ingest.ErrUnsupportedMediaType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, ingest.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
	case ingest.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
