package handlers

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
)

// ReportHandler handles emission report submission and retrieval.
type ReportHandler struct {
	reportService services.ReportSvcFacade
	userService   services.UserSvcFacade
	uploadDir     string
	maxUploadSize int64
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportSvcFacade, userService services.UserSvcFacade, uploadDir string, maxUploadSize int64) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		userService:   userService,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
	}
}

// saveUploads stores multipart files under the upload directory with
// generated names and returns their document references. Contents are never
// inspected; the registry stores references only.
func (h *ReportHandler) saveUploads(c *gin.Context, files []*multipart.FileHeader) ([]domain.Document, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, file := range files {
		if file.Size > h.maxUploadSize {
			return nil, fmt.Errorf("file %s exceeds the %d byte upload limit", file.Filename, h.maxUploadSize)
		}
		name := uuid.New().String() + filepath.Ext(file.Filename)
		dst := filepath.Join(h.uploadDir, name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			return nil, fmt.Errorf("failed to store uploaded file %s: %w", file.Filename, err)
		}
		docs = append(docs, domain.Document{
			Filename:     name,
			OriginalName: file.Filename,
			Path:         dst,
			Size:         file.Size,
			MimeType:     file.Header.Get("Content-Type"),
			UploadedAt:   time.Now().UTC(),
		})
	}
	return docs, nil
}

// SubmitReport accepts a multipart submission with optional supporting
// documents and creates a pending report.
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SubmitReportRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Warn("Failed to bind report submission", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	var docs []domain.Document
	if form, err := c.MultipartForm(); err == nil && form != nil {
		docs, err = h.saveUploads(c, form.File["documents"])
		if err != nil {
			logger.Warn("Failed to store uploads", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := h.reportService.SubmitReport(c.Request.Context(), userID, req, docs)
	if err != nil {
		respondWithError(c, logger, err, "Failed to submit report")
		return
	}

	logger.Info("Report submitted", slog.String("report_id", report.ReportID))
	c.JSON(http.StatusCreated, report)
}

// requester loads the calling user for visibility checks.
func (h *ReportHandler) requester(c *gin.Context) (*domain.User, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return user, true
}

// ListReports lists reports visible to the caller, newest first.
func (h *ReportHandler) ListReports(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := h.requester(c)
	if !ok {
		return
	}

	var status *domain.ReportStatus
	if s := c.Query("status"); s != "" {
		rs := domain.ReportStatus(s)
		status = &rs
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), user, status)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReport retrieves a single report visible to the caller.
func (h *ReportHandler) GetReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := h.requester(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("reportID"), user)
	if err != nil {
		respondWithError(c, logger, err, "Failed to fetch report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// AttachDocuments adds supporting documents to a still-pending report.
func (h *ReportHandler) AttachDocuments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := h.requester(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil || form == nil || len(form.File["documents"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no documents provided"})
		return
	}

	docs, err := h.saveUploads(c, form.File["documents"])
	if err != nil {
		logger.Warn("Failed to store uploads", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.reportService.AttachDocuments(c.Request.Context(), c.Param("reportID"), user, docs)
	if err != nil {
		respondWithError(c, logger, err, "Failed to attach documents")
		return
	}

	logger.Info("Documents attached", slog.String("report_id", report.ReportID), slog.Int("count", len(docs)))
	c.JSON(http.StatusOK, report)
}
