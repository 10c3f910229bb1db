package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/classifieds-import-api/internal/config"
	"github.com/classifieds-import-api/internal/models"
	"github.com/classifieds-import-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ImportHandler handles the bulk user import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// GetFields handles GET /fields — the canonical CSV schema
func (h *ImportHandler) GetFields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"required_fields": models.RequiredFields,
		"optional_fields": models.OptionalFields,
		"allowed_roles":   models.AllowedRolesList,
		"max_rows":        h.cfg.Import.MaxRows,
		"fields":          models.ImportFields,
	})
}

// DownloadTemplate handles GET /template — a blank CSV with the header
// row and one illustrative sample row
func (h *ImportHandler) DownloadTemplate(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename=user_import_template.csv`)

	writer := csv.NewWriter(c.Writer)
	writer.Write(models.TemplateHeader())
	writer.Write(models.TemplateSampleRow)
	writer.Flush()
}

// Upload handles POST /upload — parses the CSV into a pending validation
// session. No users are created here.
func (h *ImportHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	adminID := c.PostForm("admin_id")
	if adminID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "admin_id is required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a CSV file upload is required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Import.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)),
		})
		return
	}

	session, err := h.services.Session.CreateSession(ctx, adminID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		var uploadErr *service.UploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": uploadErr.Reason})
			return
		}
		h.log.Error().Err(err).Msg("Failed to create validation session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	preview := session.Rows
	if len(preview) > h.cfg.Import.PreviewRows {
		preview = preview[:h.cfg.Import.PreviewRows]
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"validation_id": session.ID,
		"total_rows":    session.TotalRows,
		"preview":       preview,
	})
}

// Validate handles POST /validate/:validation_id — runs the validation
// engine and returns the full error list
func (h *ImportHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()
	validationID := c.Param("validation_id")

	result, err := h.services.Session.Validate(ctx, validationID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("validation_id", validationID).Msg("Validation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate session"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartImport handles POST /import/:validation_id — creates the import
// job and returns immediately with its id
func (h *ImportHandler) StartImport(c *gin.Context) {
	ctx := c.Request.Context()
	validationID := c.Param("validation_id")

	var req struct {
		AdminID string `json:"admin_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AdminID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "admin_id is required"})
		return
	}

	job, err := h.services.Job.StartImport(ctx, validationID, req.AdminID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionNotValidated) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("validation_id", validationID).Msg("Failed to start import")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create import job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"job_id":  job.ID,
		"message": "Import job created and queued for processing",
	})
}

// GetJob handles GET /job/:job_id — a pure read of current job state
func (h *ImportHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("job_id")

	job, err := h.services.Job.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job status"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// DownloadReport handles GET /password-report/:report_id/download — the
// credentials CSV, owner only. Mismatched and unknown ids both read as
// 404 so report existence never leaks.
func (h *ImportHandler) DownloadReport(c *gin.Context) {
	ctx := c.Request.Context()
	reportID := c.Param("report_id")
	adminID := c.Query("admin_id")

	report, err := h.services.Report.GetReport(ctx, reportID, adminID)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to get report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=passwords_%s.csv", report.ID))

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{"email", "password"})
	for _, row := range report.Rows {
		writer.Write([]string{row.Email, row.Password})
	}
	writer.Flush()
}

// History handles GET /history — past jobs, optionally filtered to one
// admin
func (h *ImportHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	adminID := c.Query("admin_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	jobs, total, err := h.services.Job.History(ctx, adminID, page, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
