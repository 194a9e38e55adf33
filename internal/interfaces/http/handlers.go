package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/application/service"
	"github.com/garyjia/pharmacy-audit/internal/generator"
	"github.com/garyjia/pharmacy-audit/internal/models"
	"github.com/garyjia/pharmacy-audit/internal/practitioner"
	"github.com/garyjia/pharmacy-audit/internal/repository"
	"github.com/garyjia/pharmacy-audit/internal/source"
)

// Multipart field names of a generate request
const (
	FieldReport        = "report"
	FieldCurrent       = "current"
	FieldPrior         = "prior"
	FieldPractitioners = "practitioners"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
	yamlContentType = "application/x-yaml"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	service   service.GenerationService
	maxUpload int64
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc service.GenerationService, maxUpload int64, logger Logger) *Handlers {
	return &Handlers{
		service:   svc,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// GenerateResponse is returned by a generate request. Run is absent when
// confirmation is required.
type GenerateResponse struct {
	Run        *models.GenerationRun `json:"run,omitempty"`
	MissingDEA []string              `json:"missing_dea"`
}

// RulesResponse is the active rule table
type RulesResponse struct {
	Source   string     `json:"source"`
	Rules    []aig.Rule `json:"rules"`
	Shadowed []aig.Rule `json:"shadowed,omitempty"`
}

// ListRunsRequest represents query parameters for listing runs
type ListRunsRequest struct {
	Limit int `form:"limit"`
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Generate handles POST /api/generate
func (h *Handlers) Generate(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	var in generator.Input
	fields := []struct {
		name string
		dst  *source.File
	}{
		{FieldReport, &in.Report},
		{FieldCurrent, &in.Current},
		{FieldPrior, &in.Prior},
		{FieldPractitioners, &in.Practitioners},
	}
	for _, f := range fields {
		file, err := readUpload(c, f.name)
		if err != nil {
			h.logger.Error("Invalid upload", "field", f.name, "error", err)
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		*f.dst = file
	}

	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	outcome, err := h.service.Generate(c.Request.Context(), in, confirm)
	switch {
	case errors.Is(err, service.ErrConfirmationRequired):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Data:    GenerateResponse{MissingDEA: outcome.MissingDEA},
			Error:   "prescribers missing from the practitioner reference; resubmit with confirm=true",
		})
		return
	case errors.Is(err, generator.ErrGeneration):
		h.logger.Error("Generation failed", "error", err)
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Error("Generate request failed", "error", err)
		fail(c, http.StatusInternalServerError, "failed to generate template")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    GenerateResponse{Run: outcome.Run, MissingDEA: outcome.MissingDEA},
	})
}

func readUpload(c *gin.Context, field string) (source.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return source.File{}, fmt.Errorf("missing file field %q", field)
	}
	f, err := header.Open()
	if err != nil {
		return source.File{}, fmt.Errorf("failed to open %q: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return source.File{}, fmt.Errorf("failed to read %q: %w", field, err)
	}
	if len(data) == 0 {
		return source.File{}, fmt.Errorf("file field %q is empty", field)
	}
	return source.File{Name: header.Filename, Data: data}, nil
}

// ListRuns handles GET /api/runs
func (h *Handlers) ListRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	if req.Limit <= 0 || req.Limit > maxRunLimit {
		req.Limit = defaultRunLimit
	}

	runs, err := h.service.ListRuns(c.Request.Context(), uint64(req.Limit))
	if err != nil {
		h.logger.Error("Failed to list runs", "error", err)
		fail(c, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*models.GenerationRun{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: runs})
}

// DownloadRun handles GET /api/runs/:id/download
func (h *Handlers) DownloadRun(c *gin.Context) {
	run, f, err := h.service.OpenRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		fail(c, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to open run", "id", c.Param("id"), "error", err)
		fail(c, http.StatusInternalServerError, "failed to open template")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to open template")
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), xlsxContentType, f, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(run.OutputPath)),
	})
}

// GetRules handles GET /api/rules; ?format=yaml returns the rule file
func (h *Handlers) GetRules(c *gin.Context) {
	table, src, err := h.service.Rules(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load rules", "error", err)
		fail(c, http.StatusInternalServerError, "failed to load rules")
		return
	}

	if c.Query("format") == "yaml" {
		doc, err := aig.Marshal(table)
		if err != nil {
			fail(c, http.StatusInternalServerError, "failed to encode rules")
			return
		}
		c.Data(http.StatusOK, yamlContentType, doc)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    RulesResponse{Source: src, Rules: table.Rules(), Shadowed: table.Shadowed()},
	})
}

// PutRules handles PUT /api/rules with a YAML or JSON rule document
func (h *Handlers) PutRules(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, "failed to read body")
		return
	}
	table, err := aig.Parse(body)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	override, err := h.service.SaveRules(c.Request.Context(), table)
	if err != nil {
		h.logger.Error("Failed to save rules", "error", err)
		fail(c, http.StatusInternalServerError, "failed to save rules")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: override})
}

// ResetRules handles DELETE /api/rules
func (h *Handlers) ResetRules(c *gin.Context) {
	if err := h.service.ResetRules(c.Request.Context()); err != nil {
		h.logger.Error("Failed to reset rules", "error", err)
		fail(c, http.StatusInternalServerError, "failed to reset rules")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// AddPractitioner handles POST /api/practitioners
func (h *Handlers) AddPractitioner(c *gin.Context) {
	var p practitioner.Practitioner
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, "invalid practitioner body")
		return
	}

	err := h.service.AddPractitioner(c.Request.Context(), p)
	if errors.Is(err, service.ErrInvalidPractitioner) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Failed to add practitioner", "error", err)
		fail(c, http.StatusInternalServerError, "failed to add practitioner")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: p})
}
