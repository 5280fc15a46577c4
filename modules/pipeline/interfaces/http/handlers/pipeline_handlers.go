package handlers

import (
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"transcriptai/server/modules/pipeline"
	"transcriptai/server/modules/pipeline/interfaces/http/dtos"
	"transcriptai/server/modules/results"
	"transcriptai/server/seedwork/application/middleware"
	"transcriptai/server/seedwork/domain"

	"github.com/gin-gonic/gin"
)

const maxMultipartMemory = 32 << 20 // 32 MiB held in memory before spilling to disk

// PipelineHandlers wraps the orchestrator, results service, and monitor
// behind the HTTP surface for upload, results, reanalysis, and monitoring.
type PipelineHandlers struct {
	orchestrator *pipeline.Orchestrator
	results      *results.Service
	monitor      *pipeline.Monitor
}

// NewPipelineHandlers creates pipeline/monitor handlers.
func NewPipelineHandlers(orchestrator *pipeline.Orchestrator, resultsSvc *results.Service, monitor *pipeline.Monitor) *PipelineHandlers {
	return &PipelineHandlers{orchestrator: orchestrator, results: resultsSvc, monitor: monitor}
}

func (h *PipelineHandlers) openUpload(c *gin.Context) (*multipart.FileHeader, multipart.File, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, domain.NewDomainError(domain.ErrValidation, "malformed multipart upload", err)
	}
	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, domain.NewDomainError(domain.ErrValidation, "missing \"file\" form field", err)
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, domain.NewDomainError(domain.ErrValidation, "could not open uploaded file", err)
	}
	return header, f, nil
}

// Upload handles POST /upload: store the file, no pipeline run.
func (h *PipelineHandlers) Upload(c *gin.Context) {
	header, f, err := h.openUpload(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	defer f.Close()

	call, err := h.orchestrator.Upload(c.Request.Context(), f, header.Size, header.Filename)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.ToCallResponse(call))
}

// RunUpload handles POST /pipeline/upload: store the file and run the full
// pipeline before responding.
func (h *PipelineHandlers) RunUpload(c *gin.Context) {
	header, f, err := h.openUpload(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	defer f.Close()

	call, err := h.orchestrator.RunUpload(c.Request.Context(), f, header.Size, header.Filename)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToCallResponse(call))
}

// List handles GET /pipeline/results.
func (h *PipelineHandlers) List(c *gin.Context) {
	q := results.ListQuery{
		Status:    c.Query("status"),
		Direction: c.Query("direction"),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Offset = n
		}
	}

	res, err := h.results.List(c.Request.Context(), q)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToResultsListResponse(res))
}

// Detail handles GET /pipeline/results/{id}.
func (h *PipelineHandlers) Detail(c *gin.Context) {
	detail, err := h.results.Detail(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToDetailResponse(detail))
}

// Delete handles DELETE /pipeline/results/{id}.
func (h *PipelineHandlers) Delete(c *gin.Context) {
	if err := h.results.Delete(c.Request.Context(), c.Param("call_id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearAll handles DELETE /pipeline/results.
func (h *PipelineHandlers) ClearAll(c *gin.Context) {
	if err := h.results.ClearAll(c.Request.Context()); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export handles GET /pipeline/results/{id}/export?format=.
func (h *PipelineHandlers) Export(c *gin.Context) {
	callID := c.Param("call_id")
	format := results.ExportFormat(c.DefaultQuery("format", string(results.FormatTXT)))

	detail, err := h.results.Detail(c.Request.Context(), callID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if detail.Transcript == nil {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrNotFound, "call has no transcript to export", nil))
		return
	}

	data, contentType, filename, err := results.Export(detail.Transcript.Text, format, detail.Call.OriginalFilename)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, data)
}

// Reanalyze handles POST /pipeline/reanalyze/{id}.
func (h *PipelineHandlers) Reanalyze(c *gin.Context) {
	if err := h.orchestrator.Reanalyze(c.Request.Context(), c.Param("call_id")); err != nil {
		middleware.RespondError(c, err)
		return
	}
	detail, err := h.results.Detail(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToDetailResponse(detail))
}

// Active handles GET /monitor/active.
func (h *PipelineHandlers) Active(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.ToRunViews(h.monitor.Active()))
}

// History handles GET /monitor/history.
func (h *PipelineHandlers) History(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.ToRunViews(h.monitor.History()))
}

// Alerts handles GET /monitor/alerts.
func (h *PipelineHandlers) Alerts(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.ToAlertViews(h.monitor.Alerts()))
}

// Performance handles GET /monitor/performance.
func (h *PipelineHandlers) Performance(c *gin.Context) {
	c.JSON(http.StatusOK, dtos.ToPerformanceResponse(h.monitor.PerformanceSummary()))
}
