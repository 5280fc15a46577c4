package routes

import (
	"transcriptai/server/modules/pipeline"
	"transcriptai/server/modules/pipeline/interfaces/http/handlers"

	"github.com/gin-gonic/gin"
)

// PipelineRoutes wires upload, results, reanalysis, monitor, and the
// Prometheus scrape endpoint.
type PipelineRoutes struct {
	handlers *handlers.PipelineHandlers
}

// NewPipelineRoutes creates pipeline routes.
func NewPipelineRoutes(handlers *handlers.PipelineHandlers) *PipelineRoutes {
	return &PipelineRoutes{handlers: handlers}
}

// Setup registers routes under group (typically /api/v1), plus /metrics
// directly on the engine.
func (r *PipelineRoutes) Setup(group *gin.RouterGroup) {
	group.POST("/upload", r.handlers.Upload)

	pipelineGroup := group.Group("/pipeline")
	{
		pipelineGroup.POST("/upload", r.handlers.RunUpload)
		pipelineGroup.GET("/results", r.handlers.List)
		pipelineGroup.GET("/results/:call_id", r.handlers.Detail)
		pipelineGroup.DELETE("/results/:call_id", r.handlers.Delete)
		pipelineGroup.DELETE("/results", r.handlers.ClearAll)
		pipelineGroup.GET("/results/:call_id/export", r.handlers.Export)
		pipelineGroup.POST("/reanalyze/:call_id", r.handlers.Reanalyze)
	}

	monitorGroup := group.Group("/monitor")
	{
		monitorGroup.GET("/active", r.handlers.Active)
		monitorGroup.GET("/history", r.handlers.History)
		monitorGroup.GET("/performance", r.handlers.Performance)
		monitorGroup.GET("/alerts", r.handlers.Alerts)
	}
}

// SetupMetrics mounts the Prometheus scrape endpoint directly on the
// engine, outside the versioned API group.
func SetupMetrics(engine *gin.Engine) {
	engine.GET("/metrics", gin.WrapH(pipeline.MetricsHandler()))
}
