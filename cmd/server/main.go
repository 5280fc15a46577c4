package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	callhandlers "transcriptai/server/modules/calls/interfaces/http/handlers"
	callroutes "transcriptai/server/modules/calls/interfaces/http/routes"
	livehandlers "transcriptai/server/modules/live/interfaces/http/handlers"
	liveroutes "transcriptai/server/modules/live/interfaces/http/routes"
	modelhandlers "transcriptai/server/modules/models/interfaces/http/handlers"
	modelroutes "transcriptai/server/modules/models/interfaces/http/routes"
	pipelinehandlers "transcriptai/server/modules/pipeline/interfaces/http/handlers"
	pipelineroutes "transcriptai/server/modules/pipeline/interfaces/http/routes"
	transcriptionhandlers "transcriptai/server/modules/transcription/interfaces/http/handlers"
	transcriptionroutes "transcriptai/server/modules/transcription/interfaces/http/routes"
	"transcriptai/server/seedwork/application/middleware"
	"transcriptai/server/seedwork/infrastructure/container"
	"transcriptai/server/seedwork/infrastructure/database"

	"github.com/gin-gonic/gin"
)

func main() {
	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("wire container: %v", err)
	}

	if c.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Logger(), middleware.CORS(), middleware.ErrorHandler(), gin.Recovery())

	api := engine.Group("/api/v1")

	callroutes.NewCallRoutes(callhandlers.NewCallHandlers(c.CallService)).Setup(api)
	pipelineroutes.NewPipelineRoutes(pipelinehandlers.NewPipelineHandlers(c.PipelineOrchestrator, c.ResultsService, c.PipelineMonitor)).Setup(api)
	transcriptionroutes.NewStreamRoutes(transcriptionhandlers.NewStreamHandlers(c.EventBus)).Setup(api)
	liveroutes.NewLiveRoutes(livehandlers.NewLiveHandlers(c.LiveManager)).Setup(api)
	modelroutes.NewModelRoutes(modelhandlers.NewModelHandlers(c.ModelsManager)).Setup(api)
	pipelineroutes.SetupMetrics(engine)

	srv := &http.Server{
		Addr:    ":" + c.Config.Server.Port,
		Handler: engine,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	if c.MetricsShutdown != nil {
		if err := c.MetricsShutdown(ctx); err != nil {
			log.Printf("metrics shutdown failed: %v", err)
		}
	}
	if err := database.Close(); err != nil {
		log.Printf("database close failed: %v", err)
	}
}
