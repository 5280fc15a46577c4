package container

import (
	"context"
	"fmt"
	"log"

	"transcriptai/server/modules/analysis"
	callservices "transcriptai/server/modules/calls/application/services"
	callrepositories "transcriptai/server/modules/calls/domain/repositories"
	callinfra "transcriptai/server/modules/calls/infrastructure/repositories"
	"transcriptai/server/modules/events"
	"transcriptai/server/modules/live"
	"transcriptai/server/modules/media"
	"transcriptai/server/modules/models"
	"transcriptai/server/modules/pipeline"
	"transcriptai/server/modules/results"
	transcriptionservices "transcriptai/server/modules/transcription/application/services"
	transcriptionrepositories "transcriptai/server/modules/transcription/domain/repositories"
	transcriptioninfra "transcriptai/server/modules/transcription/infrastructure/repositories"
	"transcriptai/server/modules/transcription/infrastructure/providers"
	"transcriptai/server/seedwork/infrastructure/config"
	"transcriptai/server/seedwork/infrastructure/database"
)

// Container holds every wired dependency for the audio intelligence
// pipeline. Desktop mode means there is exactly one of these per process;
// it is built once in main and handed to the HTTP layer.
type Container struct {
	Config *config.Config

	// Repositories
	CallRepository       callrepositories.CallRepository
	TranscriptRepository transcriptionrepositories.TranscriptRepository
	AnalysisRepository   callrepositories.AnalysisRepository

	// Services
	CallService       *callservices.CallService
	TranscriptService *transcriptionservices.TranscriptService
	AnalysisService   *callservices.AnalysisService
	Analyzer          *analysis.Service

	// Collaborators (C1-C5)
	TranscriptionClient *providers.Client
	MediaProcessor      *media.Processor
	ChunkDriver         *transcriptionservices.ChunkDriver
	EventBus            *events.Bus
	LiveManager         *live.Manager
	ModelsManager       *models.Manager

	// Pipeline (C6/C7) and results (C8/C9)
	PipelineMetrics      *pipeline.Metrics
	PipelineMonitor      *pipeline.Monitor
	PipelineOrchestrator *pipeline.Orchestrator
	ResultsService       *results.Service

	// MetricsShutdown tears down the OTel meter provider; call it from
	// main's deferred teardown.
	MetricsShutdown func(context.Context) error
}

// NewContainer loads configuration, opens the database, runs migrations,
// and wires every module's collaborators.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := database.Initialize(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := database.RunMigrations("migrations"); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	callRepo := callinfra.NewGormCallRepository()
	transcriptRepo := transcriptioninfra.NewGormTranscriptRepository()
	analysisRepo := callinfra.NewGormAnalysisRepository()

	callService := callservices.NewCallService(callRepo)
	transcriptService := transcriptionservices.NewTranscriptService(transcriptRepo)
	analysisService := callservices.NewAnalysisService(analysisRepo)
	analyzer := analysis.NewService(analysisService)

	client := providers.NewClient(cfg.Models.WhisperPort, cfg.Desktop.DataDir)
	processor := media.NewProcessor("", "")
	chunkDriver := transcriptionservices.NewChunkDriver(client, processor)
	bus := events.NewBus()

	liveCfg := live.Config{
		ProgressiveEnabled: cfg.Live.TranscriptionEnabled,
		BatchOnly:          cfg.Live.BatchOnly,
		ChunkSec:           cfg.Live.ChunkSec,
		StrideSec:          cfg.Live.StrideSec,
		ForceLanguage:      cfg.Live.ForceLanguage,
	}
	liveManager := live.NewManager(liveCfg, cfg.Desktop.DataDir, client, processor, bus, callService, transcriptService, analyzer)

	modelsManager := models.NewManager(cfg.Desktop.DataDir, client)

	shutdown, err := pipeline.InitMeterProvider()
	if err != nil {
		return nil, fmt.Errorf("init meter provider: %w", err)
	}
	metrics := pipeline.DefaultMetrics()
	monitor := pipeline.NewMonitor(metrics)

	pipelineCfg := pipeline.Config{
		ProgressiveEnabled: cfg.Live.TranscriptionEnabled,
		BatchOnly:          cfg.Live.BatchOnly,
		ChunkSec:           cfg.Live.ChunkSec,
		StrideSec:          cfg.Live.StrideSec,
		ForceLanguage:      cfg.Live.ForceLanguage,
	}
	orchestrator := pipeline.NewOrchestrator(
		pipelineCfg,
		cfg.Desktop.UploadsDir,
		client,
		processor,
		chunkDriver,
		bus,
		callService,
		transcriptService,
		analyzer,
		monitor,
	)

	resultsService := results.NewService(callService, callRepo, transcriptService, analysisService, cfg.Desktop.UploadsDir)

	log.Printf("container wired: data dir %s, uploads %s", cfg.Desktop.DataDir, cfg.Desktop.UploadsDir)

	return &Container{
		Config: cfg,

		CallRepository:       callRepo,
		TranscriptRepository: transcriptRepo,
		AnalysisRepository:   analysisRepo,

		CallService:       callService,
		TranscriptService: transcriptService,
		AnalysisService:   analysisService,
		Analyzer:          analyzer,

		TranscriptionClient: client,
		MediaProcessor:      processor,
		ChunkDriver:         chunkDriver,
		EventBus:            bus,
		LiveManager:         liveManager,
		ModelsManager:       modelsManager,

		PipelineMetrics:      metrics,
		PipelineMonitor:      monitor,
		PipelineOrchestrator: orchestrator,
		ResultsService:       resultsService,

		MetricsShutdown: shutdown,
	}, nil
}

// GetConfig returns the configuration.
func (c *Container) GetConfig() *config.Config {
	return c.Config
}
