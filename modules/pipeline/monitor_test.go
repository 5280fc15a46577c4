package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func testMonitor(t *testing.T) *Monitor {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return NewMonitor(metrics)
}

func TestMonitor_RecordStageTracksActiveAndHistory(t *testing.T) {
	ctx := context.Background()
	mon := testMonitor(t)

	mon.Start(ctx, "call-1")
	if active := mon.Active(); len(active) != 1 {
		t.Fatalf("expected 1 active run, got %d", len(active))
	}

	start := time.Now().Add(-50 * time.Millisecond)
	mon.RecordStage(ctx, "call-1", "upload", start, nil)
	mon.Finish(ctx, "call-1", false)

	if active := mon.Active(); len(active) != 0 {
		t.Errorf("expected 0 active runs after Finish, got %d", len(active))
	}
	history := mon.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].Status != "completed" {
		t.Errorf("expected status completed, got %s", history[0].Status)
	}
	if len(history[0].Stages) != 1 || history[0].Stages[0].Stage != "upload" {
		t.Errorf("expected one recorded upload stage, got %+v", history[0].Stages)
	}
}

func TestMonitor_FailedStageSetsFailedStepAndStatus(t *testing.T) {
	ctx := context.Background()
	mon := testMonitor(t)

	mon.Start(ctx, "call-2")
	mon.RecordStage(ctx, "call-2", "transcription", time.Now(), errors.New("server unreachable"))
	mon.Finish(ctx, "call-2", true)

	history := mon.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].Status != "failed" {
		t.Errorf("expected status failed, got %s", history[0].Status)
	}
	if history[0].FailedStep != "transcription" {
		t.Errorf("expected failed_step transcription, got %q", history[0].FailedStep)
	}
}

func TestMonitor_StageDurationAlertRule(t *testing.T) {
	ctx := context.Background()
	mon := testMonitor(t)

	mon.Start(ctx, "call-3")
	mon.RecordStage(ctx, "call-3", "transcription", time.Now().Add(-61*time.Second), nil)

	alerts := mon.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for a >60s stage, got %d", len(alerts))
	}
	if alerts[0].Rule != "stage_duration" {
		t.Errorf("expected rule stage_duration, got %s", alerts[0].Rule)
	}
}

func TestMonitor_PerformanceSummaryAggregatesRollingWindow(t *testing.T) {
	ctx := context.Background()
	mon := testMonitor(t)

	mon.Start(ctx, "call-4")
	mon.RecordStage(ctx, "call-4", "audio_processing", time.Now().Add(-1*time.Second), nil)
	mon.RecordStage(ctx, "call-4", "audio_processing", time.Now().Add(-2*time.Second), errors.New("retry exhausted"))

	summary := mon.PerformanceSummary()
	perf, ok := summary.Stages["audio_processing"]
	if !ok {
		t.Fatal("expected an audio_processing entry in the performance summary")
	}
	if perf.Count != 2 {
		t.Errorf("expected count 2, got %d", perf.Count)
	}
	if perf.SuccessRate != 0.5 {
		t.Errorf("expected success rate 0.5, got %v", perf.SuccessRate)
	}
	if len(perf.Recent) != 2 {
		t.Errorf("expected 2 recent durations, got %d", len(perf.Recent))
	}
}

func TestMonitor_AlertsBoundedAtTen(t *testing.T) {
	ctx := context.Background()
	mon := testMonitor(t)
	mon.Start(ctx, "call-5")

	for i := 0; i < 15; i++ {
		mon.raiseAlert(ctx, "call-5", "stage_duration", "synthetic")
	}
	if len(mon.Alerts()) != 10 {
		t.Errorf("expected Alerts() to cap at 10, got %d", len(mon.Alerts()))
	}
	if len(mon.alerts) != 15 {
		// the underlying ring itself caps at maxAlerts (100), not 10
		t.Errorf("expected the internal ring to hold all 15 (< maxAlerts), got %d", len(mon.alerts))
	}
}
