package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	maxHistory    = 1000
	maxAlerts     = 100
	rollingWindow = 100

	stageDurationAlertThreshold    = 60 * time.Second
	pipelineDurationAlertThreshold = 300 * time.Second
	cpuAlertPercent                = 90.0
	memAlertPercent                = 85.0
)

// StageRecord is one completed stage's observability entry.
type StageRecord struct {
	Stage           string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds float64
	Outcome         string // "success" | "error"
	Error           string
}

// Run is a single call's pipeline run, active or finished.
type Run struct {
	CallID     string
	StartedAt  time.Time
	EndedAt    time.Time
	Status     string // "running" | "completed" | "failed"
	FailedStep string
	Stages     []StageRecord
}

// Alert is a single threshold-breach record. Alerts are informational only;
// raising one never blocks or fails the pipeline run that triggered it.
type Alert struct {
	CallID  string
	Rule    string
	Message string
	At      time.Time
}

type stageStats struct {
	durations []float64 // rolling window, oldest dropped, capped at rollingWindow
	successes int
	errors    int
}

// Monitor is the in-memory registry backing /monitor/active, /history,
// /performance and /alerts. It also forwards every stage observation to an
// OpenTelemetry Metrics instance so the same data is scrapable externally;
// the bounded history/alert rings and the recent[:10] shaping in
// PerformanceSummary have no OTel equivalent and are kept here by hand.
type Monitor struct {
	mu      sync.Mutex
	active  map[string]*Run
	history []*Run
	alerts  []Alert
	stats   map[string]*stageStats
	metrics *Metrics
}

// NewMonitor creates a monitor recording into metrics. A nil metrics uses
// DefaultMetrics(), which is backed by a no-op provider until
// InitMeterProvider has run.
func NewMonitor(metrics *Metrics) *Monitor {
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	return &Monitor{
		active:  make(map[string]*Run),
		stats:   make(map[string]*stageStats),
		metrics: metrics,
	}
}

// Start registers a new pipeline run for callID.
func (mon *Monitor) Start(ctx context.Context, callID string) {
	mon.mu.Lock()
	mon.active[callID] = &Run{CallID: callID, StartedAt: time.Now(), Status: "running"}
	mon.mu.Unlock()
	mon.metrics.ActivePipelines.Add(ctx, 1)
}

// RecordStage records one stage's outcome, updates rolling stats, and
// applies the stage-duration alert rule plus a resource snapshot.
func (mon *Monitor) RecordStage(ctx context.Context, callID, stage string, start time.Time, stageErr error) {
	duration := time.Since(start)
	outcome := "success"
	errMsg := ""
	if stageErr != nil {
		outcome = "error"
		errMsg = stageErr.Error()
	}
	mon.metrics.recordStage(ctx, stage, duration.Seconds(), outcome)

	mon.mu.Lock()
	if run, ok := mon.active[callID]; ok {
		run.Stages = append(run.Stages, StageRecord{
			Stage:           stage,
			StartedAt:       start,
			EndedAt:         start.Add(duration),
			DurationSeconds: duration.Seconds(),
			Outcome:         outcome,
			Error:           errMsg,
		})
		if stageErr != nil {
			run.FailedStep = stage
		}
	}
	st, ok := mon.stats[stage]
	if !ok {
		st = &stageStats{}
		mon.stats[stage] = st
	}
	st.durations = append(st.durations, duration.Seconds())
	if len(st.durations) > rollingWindow {
		st.durations = st.durations[1:]
	}
	if stageErr != nil {
		st.errors++
	} else {
		st.successes++
	}
	mon.mu.Unlock()

	if duration > stageDurationAlertThreshold {
		mon.raiseAlert(ctx, callID, "stage_duration", fmt.Sprintf("stage %q took %.1fs", stage, duration.Seconds()))
	}
	usage := sampleResourceUsage()
	if usage.cpuPercent > cpuAlertPercent {
		mon.raiseAlert(ctx, callID, "cpu", fmt.Sprintf("cpu usage at %.1f%%", usage.cpuPercent))
	}
	if usage.memPercent > memAlertPercent {
		mon.raiseAlert(ctx, callID, "memory", fmt.Sprintf("memory usage at %.1f%%", usage.memPercent))
	}
}

// Finish closes out callID's run, moving it from active to history.
func (mon *Monitor) Finish(ctx context.Context, callID string, failed bool) {
	mon.mu.Lock()
	run, ok := mon.active[callID]
	if !ok {
		mon.mu.Unlock()
		return
	}
	run.EndedAt = time.Now()
	if failed {
		run.Status = "failed"
	} else {
		run.Status = "completed"
	}
	delete(mon.active, callID)
	mon.history = append(mon.history, run)
	if len(mon.history) > maxHistory {
		mon.history = mon.history[1:]
	}
	total := run.EndedAt.Sub(run.StartedAt)
	mon.mu.Unlock()

	mon.metrics.ActivePipelines.Add(ctx, -1)
	if total > pipelineDurationAlertThreshold {
		mon.raiseAlert(ctx, callID, "total_duration", fmt.Sprintf("pipeline took %.1fs", total.Seconds()))
	}
}

func (mon *Monitor) raiseAlert(ctx context.Context, callID, rule, message string) {
	mon.metrics.recordAlert(ctx, rule)
	mon.mu.Lock()
	mon.alerts = append(mon.alerts, Alert{CallID: callID, Rule: rule, Message: message, At: time.Now()})
	if len(mon.alerts) > maxAlerts {
		mon.alerts = mon.alerts[1:]
	}
	mon.mu.Unlock()
}

// Active returns a snapshot of every in-flight run.
func (mon *Monitor) Active() []*Run {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	out := make([]*Run, 0, len(mon.active))
	for _, run := range mon.active {
		cp := *run
		out = append(out, &cp)
	}
	return out
}

// History returns a snapshot of the bounded run history, oldest first.
func (mon *Monitor) History() []*Run {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	out := make([]*Run, len(mon.history))
	for i, run := range mon.history {
		cp := *run
		out[i] = &cp
	}
	return out
}

// Alerts returns the last 10 alerts, most recent last.
func (mon *Monitor) Alerts() []Alert {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return lastN(mon.alerts, 10)
}

// StagePerformance is one stage's rolling-window summary.
type StagePerformance struct {
	Count       int
	AvgSeconds  float64
	MinSeconds  float64
	MaxSeconds  float64
	SuccessRate float64
	Recent      []float64 // last 10 durations, most recent last
}

// PerformanceSummary is the full payload behind GET /monitor/performance.
type PerformanceSummary struct {
	Stages       map[string]StagePerformance
	ActiveCount  int
	RecentAlerts []Alert
}

// PerformanceSummary aggregates the rolling window into per-stage
// count/avg/min/max/success_rate plus the last 10 durations, per spec.
func (mon *Monitor) PerformanceSummary() PerformanceSummary {
	mon.mu.Lock()
	defer mon.mu.Unlock()

	stages := make(map[string]StagePerformance, len(mon.stats))
	for stage, st := range mon.stats {
		n := len(st.durations)
		perf := StagePerformance{Count: n, Recent: lastNFloat(st.durations, 10)}
		if n > 0 {
			sum, min, max := 0.0, st.durations[0], st.durations[0]
			for _, d := range st.durations {
				sum += d
				if d < min {
					min = d
				}
				if d > max {
					max = d
				}
			}
			perf.AvgSeconds = sum / float64(n)
			perf.MinSeconds = min
			perf.MaxSeconds = max
		}
		total := st.successes + st.errors
		if total > 0 {
			perf.SuccessRate = float64(st.successes) / float64(total)
		}
		stages[stage] = perf
	}

	return PerformanceSummary{
		Stages:       stages,
		ActiveCount:  len(mon.active),
		RecentAlerts: lastN(mon.alerts, 10),
	}
}

func lastN(items []Alert, n int) []Alert {
	if len(items) <= n {
		out := make([]Alert, len(items))
		copy(out, items)
		return out
	}
	out := make([]Alert, n)
	copy(out, items[len(items)-n:])
	return out
}

func lastNFloat(items []float64, n int) []float64 {
	if len(items) <= n {
		out := make([]float64, len(items))
		copy(out, items)
		return out
	}
	out := make([]float64, n)
	copy(out, items[len(items)-n:])
	return out
}

type resourceUsage struct {
	cpuPercent float64
	memPercent float64
}

// sampleResourceUsage is a best-effort, dependency-free approximation: no
// psutil-equivalent exists in the idiomatic Go ecosystem, so memory uses
// runtime.MemStats (heap-in-use as a share of all memory the runtime obtained
// from the OS, MemStats.Sys) and
// cpu uses goroutine pressure against GOMAXPROCS as a coarse proxy. Both
// are heuristics meant to drive the alert rule's threshold crossing, not
// accurate OS-level telemetry.
func sampleResourceUsage() resourceUsage {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	memPercent := 0.0
	if mem.Sys > 0 {
		memPercent = float64(mem.HeapInuse) / float64(mem.Sys) * 100
	}

	procs := runtime.GOMAXPROCS(0)
	cpuPercent := 0.0
	if procs > 0 {
		cpuPercent = float64(runtime.NumGoroutine()) / float64(procs*50) * 100
		if cpuPercent > 100 {
			cpuPercent = 100
		}
	}

	return resourceUsage{cpuPercent: cpuPercent, memPercent: memPercent}
}
