// Package results implements the results query layer (C8) and the export
// layer (C9): read-only access over persisted calls/transcripts/analyses,
// cascading deletes, and transcript-to-document conversion.
package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	callservices "transcriptai/server/modules/calls/application/services"
	callentities "transcriptai/server/modules/calls/domain/entities"
	callrepositories "transcriptai/server/modules/calls/domain/repositories"
	transcriptionservices "transcriptai/server/modules/transcription/application/services"
	transcriptionentities "transcriptai/server/modules/transcription/domain/entities"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// ListQuery is the filter/sort/pagination input for List. Sort is fixed to
// created_at (the only supported field); a caller-requested field that
// isn't created_at is silently ignored rather than rejected.
type ListQuery struct {
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Direction string // "asc" | "desc", default "desc"
	Limit     int
	Offset    int
}

// Summary is one row of a list response: the call plus its (possibly
// absent) transcript and latest analysis, joined in rather than excluded.
type Summary struct {
	Call       *callentities.Call
	Language   string
	Preview    string
	Sentiment  string
	Risk       string
	HasResults bool
}

// ListResult is the paginated response shape of List.
type ListResult struct {
	Results  []Summary
	Total    int64
	Page     int
	PageSize int
}

// Detail is the full joined view returned by Detail: the call, its
// transcript (nil if none), and its full analysis history, newest first.
type Detail struct {
	Call       *callentities.Call
	Transcript *transcriptionentities.Transcript
	Analyses   []*callentities.Analysis
}

// Service implements the results query layer over the three persisted
// aggregates. It never mutates a Call/Transcript/Analysis itself; List and
// Detail are pure reads, Delete/ClearAll remove rows and files.
type Service struct {
	calls       *callservices.CallService
	callRepo    callrepositories.CallRepository
	transcripts *transcriptionservices.TranscriptService
	analyses    *callservices.AnalysisService
	uploadRoot  string
}

// NewService wires the results layer's collaborators. uploadRoot is the
// directory clear_all recursively empties.
func NewService(
	calls *callservices.CallService,
	callRepo callrepositories.CallRepository,
	transcripts *transcriptionservices.TranscriptService,
	analyses *callservices.AnalysisService,
	uploadRoot string,
) *Service {
	return &Service{
		calls:       calls,
		callRepo:    callRepo,
		transcripts: transcripts,
		analyses:    analyses,
		uploadRoot:  uploadRoot,
	}
}

// List returns a page of calls matching q, joined with their transcript
// preview and latest analysis. A call with no transcript or no analysis
// yet simply carries zero-value fields (HasResults distinguishes the two).
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	direction := strings.ToLower(q.Direction)
	if direction != "asc" {
		direction = "desc"
	}

	filter := callrepositories.ListFilter{
		Status:    q.Status,
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
		Direction: direction,
		Limit:     limit,
		Offset:    offset,
	}
	rows, total, err := s.callRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}

	mapper := callservices.NewCallMapper()
	results := make([]Summary, 0, len(rows))
	for _, row := range rows {
		call := mapper.ToDomain(*row)
		summary := Summary{Call: call}

		if t, err := s.transcripts.GetByCallID(ctx, call.GetID()); err == nil && t != nil {
			summary.Language = t.Language
			summary.Preview = preview(t.Text)
		}
		if a, err := s.analyses.Latest(ctx, call.GetID()); err == nil && a != nil {
			summary.Sentiment = string(a.Sentiment)
			summary.Risk = string(a.EscalationRisk)
			summary.HasResults = true
		}
		results = append(results, summary)
	}

	page := offset/limit + 1
	return &ListResult{Results: results, Total: total, Page: page, PageSize: limit}, nil
}

// Detail loads the full joined view for one call.
func (s *Service) Detail(ctx context.Context, callID string) (*Detail, error) {
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Call: call}

	if t, err := s.transcripts.GetByCallID(ctx, callID); err == nil {
		detail.Transcript = t
	}
	if history, err := s.analyses.History(ctx, callID); err == nil {
		// History returns oldest-first; detail reads more naturally newest-first.
		detail.Analyses = reverseAnalyses(history)
	}
	return detail, nil
}

// Delete cascades: original file from disk, then transcript/analysis rows,
// then the call row itself. File-removal failures are swallowed (the row
// deletion still proceeds) since a missing or already-removed file must
// never block clearing the database record.
func (s *Service) Delete(ctx context.Context, callID string) error {
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return err
	}

	if call.FilePath != "" {
		_ = os.Remove(call.FilePath)
	}
	if err := s.transcripts.DeleteByCallID(ctx, callID); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	if err := s.analyses.DeleteByCallID(ctx, callID); err != nil {
		return fmt.Errorf("delete analyses: %w", err)
	}
	if err := s.calls.Delete(ctx, callID); err != nil {
		return fmt.Errorf("delete call: %w", err)
	}
	return nil
}

// ClearAll recursively removes every file under the upload root, then
// every child row, then every call row, in that order.
func (s *Service) ClearAll(ctx context.Context) error {
	if s.uploadRoot != "" {
		entries, err := os.ReadDir(s.uploadRoot)
		if err == nil {
			for _, e := range entries {
				_ = os.RemoveAll(filepath.Join(s.uploadRoot, e.Name()))
			}
		}
	}
	if err := s.transcripts.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear transcripts: %w", err)
	}
	if err := s.analyses.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear analyses: %w", err)
	}
	if err := s.callRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear calls: %w", err)
	}
	return nil
}

// preview truncates a transcript to a short lead-in for list rows.
func preview(text string) string {
	const maxRunes = 160
	r := []rune(strings.TrimSpace(text))
	if len(r) <= maxRunes {
		return string(r)
	}
	return string(r[:maxRunes]) + "…"
}

// reverseAnalyses flips History's oldest-first order to newest-first.
func reverseAnalyses(history []*callentities.Analysis) []*callentities.Analysis {
	out := make([]*callentities.Analysis, len(history))
	for i, a := range history {
		out[len(history)-1-i] = a
	}
	return out
}
