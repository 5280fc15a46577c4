package results

import (
	"context"
	"sort"
	"testing"
	"time"

	callservices "transcriptai/server/modules/calls/application/services"
	callrepositories "transcriptai/server/modules/calls/domain/repositories"
	transcriptionservices "transcriptai/server/modules/transcription/application/services"
	transcriptionrepositories "transcriptai/server/modules/transcription/domain/repositories"
)

// --- fake call repository ---

type fakeCallRepo struct {
	rows map[string]*callrepositories.Call
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{rows: make(map[string]*callrepositories.Call)}
}

func (f *fakeCallRepo) Save(_ context.Context, call *callrepositories.Call) error {
	cp := *call
	f.rows[call.ID] = &cp
	return nil
}

func (f *fakeCallRepo) FindByID(_ context.Context, id string) (*callrepositories.Call, error) {
	if row, ok := f.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, errNotFound
}

func (f *fakeCallRepo) Update(_ context.Context, call *callrepositories.Call) error {
	if _, ok := f.rows[call.ID]; !ok {
		return errNotFound
	}
	cp := *call
	f.rows[call.ID] = &cp
	return nil
}

func (f *fakeCallRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return errNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeCallRepo) FindByStatus(_ context.Context, status string) ([]*callrepositories.Call, error) {
	var out []*callrepositories.Call
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCallRepo) FindByTimeRange(_ context.Context, start, end time.Time) ([]*callrepositories.Call, error) {
	var out []*callrepositories.Call
	for _, r := range f.rows {
		if !r.CreatedAt.Before(start) && !r.CreatedAt.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCallRepo) List(_ context.Context, filter callrepositories.ListFilter) ([]*callrepositories.Call, int64, error) {
	var matched []*callrepositories.Call
	for _, r := range f.rows {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && r.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && r.CreatedAt.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			if filter.Direction == "asc" {
				return matched[i].ID < matched[j].ID
			}
			return matched[i].ID > matched[j].ID
		}
		if filter.Direction == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeCallRepo) DeleteAll(_ context.Context) error {
	f.rows = make(map[string]*callrepositories.Call)
	return nil
}

// --- fake transcript repository ---

type fakeTranscriptRepo struct {
	rows map[string]*transcriptionrepositories.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{rows: make(map[string]*transcriptionrepositories.Transcript)}
}

func (f *fakeTranscriptRepo) Save(_ context.Context, t *transcriptionrepositories.Transcript) error {
	cp := *t
	f.rows[t.CallID] = &cp
	return nil
}

func (f *fakeTranscriptRepo) FindByCallID(_ context.Context, callID string) (*transcriptionrepositories.Transcript, error) {
	if row, ok := f.rows[callID]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, errNotFound
}

func (f *fakeTranscriptRepo) Upsert(ctx context.Context, t *transcriptionrepositories.Transcript) error {
	return f.Save(ctx, t)
}

func (f *fakeTranscriptRepo) DeleteByCallID(_ context.Context, callID string) error {
	delete(f.rows, callID)
	return nil
}

func (f *fakeTranscriptRepo) DeleteAll(_ context.Context) error {
	f.rows = make(map[string]*transcriptionrepositories.Transcript)
	return nil
}

// --- fake analysis repository ---

type fakeAnalysisRepo struct {
	rows map[string][]*callrepositories.Analysis
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{rows: make(map[string][]*callrepositories.Analysis)}
}

func (f *fakeAnalysisRepo) Save(_ context.Context, a *callrepositories.Analysis) error {
	cp := *a
	f.rows[a.CallID] = append(f.rows[a.CallID], &cp)
	return nil
}

func (f *fakeAnalysisRepo) FindByCallID(_ context.Context, callID string) ([]*callrepositories.Analysis, error) {
	return f.rows[callID], nil
}

func (f *fakeAnalysisRepo) FindLatestByCallID(_ context.Context, callID string) (*callrepositories.Analysis, error) {
	rows := f.rows[callID]
	if len(rows) == 0 {
		return nil, errNotFound
	}
	return rows[len(rows)-1], nil
}

func (f *fakeAnalysisRepo) DeleteByCallID(_ context.Context, callID string) error {
	delete(f.rows, callID)
	return nil
}

func (f *fakeAnalysisRepo) DeleteAll(_ context.Context) error {
	f.rows = make(map[string][]*callrepositories.Analysis)
	return nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

var errNotFound = notFoundErr{}

// --- test harness ---

func testService(t *testing.T) (*Service, *fakeCallRepo, *fakeTranscriptRepo, *fakeAnalysisRepo) {
	t.Helper()
	callRepo := newFakeCallRepo()
	transcriptRepo := newFakeTranscriptRepo()
	analysisRepo := newFakeAnalysisRepo()

	calls := callservices.NewCallService(callRepo)
	transcripts := transcriptionservices.NewTranscriptService(transcriptRepo)
	analyses := callservices.NewAnalysisService(analysisRepo)

	return NewService(calls, callRepo, transcripts, analyses, ""), callRepo, transcriptRepo, analysisRepo
}

func seedCall(t *testing.T, repo *fakeCallRepo, id, status string, createdAt time.Time) {
	t.Helper()
	repo.rows[id] = &callrepositories.Call{
		FilePath:         "/tmp/" + id + ".wav",
		OriginalFilename: id + ".wav",
		Status:           status,
	}
	repo.rows[id].SetID(id)
	repo.rows[id].CreatedAt = createdAt
}

func TestService_ListOrdersNewestFirstByDefault(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, _, _ := testService(t)

	base := time.Now().Add(-time.Hour)
	seedCall(t, callRepo, "call-1", "completed", base)
	seedCall(t, callRepo, "call-2", "completed", base.Add(time.Minute))
	seedCall(t, callRepo, "call-3", "completed", base.Add(2*time.Minute))

	result, err := svc.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected total 3, got %d", result.Total)
	}
	if result.Results[0].Call.GetID() != "call-3" {
		t.Errorf("expected call-3 first (newest), got %s", result.Results[0].Call.GetID())
	}
	if result.PageSize != defaultLimit {
		t.Errorf("expected default page size %d, got %d", defaultLimit, result.PageSize)
	}
}

func TestService_ListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, _, _ := testService(t)

	now := time.Now()
	seedCall(t, callRepo, "call-1", "completed", now)
	seedCall(t, callRepo, "call-2", "failed", now)

	result, err := svc.List(ctx, ListQuery{Status: "failed"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 1 || result.Results[0].Call.GetID() != "call-2" {
		t.Fatalf("expected only call-2, got %+v", result.Results)
	}
}

func TestService_ListJoinsTranscriptAndLatestAnalysis(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, transcriptRepo, analysisRepo := testService(t)

	now := time.Now()
	seedCall(t, callRepo, "call-1", "completed", now)
	transcriptRepo.rows["call-1"] = &transcriptionrepositories.Transcript{CallID: "call-1", Text: "hello there", Language: "en"}
	analysisRepo.rows["call-1"] = []*callrepositories.Analysis{{CallID: "call-1", Sentiment: "positive", EscalationRisk: "low"}}

	result, err := svc.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := result.Results[0]
	if got.Language != "en" || got.Preview != "hello there" {
		t.Errorf("expected joined transcript fields, got %+v", got)
	}
	if !got.HasResults || got.Sentiment != "positive" {
		t.Errorf("expected joined analysis fields, got %+v", got)
	}
}

func TestService_ListMissingChildrenYieldNullFieldsNotExclusion(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, _, _ := testService(t)
	seedCall(t, callRepo, "call-1", "uploaded", time.Now())

	result, err := svc.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected the call to still be listed without a transcript, got total %d", result.Total)
	}
	if result.Results[0].HasResults {
		t.Errorf("expected HasResults false with no analysis yet")
	}
}

func TestService_DetailReturnsNewestAnalysisFirst(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, transcriptRepo, analysisRepo := testService(t)

	seedCall(t, callRepo, "call-1", "completed", time.Now())
	transcriptRepo.rows["call-1"] = &transcriptionrepositories.Transcript{CallID: "call-1", Text: "hi"}
	analysisRepo.rows["call-1"] = []*callrepositories.Analysis{
		{CallID: "call-1", Intent: "first"},
		{CallID: "call-1", Intent: "second"},
	}

	detail, err := svc.Detail(ctx, "call-1")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.Transcript == nil || detail.Transcript.Text != "hi" {
		t.Errorf("expected transcript joined into detail")
	}
	if len(detail.Analyses) != 2 || detail.Analyses[0].Intent != "second" {
		t.Errorf("expected newest-first analyses, got %+v", detail.Analyses)
	}
}

func TestService_DeleteCascadesChildrenBeforeCallRow(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, transcriptRepo, analysisRepo := testService(t)

	seedCall(t, callRepo, "call-1", "completed", time.Now())
	transcriptRepo.rows["call-1"] = &transcriptionrepositories.Transcript{CallID: "call-1", Text: "hi"}
	analysisRepo.rows["call-1"] = []*callrepositories.Analysis{{CallID: "call-1"}}

	if err := svc.Delete(ctx, "call-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := callRepo.rows["call-1"]; ok {
		t.Error("expected call row removed")
	}
	if _, ok := transcriptRepo.rows["call-1"]; ok {
		t.Error("expected transcript row removed")
	}
	if rows := analysisRepo.rows["call-1"]; len(rows) != 0 {
		t.Error("expected analysis rows removed")
	}
}

func TestService_ClearAllRemovesEveryTable(t *testing.T) {
	ctx := context.Background()
	svc, callRepo, transcriptRepo, analysisRepo := testService(t)

	seedCall(t, callRepo, "call-1", "completed", time.Now())
	seedCall(t, callRepo, "call-2", "completed", time.Now())
	transcriptRepo.rows["call-1"] = &transcriptionrepositories.Transcript{CallID: "call-1"}
	analysisRepo.rows["call-1"] = []*callrepositories.Analysis{{CallID: "call-1"}}

	if err := svc.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if len(callRepo.rows) != 0 || len(transcriptRepo.rows) != 0 || len(analysisRepo.rows) != 0 {
		t.Error("expected every table emptied")
	}
}
