package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
)

func newTestPipeline(gw Gateway, store Store, cfg PipelineConfig) *Pipeline {
	return NewPipeline(testLogger(), gw, store, cfg)
}

func wantStatuses(t *testing.T, res *EnrichmentResult, want map[Kind]StageStatus) {
	t.Helper()
	for kind, status := range want {
		got, ok := res.Stage(kind)
		if !ok {
			t.Fatalf("stage %s missing from result", kind)
		}
		if got.Status != status {
			t.Fatalf("stage %s: want=%s got=%s (reason=%q)", kind, status, got.Status, got.Reason)
		}
	}
}

func TestEnrichPopulatesAllStagesThenSkips(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	store := newMemStore(item)
	p := newTestPipeline(gw, store, PipelineConfig{})

	res, err := p.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	wantStatuses(t, res, map[Kind]StageStatus{
		KindChunk:           StageSucceeded,
		KindMnemonic:        StageSucceeded,
		KindRecallQuestions: StageSucceeded,
	})
	if res.JobID == "" || res.ItemID != item.ID {
		t.Fatalf("result identity: job=%q item=%s", res.JobID, res.ItemID)
	}

	stored := store.get(t, item.ID)
	if got := mustStrings(t, stored, content.FieldStudyChunks); !equalStrings(got, []string{"A", "B"}) {
		t.Fatalf("studyChunks: want=[A B] got=%v", got)
	}
	if got := mustStrings(t, stored, content.FieldMnemonics); !equalStrings(got, []string{"Remember ABC"}) {
		t.Fatalf("mnemonics: want=[Remember ABC] got=%v", got)
	}
	if got := mustStrings(t, stored, content.FieldRecallQuestions); !equalStrings(got, []string{"Q1?", "Q2?"}) {
		t.Fatalf("recallQuestions: want=[Q1? Q2?] got=%v", got)
	}
	if stored.Summary != nil {
		t.Fatalf("summary should stay null, got=%q", *stored.Summary)
	}

	again, err := p.Enrich(context.Background(), stored)
	if err != nil {
		t.Fatalf("second Enrich: %v", err)
	}
	if again.Count(StageSkipped) != 3 {
		t.Fatalf("second run: want 3 skipped got=%+v", again.Stages)
	}
	if got := gw.callCount(); got != 3 {
		t.Fatalf("gateway calls across both runs: want=3 got=%d", got)
	}
}

func TestEnrichStageOrder(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	p := newTestPipeline(gw, newMemStore(item), PipelineConfig{})

	if _, err := p.Enrich(context.Background(), item); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	want := []Kind{KindChunk, KindMnemonic, KindRecallQuestions}
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if len(gw.calls) != len(want) {
		t.Fatalf("calls: want=%d got=%d", len(want), len(gw.calls))
	}
	for i, c := range gw.calls {
		if c.kind != want[i] {
			t.Fatalf("call %d: want=%s got=%s", i, want[i], c.kind)
		}
		if i > 0 && c.at.Before(gw.calls[i-1].at) {
			t.Fatalf("call %s started before %s", c.kind, gw.calls[i-1].kind)
		}
	}
}

func TestEnrichMnemonicFailureIsIsolated(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	gw.errs[KindMnemonic] = errBoom
	store := newMemStore(item)
	p := newTestPipeline(gw, store, PipelineConfig{})

	res, err := p.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("Enrich should not fail on a partial failure: %v", err)
	}
	wantStatuses(t, res, map[Kind]StageStatus{
		KindChunk:           StageSucceeded,
		KindMnemonic:        StageFailed,
		KindRecallQuestions: StageSucceeded,
	})
	mn, _ := res.Stage(KindMnemonic)
	if !errors.Is(mn.Err, ErrGatewayUnavailable) || mn.Reason == "" {
		t.Fatalf("mnemonic failure: want ErrGatewayUnavailable with reason, got err=%v reason=%q", mn.Err, mn.Reason)
	}

	stored := store.get(t, item.ID)
	if !stored.Enriched(content.FieldStudyChunks) || !stored.Enriched(content.FieldRecallQuestions) {
		t.Fatalf("chunks and recall questions should be persisted")
	}
	if stored.Enriched(content.FieldMnemonics) {
		t.Fatalf("mnemonics should still be null")
	}

	// A retry only re-runs the failed stage.
	delete(gw.errs, KindMnemonic)
	retry, err := p.Enrich(context.Background(), stored)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	wantStatuses(t, retry, map[Kind]StageStatus{
		KindChunk:           StageSkipped,
		KindMnemonic:        StageSucceeded,
		KindRecallQuestions: StageSkipped,
	})
	if got := gw.callCount(); got != 4 {
		t.Fatalf("gateway calls: want=4 got=%d", got)
	}
}

func TestEnrichMalformedResponse(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	gw.responses[KindChunk] = "Here are some chunks: A, B"
	gw.responses[KindRecallQuestions] = `{"questions":["Q1?"]}`
	store := newMemStore(item)
	p := newTestPipeline(gw, store, PipelineConfig{})

	res, err := p.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	for _, kind := range []Kind{KindChunk, KindRecallQuestions} {
		out, _ := res.Stage(kind)
		if out.Status != StageFailed || !errors.Is(out.Err, ErrGatewayMalformedResponse) {
			t.Fatalf("%s: want malformed failure, got status=%s err=%v", kind, out.Status, out.Err)
		}
	}
	if out, _ := res.Stage(KindMnemonic); out.Status != StageSucceeded {
		t.Fatalf("mnemonic should succeed after chunk failure, got=%s", out.Status)
	}
	if store.get(t, item.ID).Enriched(content.FieldStudyChunks) {
		t.Fatalf("malformed chunk response must not be persisted")
	}
}

func TestEnrichStageTimeoutFailsOnlyThatStage(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	gw.hold[KindChunk] = make(chan struct{}) // never released
	store := newMemStore(item)
	p := newTestPipeline(gw, store, PipelineConfig{StageTimeout: 20 * time.Millisecond})

	res, err := p.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	chunk, _ := res.Stage(KindChunk)
	if chunk.Status != StageFailed || !errors.Is(chunk.Err, ErrGatewayUnavailable) {
		t.Fatalf("timed-out stage: want unavailable failure got status=%s err=%v", chunk.Status, chunk.Err)
	}
	wantStatuses(t, res, map[Kind]StageStatus{
		KindMnemonic:        StageSucceeded,
		KindRecallQuestions: StageSucceeded,
	})
}

func TestEnrichSaveFailureReportsStage(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	store := newMemStore(item)
	store.failSave[content.FieldMnemonics] = errBoom
	p := newTestPipeline(gw, store, PipelineConfig{})

	res, err := p.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	mn, _ := res.Stage(KindMnemonic)
	if mn.Status != StageFailed || !errors.Is(mn.Err, errBoom) {
		t.Fatalf("save failure: want failed/boom got status=%s err=%v", mn.Status, mn.Err)
	}
	if out, _ := res.Stage(KindRecallQuestions); out.Status != StageSucceeded {
		t.Fatalf("recall stage should still run, got=%s", out.Status)
	}
}

func TestEnrichConcurrentCallersWaitAndSkip(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	release := make(chan struct{})
	gw.hold[KindChunk] = release
	store := newMemStore(item)
	p := newTestPipeline(gw, store, PipelineConfig{Concurrency: ConcurrencyWait})

	const callers = 5
	results := make([]*EnrichmentResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Enrich(context.Background(), item)
		}(i)
	}

	<-gw.entered
	close(release)
	wg.Wait()

	succeeded := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		switch {
		case results[i].Count(StageSucceeded) == 3:
			succeeded++
		case results[i].Count(StageSkipped) == 3:
		default:
			t.Fatalf("caller %d: unexpected result %+v", i, results[i].Stages)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one caller should run the stages, got=%d", succeeded)
	}
	if got := gw.callCount(); got != 3 {
		t.Fatalf("gateway calls: want=3 got=%d", got)
	}
	if n := p.locks.size(); n != 0 {
		t.Fatalf("lock entries leaked: %d", n)
	}
}

func TestEnrichRejectModeSignalsAlreadyRunning(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	release := make(chan struct{})
	gw.hold[KindChunk] = release
	p := newTestPipeline(gw, newMemStore(item), PipelineConfig{Concurrency: ConcurrencyReject})

	done := make(chan error, 1)
	go func() {
		_, err := p.Enrich(context.Background(), item)
		done <- err
	}()
	<-gw.entered

	if _, err := p.Enrich(context.Background(), item); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second caller: want ErrAlreadyRunning got=%v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first caller: %v", err)
	}
	if got := gw.callCount(); got != 3 {
		t.Fatalf("gateway calls: want=3 got=%d", got)
	}
}

func TestEnrichDifferentItemsRunInParallel(t *testing.T) {
	a, b := newItem(), newItem()
	gw := newFakeGateway()
	release := make(chan struct{})
	gw.hold[KindChunk] = release
	p := newTestPipeline(gw, newMemStore(a, b), PipelineConfig{Concurrency: ConcurrencyReject})

	var wg sync.WaitGroup
	for _, it := range []*content.Item{a, b} {
		wg.Add(1)
		go func(it *content.Item) {
			defer wg.Done()
			if _, err := p.Enrich(context.Background(), it); err != nil {
				t.Errorf("Enrich(%s): %v", it.ID, err)
			}
		}(it)
	}
	// Both items reach the gateway while neither has finished.
	<-gw.entered
	<-gw.entered
	close(release)
	wg.Wait()
	if got := gw.callCount(); got != 6 {
		t.Fatalf("gateway calls: want=6 got=%d", got)
	}
}

func TestEnrichUsesLeaser(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	leaser := &fakeLeaser{}
	p := newTestPipeline(gw, newMemStore(item), PipelineConfig{Leaser: leaser})

	if _, err := p.Enrich(context.Background(), item); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(leaser.keys) != 1 || leaser.keys[0] != "enrich:"+item.ID.String() || leaser.released != 1 {
		t.Fatalf("lease: keys=%v released=%d", leaser.keys, leaser.released)
	}

	leaser.err = ErrAlreadyRunning
	if _, err := p.Enrich(context.Background(), item); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("held lease: want ErrAlreadyRunning got=%v", err)
	}
	if n := p.locks.size(); n != 0 {
		t.Fatalf("local lock must be released when the lease fails, entries=%d", n)
	}
}

func TestEnrichRejectsUnknownAndInvalidItems(t *testing.T) {
	gw := newFakeGateway()
	blank := newItem()
	blank.Body = "   "
	p := newTestPipeline(gw, newMemStore(blank), PipelineConfig{})

	if _, err := p.Enrich(context.Background(), newItem()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown item: want ErrNotFound got=%v", err)
	}
	if _, err := p.Enrich(context.Background(), blank); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank body: want ErrInvalidInput got=%v", err)
	}
	if _, err := p.Enrich(context.Background(), &content.Item{ID: uuid.Nil}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nil id: want ErrInvalidInput got=%v", err)
	}
	if got := gw.callCount(); got != 0 {
		t.Fatalf("no gateway calls expected, got=%d", got)
	}
}

func TestRunSummaryStage(t *testing.T) {
	item := newItem()
	gw := newFakeGateway()
	store := newMemStore(item)
	p := newTestPipeline(gw, store, PipelineConfig{})

	res, err := p.Run(context.Background(), item, []Stage{StageSummary})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStatuses(t, res, map[Kind]StageStatus{KindSummary: StageSucceeded})
	stored := store.get(t, item.ID)
	if stored.Summary == nil || *stored.Summary != "A short summary." {
		t.Fatalf("summary: got=%v", stored.Summary)
	}
	if kinds := gw.kinds(); len(kinds) != 1 || kinds[0] != KindSummary {
		t.Fatalf("calls: want=[summary] got=%v", kinds)
	}
}

func TestParseConcurrencyMode(t *testing.T) {
	for raw, want := range map[string]ConcurrencyMode{"": ConcurrencyWait, "WAIT": ConcurrencyWait, " reject ": ConcurrencyReject} {
		got, err := ParseConcurrencyMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseConcurrencyMode(%q): want=%s got=%s err=%v", raw, want, got, err)
		}
	}
	if _, err := ParseConcurrencyMode("queue"); err == nil {
		t.Fatalf("ParseConcurrencyMode(queue): expected error")
	}
}
