package retention

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type StageStatus string

const (
	StageSkipped   StageStatus = "skipped"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
)

// Stage is one cacheable generation step: a Gateway kind, the Item field it fills,
// and the strict parser turning provider text into the stored value.
type Stage struct {
	Kind  Kind
	Field content.Field
	parse func(raw string) (any, error)
}

var (
	StageChunking        = Stage{Kind: KindChunk, Field: content.FieldStudyChunks, parse: listValue(parseStringList)}
	StageMnemonic        = Stage{Kind: KindMnemonic, Field: content.FieldMnemonics, parse: listValue(parseMnemonics)}
	StageRecallQuestions = Stage{Kind: KindRecallQuestions, Field: content.FieldRecallQuestions, parse: listValue(parseStringList)}
	StageSummary         = Stage{Kind: KindSummary, Field: content.FieldSummary, parse: summaryValue}
)

// StudyAidStages is the fixed enrichment order: chunking, then mnemonics, then recall questions.
func StudyAidStages() []Stage {
	return []Stage{StageChunking, StageMnemonic, StageRecallQuestions}
}

func listValue(parse func(string) ([]string, error)) func(string) (any, error) {
	return func(raw string) (any, error) {
		vals, err := parse(raw)
		if err != nil {
			return nil, err
		}
		return content.EncodeStrings(vals)
	}
}

func summaryValue(raw string) (any, error) {
	return parseSummary(raw)
}

type StageOutcome struct {
	Stage      Kind          `json:"stage"`
	Field      content.Field `json:"field"`
	Status     StageStatus   `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Retryable  bool          `json:"retryable,omitempty"`
	DurationMS int64         `json:"duration_ms"`
	Err        error         `json:"-"`
}

type EnrichmentResult struct {
	JobID  string         `json:"job_id"`
	ItemID uuid.UUID      `json:"item_id"`
	Stages []StageOutcome `json:"stages"`
}

func (r *EnrichmentResult) Stage(kind Kind) (StageOutcome, bool) {
	if r == nil {
		return StageOutcome{}, false
	}
	for _, s := range r.Stages {
		if s.Stage == kind {
			return s, true
		}
	}
	return StageOutcome{}, false
}

func (r *EnrichmentResult) Count(status StageStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Stages {
		if s.Status == status {
			n++
		}
	}
	return n
}

type jobState uint8

const (
	jobPending jobState = iota
	jobInFlight
	jobDone
	jobFailed
	jobSkipped
)

// enrichmentJob is the per-run bookkeeping for one item. It lives only for the duration of Run.
type enrichmentJob struct {
	id       string
	itemID   uuid.UUID
	states   []jobState
	outcomes []StageOutcome
}

func newEnrichmentJob(itemID uuid.UUID, stages []Stage) *enrichmentJob {
	j := &enrichmentJob{
		id:       ulid.Make().String(),
		itemID:   itemID,
		states:   make([]jobState, len(stages)),
		outcomes: make([]StageOutcome, len(stages)),
	}
	for i, st := range stages {
		j.outcomes[i] = StageOutcome{Stage: st.Kind, Field: st.Field}
	}
	return j
}

func (j *enrichmentJob) settle(i int, out StageOutcome) {
	switch out.Status {
	case StageSucceeded:
		j.states[i] = jobDone
	case StageFailed:
		j.states[i] = jobFailed
	default:
		j.states[i] = jobSkipped
	}
	j.outcomes[i] = out
}

func (j *enrichmentJob) result() *EnrichmentResult {
	for _, s := range j.states {
		if s == jobPending || s == jobInFlight {
			panic("retention: enrichment job finished with unsettled stage")
		}
	}
	return &EnrichmentResult{JobID: j.id, ItemID: j.itemID, Stages: j.outcomes}
}

type ConcurrencyMode string

const (
	// ConcurrencyWait makes a second caller wait for the running enrichment and then observe its results.
	ConcurrencyWait ConcurrencyMode = "wait"
	// ConcurrencyReject fails a second caller with ErrAlreadyRunning.
	ConcurrencyReject ConcurrencyMode = "reject"
)

func ParseConcurrencyMode(raw string) (ConcurrencyMode, error) {
	switch m := ConcurrencyMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "", ConcurrencyWait:
		return ConcurrencyWait, nil
	case ConcurrencyReject:
		return m, nil
	default:
		return "", fmt.Errorf("unknown concurrency mode %q", raw)
	}
}

type PipelineConfig struct {
	// StageTimeout bounds each Gateway call; zero means only the caller's context applies.
	StageTimeout time.Duration
	Concurrency  ConcurrencyMode
	// Leaser, when set, is taken after the in-process lock.
	Leaser Leaser
}

type Pipeline struct {
	log    *logger.Logger
	gw     Gateway
	store  Store
	locks  *KeyedLock
	cfg    PipelineConfig
	tracer trace.Tracer
}

func NewPipeline(log *logger.Logger, gw Gateway, store Store, cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency == "" {
		cfg.Concurrency = ConcurrencyWait
	}
	return &Pipeline{
		log:    log.With("component", "EnrichmentPipeline"),
		gw:     gw,
		store:  store,
		locks:  NewKeyedLock(),
		cfg:    cfg,
		tracer: otel.Tracer("neurogarden/retention"),
	}
}

// Enrich fills study chunks, mnemonics and recall questions, in that order, for item.
// Per-stage failures are reported in the result, never returned as an error.
func (p *Pipeline) Enrich(ctx context.Context, item *content.Item) (*EnrichmentResult, error) {
	return p.Run(ctx, item, StudyAidStages())
}

// Run executes stages sequentially under the item's lock. The item is reloaded once the lock is
// held so that a run which waited behind another observes that run's writes.
func (p *Pipeline) Run(ctx context.Context, item *content.Item, stages []Stage) (*EnrichmentResult, error) {
	if item == nil || item.ID == uuid.Nil {
		return nil, invalidInput("content item required")
	}
	release, err := p.acquire(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	fresh, err := p.store.Load(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fresh.Title) == "" || strings.TrimSpace(fresh.Body) == "" {
		return nil, invalidInput("content item %s has empty title or body", fresh.ID)
	}

	job := newEnrichmentJob(fresh.ID, stages)
	for i, st := range stages {
		if fresh.Enriched(st.Field) {
			job.settle(i, StageOutcome{Stage: st.Kind, Field: st.Field, Status: StageSkipped})
			observability.Current().ObserveRetentionStage(string(st.Kind), string(StageSkipped), 0)
			continue
		}
		job.states[i] = jobInFlight
		job.settle(i, p.runStage(ctx, fresh, st))
	}

	res := job.result()
	p.log.With(ctxutil.LogFields(ctx)...).Info("enrichment finished",
		"item_id", res.ItemID.String(),
		"job_id", res.JobID,
		"succeeded", res.Count(StageSucceeded),
		"failed", res.Count(StageFailed),
		"skipped", res.Count(StageSkipped),
	)
	return res, nil
}

func (p *Pipeline) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	key := id.String()
	var unlock func()
	if p.cfg.Concurrency == ConcurrencyReject {
		u, ok := p.locks.TryLock(key)
		if !ok {
			return nil, fmt.Errorf("%w: item %s", ErrAlreadyRunning, key)
		}
		unlock = u
	} else {
		u, err := p.locks.Lock(ctx, key)
		if err != nil {
			return nil, err
		}
		unlock = u
	}
	if p.cfg.Leaser == nil {
		return unlock, nil
	}
	release, err := p.cfg.Leaser.Acquire(ctx, "enrich:"+key, p.cfg.Concurrency != ConcurrencyReject)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}

func (p *Pipeline) runStage(ctx context.Context, it *content.Item, st Stage) StageOutcome {
	out := StageOutcome{Stage: st.Kind, Field: st.Field}
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "retention.stage",
		trace.WithAttributes(
			attribute.String("retention.stage", string(st.Kind)),
			attribute.String("content.item_id", it.ID.String()),
		))
	defer span.End()

	fail := func(err error) StageOutcome {
		out.Status = StageFailed
		out.Err = err
		out.Reason = err.Error()
		out.Retryable = retryable(err)
		out.DurationMS = time.Since(start).Milliseconds()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.Current().ObserveRetentionStage(string(st.Kind), string(StageFailed), time.Since(start))
		p.log.With(ctxutil.LogFields(ctx)...).Warn("enrichment stage failed",
			"item_id", it.ID.String(),
			"stage", string(st.Kind),
			"duration_ms", out.DurationMS,
			"retryable", out.Retryable,
			"error", err.Error(),
		)
		return out
	}

	raw, err := p.generate(ctx, it, st.Kind)
	if err != nil {
		return fail(err)
	}
	value, err := st.parse(raw)
	if err != nil {
		return fail(err)
	}
	if err := p.store.SaveField(ctx, it.ID, st.Field, value); err != nil {
		return fail(fmt.Errorf("persist %s: %w", st.Field, err))
	}
	applyField(it, st.Field, value)

	out.Status = StageSucceeded
	out.DurationMS = time.Since(start).Milliseconds()
	observability.Current().ObserveRetentionStage(string(st.Kind), string(StageSucceeded), time.Since(start))
	p.log.With(ctxutil.LogFields(ctx)...).Debug("enrichment stage succeeded",
		"item_id", it.ID.String(),
		"stage", string(st.Kind),
		"duration_ms", out.DurationMS,
	)
	return out
}

func (p *Pipeline) generate(ctx context.Context, it *content.Item, kind Kind) (string, error) {
	callCtx := ctx
	if p.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.StageTimeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := p.gw.Generate(callCtx, kind, it.Title, it.Body)
	observability.Current().ObserveGateway(string(kind), gatewayStatus(err), time.Since(start))
	return raw, gatewayError(err)
}

func applyField(it *content.Item, field content.Field, value any) {
	if err := it.Assign(field, value); err != nil {
		panic(fmt.Sprintf("retention: stage value for %s: %v", field, err))
	}
}
