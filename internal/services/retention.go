package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurogarden-backend/internal/data/repos"
	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/dbctx"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type ReviewOutcome string

const (
	ReviewPass ReviewOutcome = "pass"
	ReviewFail ReviewOutcome = "fail"
)

func ParseReviewOutcome(raw string) (ReviewOutcome, error) {
	switch o := ReviewOutcome(strings.ToLower(strings.TrimSpace(raw))); o {
	case ReviewPass, ReviewFail:
		return o, nil
	default:
		return "", fmt.Errorf("%w: review outcome must be pass or fail, got %q", retention.ErrInvalidInput, raw)
	}
}

type DueFilter struct {
	Kind  content.Kind
	Limit int
}

// RetentionService is the only entry point the HTTP and CLI layers use for the retention engine.
type RetentionService interface {
	EnsureEnriched(ctx context.Context, itemID uuid.UUID) (*retention.EnrichmentResult, error)
	EnsureSummary(ctx context.Context, itemID uuid.UUID) (*retention.EnrichmentResult, error)
	GetDueItems(items []*content.Item, now time.Time) []*content.Item
	ListDue(ctx context.Context, filter DueFilter, now time.Time) ([]*content.Item, error)
	// SubmitRecall returns the graded attempt. A Gateway failure yields a degraded attempt and the error.
	SubmitRecall(ctx context.Context, itemID uuid.UUID, questionIndex int, answer string) (*retention.RecallAttempt, error)
	RecordReview(ctx context.Context, itemID uuid.UUID, outcome ReviewOutcome) (content.ReviewState, error)
}

type retentionService struct {
	log       *logger.Logger
	items     repos.ContentItemRepo
	store     retention.Store
	pipeline  *retention.Pipeline
	scheduler *retention.Scheduler
	recall    *retention.Recall
	notifier  RetentionNotifier
	now       func() time.Time
}

func NewRetentionService(
	log *logger.Logger,
	items repos.ContentItemRepo,
	store retention.Store,
	pipeline *retention.Pipeline,
	scheduler *retention.Scheduler,
	recall *retention.Recall,
	notifier RetentionNotifier,
) RetentionService {
	if notifier == nil {
		notifier = NewRetentionNotifier(nil, log)
	}
	return &retentionService{
		log:       log.With("service", "RetentionService"),
		items:     items,
		store:     store,
		pipeline:  pipeline,
		scheduler: scheduler,
		recall:    recall,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *retentionService) EnsureEnriched(ctx context.Context, itemID uuid.UUID) (*retention.EnrichmentResult, error) {
	return s.run(ctx, itemID, retention.StudyAidStages())
}

func (s *retentionService) EnsureSummary(ctx context.Context, itemID uuid.UUID) (*retention.EnrichmentResult, error) {
	return s.run(ctx, itemID, []retention.Stage{retention.StageSummary})
}

func (s *retentionService) run(ctx context.Context, itemID uuid.UUID, stages []retention.Stage) (*retention.EnrichmentResult, error) {
	item, err := s.store.Load(ctx, itemID)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.Run(ctx, item, stages)
	if err != nil {
		return nil, err
	}
	if res.Count(retention.StageSucceeded) > 0 {
		s.notifier.EnrichmentUpdated(ctx, res)
	}
	return res, nil
}

func (s *retentionService) GetDueItems(items []*content.Item, now time.Time) []*content.Item {
	return s.scheduler.DueItems(items, now)
}

func (s *retentionService) ListDue(ctx context.Context, filter DueFilter, now time.Time) ([]*content.Item, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0", retention.ErrInvalidInput)
	}
	// Due-ness is computed here, so the repo limit cannot be applied before filtering.
	items, err := s.items.List(dbctx.Of(ctx), repos.ContentListFilter{Kind: filter.Kind})
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	due := s.scheduler.DueItems(items, now)
	if filter.Limit > 0 && len(due) > filter.Limit {
		due = due[:filter.Limit]
	}
	return due, nil
}

func (s *retentionService) SubmitRecall(ctx context.Context, itemID uuid.UUID, questionIndex int, answer string) (*retention.RecallAttempt, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: answer is empty", retention.ErrInvalidInput)
	}
	if questionIndex < 0 {
		return nil, fmt.Errorf("%w: question index %d is negative", retention.ErrInvalidInput, questionIndex)
	}
	item, err := s.store.Load(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !item.Enriched(content.FieldRecallQuestions) {
		res, err := s.pipeline.Enrich(ctx, item)
		switch {
		case errors.Is(err, retention.ErrAlreadyRunning):
			s.log.Debug("recall: enrichment already running, using fallback question", "item_id", itemID.String())
		case err != nil:
			return nil, err
		default:
			if res.Count(retention.StageSucceeded) > 0 {
				s.notifier.EnrichmentUpdated(ctx, res)
			}
			if item, err = s.store.Load(ctx, itemID); err != nil {
				return nil, err
			}
		}
	}

	session, err := s.recall.Open(item)
	if err != nil {
		return nil, err
	}
	attempt, err := session.Submit(ctx, questionIndex, answer)
	if err != nil && attempt == nil {
		return nil, err
	}
	if err != nil {
		s.log.Warn("recall graded in degraded mode", "item_id", itemID.String(), "error", err)
	}
	return attempt, err
}

func (s *retentionService) RecordReview(ctx context.Context, itemID uuid.UUID, outcome ReviewOutcome) (content.ReviewState, error) {
	if _, err := ParseReviewOutcome(string(outcome)); err != nil {
		return content.ReviewState{}, err
	}
	item, err := s.store.Load(ctx, itemID)
	if err != nil {
		return content.ReviewState{}, err
	}

	var next content.ReviewState
	switch outcome {
	case ReviewPass:
		next = s.scheduler.Advance(item.Review())
	case ReviewFail:
		next = s.scheduler.Reset(item.Review())
		// A failed review is still a review.
		now := s.now().UTC()
		next.LastReviewedAt = &now
	}
	if err := s.store.SaveReview(ctx, itemID, next); err != nil {
		return content.ReviewState{}, err
	}
	observability.Current().IncReview(string(outcome))
	s.notifier.ReviewRecorded(ctx, itemID, outcome, next)
	s.log.Info("review recorded",
		"item_id", itemID.String(),
		"outcome", string(outcome),
		"stage", next.Stage,
		"interval_days", next.Interval,
	)
	return next, nil
}
