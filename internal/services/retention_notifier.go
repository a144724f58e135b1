package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
	"github.com/yungbote/neurogarden-backend/internal/platform/redisx"
)

const (
	EventEnrichmentUpdated = "enrichment.updated"
	EventReviewRecorded    = "review.recorded"
)

type RetentionNotifier interface {
	EnrichmentUpdated(ctx context.Context, res *retention.EnrichmentResult)
	ReviewRecorded(ctx context.Context, itemID uuid.UUID, outcome ReviewOutcome, rs content.ReviewState)
}

type retentionNotifier struct {
	bus redisx.Bus
	log *logger.Logger
}

// NewRetentionNotifier publishes on bus. A nil bus yields a notifier that drops everything.
func NewRetentionNotifier(bus redisx.Bus, log *logger.Logger) RetentionNotifier {
	return &retentionNotifier{bus: bus, log: log.With("service", "RetentionNotifier")}
}

func (n *retentionNotifier) EnrichmentUpdated(ctx context.Context, res *retention.EnrichmentResult) {
	if res == nil {
		return
	}
	stages := make(map[string]any, len(res.Stages))
	for _, st := range res.Stages {
		stages[string(st.Stage)] = string(st.Status)
	}
	n.publish(ctx, redisx.Event{
		Type: EventEnrichmentUpdated,
		Data: map[string]any{
			"item_id": res.ItemID.String(),
			"job_id":  res.JobID,
			"stages":  stages,
		},
	})
}

func (n *retentionNotifier) ReviewRecorded(ctx context.Context, itemID uuid.UUID, outcome ReviewOutcome, rs content.ReviewState) {
	data := map[string]any{
		"item_id":         itemID.String(),
		"outcome":         string(outcome),
		"review_stage":    rs.Stage,
		"review_interval": rs.Interval,
	}
	if rs.LastReviewedAt != nil {
		data["last_reviewed_at"] = rs.LastReviewedAt.UTC().Format(time.RFC3339)
	}
	n.publish(ctx, redisx.Event{Type: EventReviewRecorded, Data: data})
}

func (n *retentionNotifier) publish(ctx context.Context, ev redisx.Event) {
	if n.bus == nil {
		return
	}
	// Notifications are best effort; the write they describe already happened.
	if err := n.bus.Publish(context.WithoutCancel(ctx), ev); err != nil {
		n.log.Warn("publish event failed", "type", ev.Type, "error", err)
	}
}
