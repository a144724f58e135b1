package retention

import (
	"fmt"
	"sort"
	"time"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
)

// DefaultIntervals is the published review table in days, indexed by stage-1.
var DefaultIntervals = []int{1, 3, 7, 30, 90}

const day = 24 * time.Hour

// Scheduler maps review outcomes onto stage/interval transitions. It holds no
// per-item state; all inputs and outputs are content.ReviewState values.
type Scheduler struct {
	intervals []int
	now       func() time.Time
}

func NewScheduler(intervals []int, now func() time.Time) (*Scheduler, error) {
	if len(intervals) == 0 {
		intervals = DefaultIntervals
	}
	for i, d := range intervals {
		if d < 1 {
			return nil, fmt.Errorf("%w: review interval %d must be >= 1 day, got %d", ErrInvalidInput, i+1, d)
		}
	}
	if now == nil {
		now = time.Now
	}
	table := make([]int, len(intervals))
	copy(table, intervals)
	return &Scheduler{intervals: table, now: now}, nil
}

// Stages is N, the terminal ("evergreen") stage.
func (s *Scheduler) Stages() int { return len(s.intervals) }

func (s *Scheduler) Intervals() []int {
	out := make([]int, len(s.intervals))
	copy(out, s.intervals)
	return out
}

// ClampStage coerces a persisted stage into [1, N].
func (s *Scheduler) ClampStage(stage int) int {
	if stage < 1 {
		return 1
	}
	if n := len(s.intervals); stage > n {
		return n
	}
	return stage
}

func (s *Scheduler) IntervalFor(stage int) int {
	return s.intervals[s.ClampStage(stage)-1]
}

// Initial is the state of a never-reviewed item.
func (s *Scheduler) Initial() content.ReviewState {
	return content.ReviewState{Stage: 1, Interval: s.IntervalFor(1)}
}

// Advance moves one stage up, stopping at N, and stamps lastReviewedAt.
func (s *Scheduler) Advance(rs content.ReviewState) content.ReviewState {
	stage := s.ClampStage(s.ClampStage(rs.Stage) + 1)
	now := s.now().UTC()
	return content.ReviewState{Stage: stage, Interval: s.IntervalFor(stage), LastReviewedAt: &now}
}

// Reset returns to stage 1. lastReviewedAt is left as is.
func (s *Scheduler) Reset(rs content.ReviewState) content.ReviewState {
	return content.ReviewState{Stage: 1, Interval: s.IntervalFor(1), LastReviewedAt: rs.LastReviewedAt}
}

// DueForReview reports whether at least interval days have passed since the last review.
// Never-reviewed items are always due.
func (s *Scheduler) DueForReview(rs content.ReviewState, now time.Time) bool {
	if rs.LastReviewedAt == nil {
		return true
	}
	interval := rs.Interval
	if interval < 1 {
		interval = s.IntervalFor(rs.Stage)
	}
	return !now.Before(rs.LastReviewedAt.Add(time.Duration(interval) * day))
}

// DueItems keeps the due items, ordered by lastReviewedAt ascending with never-reviewed first.
// Ties keep input order.
func (s *Scheduler) DueItems(items []*content.Item, now time.Time) []*content.Item {
	out := make([]*content.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if s.DueForReview(it.Review(), now) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastReviewedAt, out[j].LastReviewedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		}
		return a.Before(*b)
	})
	return out
}
