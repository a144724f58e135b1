package retention

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/observability"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

const (
	DefaultFallbackQuestion = "What is the main takeaway of this content?"
	DegradedFeedback        = "link disrupted, please retry"
)

type SessionState string

const (
	AwaitingAnswer SessionState = "awaiting_answer"
	Grading        SessionState = "grading"
	Graded         SessionState = "graded"
)

type Verdict string

const (
	VerdictPending Verdict = "pending"
	VerdictGraded  Verdict = "graded"
)

// RecallAttempt is one graded answer. Degraded attempts carry DegradedFeedback
// in place of the provider text.
type RecallAttempt struct {
	ID            string    `json:"id"`
	ItemID        uuid.UUID `json:"item_id"`
	QuestionIndex int       `json:"question_index"`
	Question      string    `json:"question"`
	Answer        string    `json:"-"`
	Verdict       Verdict   `json:"verdict"`
	Feedback      string    `json:"feedback"`
	Degraded      bool      `json:"degraded"`
	SubmittedAt   time.Time `json:"submitted_at"`
	GradedAt      time.Time `json:"graded_at"`
}

type RecallConfig struct {
	// VerifyTimeout bounds the single Verify call; zero means only the caller's context applies.
	VerifyTimeout    time.Duration
	FallbackQuestion string
	Now              func() time.Time
}

// Recall opens recall sessions against one Gateway.
type Recall struct {
	log *logger.Logger
	gw  Gateway
	cfg RecallConfig
}

func NewRecall(log *logger.Logger, gw Gateway, cfg RecallConfig) *Recall {
	if strings.TrimSpace(cfg.FallbackQuestion) == "" {
		cfg.FallbackQuestion = DefaultFallbackQuestion
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recall{log: log.With("component", "RecallSession"), gw: gw, cfg: cfg}
}

// Open starts a session for item in AwaitingAnswer with Reveal off.
func (r *Recall) Open(item *content.Item) (*Session, error) {
	if item == nil {
		return nil, invalidInput("content item required")
	}
	questions, err := item.Strings(content.FieldRecallQuestions)
	if err != nil {
		return nil, err
	}
	return &Session{r: r, item: item, questions: questions, state: AwaitingAnswer}, nil
}

// Session is one active-recall interaction. Reveal is independent of the grading state.
type Session struct {
	r         *Recall
	item      *content.Item
	questions []string

	mu     sync.Mutex
	state  SessionState
	reveal bool
	last   *RecallAttempt
}

func (s *Session) Questions() []string {
	if len(s.questions) == 0 {
		return []string{s.r.cfg.FallbackQuestion}
	}
	out := make([]string, len(s.questions))
	copy(out, s.questions)
	return out
}

// Question resolves idx. Without stored questions the fallback is used and idx is ignored.
func (s *Session) Question(idx int) (int, string, error) {
	if len(s.questions) == 0 {
		return 0, s.r.cfg.FallbackQuestion, nil
	}
	if idx < 0 || idx >= len(s.questions) {
		return 0, "", invalidInput("question index %d out of range [0,%d)", idx, len(s.questions))
	}
	return idx, s.questions[idx], nil
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reveal
}

func (s *Session) SetReveal(on bool) {
	s.mu.Lock()
	s.reveal = on
	s.mu.Unlock()
}

func (s *Session) ToggleReveal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reveal = !s.reveal
	return s.reveal
}

// Last is the most recent graded attempt, or nil.
func (s *Session) Last() *RecallAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Submit grades answer against the selected question with exactly one Verify call.
// On a Gateway failure the attempt is still returned, degraded, together with the error.
func (s *Session) Submit(ctx context.Context, questionIndex int, answer string) (*RecallAttempt, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, invalidInput("answer is empty")
	}
	idx, question, err := s.Question(questionIndex)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state == Grading {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: recall attempt is being graded", ErrAlreadyRunning)
	}
	s.state = Grading
	s.mu.Unlock()

	attempt := &RecallAttempt{
		ID:            ulid.Make().String(),
		ItemID:        s.item.ID,
		QuestionIndex: idx,
		Question:      question,
		Answer:        answer,
		Verdict:       VerdictPending,
		SubmittedAt:   s.r.cfg.Now().UTC(),
	}

	feedback, verr := s.verify(ctx, question, answer)

	attempt.Verdict = VerdictGraded
	attempt.GradedAt = s.r.cfg.Now().UTC()
	status := "ok"
	if verr != nil {
		status = "degraded"
		attempt.Degraded = true
		attempt.Feedback = DegradedFeedback
		s.r.log.Warn("recall grading degraded",
			"item_id", s.item.ID.String(),
			"question_index", idx,
			"error", verr.Error(),
		)
	} else {
		attempt.Feedback = feedback
	}
	observability.Current().IncRecall(status)

	s.mu.Lock()
	s.state = Graded
	s.last = attempt
	s.mu.Unlock()

	return attempt, verr
}

func (s *Session) verify(ctx context.Context, question, answer string) (string, error) {
	if s.r.cfg.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.r.cfg.VerifyTimeout)
		defer cancel()
	}
	start := time.Now()
	text, err := s.r.gw.Verify(ctx, question, answer, s.item.Body)
	if err == nil && strings.TrimSpace(text) == "" {
		err = malformed("empty feedback")
	}
	observability.Current().ObserveGateway("verify", gatewayStatus(err), time.Since(start))
	if err != nil {
		return "", gatewayError(err)
	}
	return strings.TrimSpace(text), nil
}
