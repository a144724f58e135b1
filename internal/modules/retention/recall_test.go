package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
)

func openSession(t *testing.T, gw Gateway, item *content.Item, cfg RecallConfig) *Session {
	t.Helper()
	s, err := NewRecall(testLogger(), gw, cfg).Open(item)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestSubmitGradesSelectedQuestion(t *testing.T) {
	item := newItem()
	if err := item.SetStrings(content.FieldRecallQuestions, []string{"Q1?", "Q2?"}); err != nil {
		t.Fatalf("SetStrings: %v", err)
	}
	gw := newFakeGateway()
	var gotMaterial, gotAnswer string
	gw.verifyFn = func(ctx context.Context, question, answer, material string) (string, error) {
		gotAnswer, gotMaterial = answer, material
		return "  Close: you missed log replication. ", nil
	}
	s := openSession(t, gw, item, RecallConfig{})
	if s.State() != AwaitingAnswer {
		t.Fatalf("initial state: want=%s got=%s", AwaitingAnswer, s.State())
	}

	attempt, err := s.Submit(context.Background(), 1, "  leader election ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if attempt.Question != "Q2?" || attempt.QuestionIndex != 1 {
		t.Fatalf("question: want Q2?/1 got %q/%d", attempt.Question, attempt.QuestionIndex)
	}
	if attempt.Feedback != "Close: you missed log replication." || attempt.Degraded {
		t.Fatalf("feedback: got=%q degraded=%v", attempt.Feedback, attempt.Degraded)
	}
	if attempt.Verdict != VerdictGraded || s.State() != Graded || s.Last() != attempt {
		t.Fatalf("state after grading: verdict=%s state=%s", attempt.Verdict, s.State())
	}
	if gotAnswer != "leader election" || gotMaterial != item.Body {
		t.Fatalf("verify args: answer=%q material=%q", gotAnswer, gotMaterial)
	}

	// Resubmitting grades afresh.
	if _, err := s.Submit(context.Background(), 0, "again"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if got := gw.verifyCount(); got != 2 {
		t.Fatalf("verify calls: want=2 got=%d", got)
	}
}

func TestSubmitUsesFallbackQuestion(t *testing.T) {
	gw := newFakeGateway()
	s := openSession(t, gw, newItem(), RecallConfig{})

	attempt, err := s.Submit(context.Background(), 7, "the log")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if attempt.Question != DefaultFallbackQuestion || attempt.QuestionIndex != 0 {
		t.Fatalf("fallback: got %q/%d", attempt.Question, attempt.QuestionIndex)
	}
	if qs := s.Questions(); len(qs) != 1 || qs[0] != DefaultFallbackQuestion {
		t.Fatalf("Questions(): got=%v", qs)
	}

	custom := openSession(t, gw, newItem(), RecallConfig{FallbackQuestion: "Explain it back."})
	if _, q, _ := custom.Question(0); q != "Explain it back." {
		t.Fatalf("custom fallback: got=%q", q)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	item := newItem()
	_ = item.SetStrings(content.FieldRecallQuestions, []string{"Q1?"})
	gw := newFakeGateway()
	s := openSession(t, gw, item, RecallConfig{})

	if _, err := s.Submit(context.Background(), 0, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank answer: want ErrInvalidInput got=%v", err)
	}
	for _, idx := range []int{-1, 1} {
		if _, err := s.Submit(context.Background(), idx, "answer"); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("index %d: want ErrInvalidInput got=%v", idx, err)
		}
	}
	if got := gw.verifyCount(); got != 0 {
		t.Fatalf("no verify calls expected, got=%d", got)
	}
	if s.State() != AwaitingAnswer {
		t.Fatalf("state should be unchanged, got=%s", s.State())
	}
}

func TestSubmitDegradesOnGatewayFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.verifyFn = func(context.Context, string, string, string) (string, error) { return "", errBoom }
	s := openSession(t, gw, newItem(), RecallConfig{})

	attempt, err := s.Submit(context.Background(), 0, "answer")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("want ErrGatewayUnavailable got=%v", err)
	}
	if attempt == nil || !attempt.Degraded || attempt.Feedback != DegradedFeedback {
		t.Fatalf("degraded attempt: got=%+v", attempt)
	}
	if s.State() != Graded {
		t.Fatalf("state: want=%s got=%s", Graded, s.State())
	}
}

func TestSubmitEmptyFeedbackIsMalformed(t *testing.T) {
	gw := newFakeGateway()
	gw.verifyFn = func(context.Context, string, string, string) (string, error) { return " \n", nil }
	s := openSession(t, gw, newItem(), RecallConfig{})

	attempt, err := s.Submit(context.Background(), 0, "answer")
	if !errors.Is(err, ErrGatewayMalformedResponse) || !attempt.Degraded {
		t.Fatalf("empty feedback: err=%v attempt=%+v", err, attempt)
	}
}

func TestSubmitVerifyTimeout(t *testing.T) {
	gw := newFakeGateway()
	gw.verifyFn = func(ctx context.Context, _, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	s := openSession(t, gw, newItem(), RecallConfig{VerifyTimeout: 20 * time.Millisecond})

	attempt, err := s.Submit(context.Background(), 0, "answer")
	if !errors.Is(err, ErrGatewayUnavailable) || attempt.Feedback != DegradedFeedback {
		t.Fatalf("timeout: err=%v feedback=%q", err, attempt.Feedback)
	}
}

func TestSubmitWhileGradingIsRejected(t *testing.T) {
	gw := newFakeGateway()
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.verifyFn = func(context.Context, string, string, string) (string, error) {
		close(entered)
		<-release
		return "ok", nil
	}
	s := openSession(t, gw, newItem(), RecallConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), 0, "first")
		done <- err
	}()
	<-entered
	if s.State() != Grading {
		t.Fatalf("state while grading: got=%s", s.State())
	}
	if _, err := s.Submit(context.Background(), 0, "second"); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("concurrent submit: want ErrAlreadyRunning got=%v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestRevealIsIndependentOfGrading(t *testing.T) {
	s := openSession(t, newFakeGateway(), newItem(), RecallConfig{})
	if s.Revealed() {
		t.Fatalf("reveal should start off")
	}
	if !s.ToggleReveal() || s.State() != AwaitingAnswer {
		t.Fatalf("reveal before grading should not touch state")
	}
	if _, err := s.Submit(context.Background(), 0, "answer"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !s.Revealed() {
		t.Fatalf("grading must not reset reveal")
	}
	s.SetReveal(false)
	if s.Revealed() || s.State() != Graded {
		t.Fatalf("hiding must not touch state")
	}
}
