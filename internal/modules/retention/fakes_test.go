package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

type gatewayCall struct {
	kind Kind
	seq  int
	at   time.Time
}

type fakeGateway struct {
	mu        sync.Mutex
	responses map[Kind]string
	errs      map[Kind]error
	hold      map[Kind]chan struct{}
	entered   chan Kind
	calls     []gatewayCall

	verifyFn    func(ctx context.Context, question, answer, material string) (string, error)
	verifyCalls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		responses: map[Kind]string{
			KindChunk:           `["A","B"]`,
			KindMnemonic:        "Remember ABC",
			KindRecallQuestions: `["Q1?","Q2?"]`,
			KindSummary:         "A short summary.",
		},
		errs:    map[Kind]error{},
		hold:    map[Kind]chan struct{}{},
		entered: make(chan Kind, 16),
	}
}

func (g *fakeGateway) Generate(ctx context.Context, kind Kind, title, body string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{kind: kind, seq: len(g.calls), at: time.Now()})
	hold := g.hold[kind]
	resp, err := g.responses[kind], g.errs[kind]
	g.mu.Unlock()

	select {
	case g.entered <- kind:
	default:
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

func (g *fakeGateway) Verify(ctx context.Context, question, answer, material string) (string, error) {
	g.mu.Lock()
	g.verifyCalls = append(g.verifyCalls, question)
	fn := g.verifyFn
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, question, answer, material)
	}
	return "Good recall.", nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) kinds() []Kind {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Kind, 0, len(g.calls))
	for _, c := range g.calls {
		out = append(out, c.kind)
	}
	return out
}

func (g *fakeGateway) verifyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.verifyCalls)
}

type memStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*content.Item
	failSave map[content.Field]error
	saves    []content.Field
}

func newMemStore(items ...*content.Item) *memStore {
	s := &memStore{items: map[uuid.UUID]*content.Item{}, failSave: map[content.Field]error{}}
	for _, it := range items {
		s.items[it.ID] = cloneItem(it)
	}
	return s
}

func (s *memStore) Load(ctx context.Context, id uuid.UUID) (*content.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneItem(it), nil
}

func (s *memStore) SaveField(ctx context.Context, id uuid.UUID, field content.Field, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failSave[field]; err != nil {
		return err
	}
	it, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if err := it.Assign(field, value); err != nil {
		return err
	}
	s.saves = append(s.saves, field)
	return nil
}

func (s *memStore) SaveReview(ctx context.Context, id uuid.UUID, rs content.ReviewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	it.ApplyReview(rs)
	return nil
}

func (s *memStore) get(t *testing.T, id uuid.UUID) *content.Item {
	t.Helper()
	it, err := s.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("memStore.Load: %v", err)
	}
	return it
}

func cloneItem(it *content.Item) *content.Item {
	cp := *it
	cp.StudyChunks = append(datatypes.JSON(nil), it.StudyChunks...)
	cp.Mnemonics = append(datatypes.JSON(nil), it.Mnemonics...)
	cp.RecallQuestions = append(datatypes.JSON(nil), it.RecallQuestions...)
	return &cp
}

type fakeLeaser struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (l *fakeLeaser) Acquire(ctx context.Context, key string, wait bool) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

func newItem() *content.Item {
	return &content.Item{
		ID:             uuid.New(),
		Kind:           content.KindNote,
		Title:          "Consensus",
		Body:           "Raft elects a leader and replicates a log.",
		ReviewStage:    1,
		ReviewInterval: 1,
	}
}

func mustStrings(t *testing.T, it *content.Item, f content.Field) []string {
	t.Helper()
	vals, err := it.Strings(f)
	if err != nil {
		t.Fatalf("Strings(%s): %v", f, err)
	}
	return vals
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testLogger() *logger.Logger { return logger.Nop() }

var errBoom = errors.New("boom")
