package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// scriptedRandom replays queued draws and falls back to zero once a queue runs dry.
type scriptedRandom struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func (r *scriptedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0
	}
	next := r.floats[0]
	r.floats = r.floats[1:]
	return next
}

func (r *scriptedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	next := r.ints[0]
	r.ints = r.ints[1:]
	return next % n
}

// constRandom always draws the same float, and the lowest index.
type constRandom float64

func (c constRandom) Float64() float64 { return float64(c) }
func (c constRandom) IntN(int) int { return 0 }

// recordingSleeper returns immediately until its budget is spent, then blocks until cancellation.
type recordingSleeper struct {
	mu     sync.Mutex
	slept  []time.Duration
	budget int
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	exhausted := s.budget >= 0 && len(s.slept) > s.budget
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if exhausted {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *recordingSleeper) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

func newInstantSleeper() *recordingSleeper {
	return &recordingSleeper{budget: -1}
}

type inMemoryStateRepo struct {
	mu       sync.Mutex
	document map[string]any
	loadErr  error
	saveErr  error
	saves    int
}

func (r *inMemoryStateRepo) Load(_ context.Context) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.document == nil {
		return map[string]any{}, nil
	}
	return domain.MergeDocuments(map[string]any{}, r.document), nil
}

func (r *inMemoryStateRepo) Save(_ context.Context, document map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.document = document
	return nil
}

type inMemoryMemoryRepo struct {
	mu      sync.Mutex
	events  []domain.MemoryEvent
	listErr error
	saveErr error
	saves   int
}

func (r *inMemoryMemoryRepo) List(_ context.Context) ([]domain.MemoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return cloneEvents(r.events), nil
}

func (r *inMemoryMemoryRepo) ReplaceAll(_ context.Context, events []domain.MemoryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.events = cloneEvents(events)
	return nil
}

type generatorCall struct {
	Agent  domain.AgentID
	Prompt string
	Gen    ports.GenerationContext
}

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []generatorCall
}

func (g *fakeGenerator) Generate(_ context.Context, agent domain.AgentID, prompt string, gen ports.GenerationContext) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, generatorCall{Agent: agent, Prompt: prompt, Gen: gen})
	return g.text, g.err
}

func (g *fakeGenerator) Calls() []generatorCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]generatorCall(nil), g.calls...)
}

type fakeChannel struct {
	id domain.ChannelID

	mu      sync.Mutex
	sent    []string
	typing  int
	sendErr error
	failAt  int
}

func (c *fakeChannel) ID() domain.ChannelID {
	return c.id
}

func (c *fakeChannel) Send(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil && len(c.sent) >= c.failAt {
		return c.sendErr
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *fakeChannel) Typing(_ context.Context) (func(), error) {
	c.mu.Lock()
	c.typing++
	c.mu.Unlock()
	return func() {}, nil
}

func (c *fakeChannel) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

type fakeRouter struct {
	channels map[domain.ChannelID]*fakeChannel
}

func newFakeRouter(ids ...domain.ChannelID) *fakeRouter {
	router := &fakeRouter{channels: map[domain.ChannelID]*fakeChannel{}}
	for _, id := range ids {
		router.channels[id] = &fakeChannel{id: id}
	}
	return router
}

func (r *fakeRouter) Channel(_ domain.AgentID, id domain.ChannelID) (ports.ChatChannel, error) {
	channel, ok := r.channels[id]
	if !ok {
		return nil, errors.Join(domain.ErrUnknownChannel, errors.New(string(id)))
	}
	return channel, nil
}

type fakeFlavor struct {
	line string
}

func (f fakeFlavor) Pick(domain.AgentID, ports.Random) (string, bool) {
	return f.line, f.line != ""
}
