package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/pkg/metrics"
	"llm-chat-be/internal/repository/unitofwork"
	"llm-chat-be/internal/testutil"
	"llm-chat-be/pkg/events"
	"llm-chat-be/pkg/llm"
	"llm-chat-be/pkg/redislock"

	"gorm.io/gorm"
)

const seedText = "You are an expert in JavaScript."

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticSeed struct {
	text string
	err  error
}

func (s staticSeed) Build(context.Context) (string, error) {
	return s.text, s.err
}

// scriptedProvider answers with canned replies, or fails, or blocks until its context ends.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   bool
	calls   [][]llm.Message
}

func (p *scriptedProvider) Complete(ctx context.Context, transcript []llm.Message) (*llm.Completion, error) {
	p.mu.Lock()
	p.calls = append(p.calls, append([]llm.Message(nil), transcript...))
	block, err := p.block, p.err
	reply := "ok"
	if len(p.replies) > 0 {
		reply = p.replies[0]
		p.replies = p.replies[1:]
	}
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &llm.Completion{Text: reply, PromptTokens: 10, CompletionTokens: 5}, nil
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) lastCall() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return nil
	}
	return p.calls[len(p.calls)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	clock      *fakeClock
	provider   *scriptedProvider
	bus        *recordingPublisher
	metrics    *metrics.PrometheusRecorder

	convLog   IConversationLog
	admission IAdmissionService
	reclaimer IReclaimerService
	chat      IChatService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	seed            SeedSource
	locker          redislock.Locker
	providerTimeout time.Duration
}

func withSeed(s SeedSource) fixtureOption {
	return func(c *fixtureConfig) { c.seed = s }
}

func withLocker(l redislock.Locker) fixtureOption {
	return func(c *fixtureConfig) { c.locker = l }
}

func withProviderTimeout(d time.Duration) fixtureOption {
	return func(c *fixtureConfig) { c.providerTimeout = d }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{
		seed:            staticSeed{text: seedText},
		locker:          redislock.Noop{},
		providerTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := testutil.NewSQLiteDB(t)
	f := &fixture{
		db:         db,
		uowFactory: unitofwork.NewRepositoryFactory(db),
		clock:      newFakeClock(),
		provider:   &scriptedProvider{},
		bus:        &recordingPublisher{},
		metrics:    metrics.NewPrometheusRecorder(),
	}

	log := logger.NewNopLogger()
	publisher := events.NewSessionPublisher(f.bus, log)

	f.convLog = NewConversationLog(f.uowFactory, f.clock.Now)
	f.admission = NewAdmissionService(f.uowFactory, f.convLog, cfg.seed, publisher, f.metrics, log)
	f.reclaimer = NewReclaimerService(f.uowFactory, cfg.locker, time.Second, f.clock.Now, publisher, f.metrics, log)
	f.chat = NewChatService(f.uowFactory, f.admission, f.convLog, f.provider, cfg.providerTimeout, publisher, f.metrics, log)
	return f
}
