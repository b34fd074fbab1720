package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/monbed/wifegame/pkg/service"
)

// counterCount reads a user's current count for a kind straight from a
// bare store, ignoring day staleness.
func counterCount(t *testing.T, st *memStore, groupID string, kind ActionKind, userID string) int {
	t.Helper()
	table, err := st.LoadCounters(context.Background(), groupID)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := table.get(kind, userID)
	return rec.Count
}

// memStore is an in-memory TableStore. Documents are stored as JSON so
// loads hand out independent copies, same as the Redis-backed store.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (s *memStore) load(key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (s *memStore) save(key string, table interface{}) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = data
	return nil
}

func (s *memStore) LoadOwnership(ctx context.Context, groupID string) (map[string]OwnershipRecord, error) {
	table := make(map[string]OwnershipRecord)
	return table, s.load("ownership:"+groupID, &table)
}

func (s *memStore) SaveOwnership(ctx context.Context, groupID string, table map[string]OwnershipRecord) error {
	return s.save("ownership:"+groupID, table)
}

func (s *memStore) LoadCounters(ctx context.Context, groupID string) (CounterTable, error) {
	table := make(CounterTable)
	return table, s.load("counters:"+groupID, &table)
}

func (s *memStore) SaveCounters(ctx context.Context, groupID string, table CounterTable) error {
	return s.save("counters:"+groupID, table)
}

func (s *memStore) LoadExchanges(ctx context.Context, groupID string) (map[string]ExchangeRequest, error) {
	table := make(map[string]ExchangeRequest)
	return table, s.load("exchange:"+groupID, &table)
}

func (s *memStore) SaveExchanges(ctx context.Context, groupID string, table map[string]ExchangeRequest) error {
	return s.save("exchange:"+groupID, table)
}

func (s *memStore) LoadToggles(ctx context.Context) (map[string]bool, error) {
	table := make(map[string]bool)
	return table, s.load("toggles", &table)
}

func (s *memStore) SaveToggles(ctx context.Context, table map[string]bool) error {
	return s.save("toggles", table)
}

// testClock is a settable day oracle.
type testClock struct {
	mu  sync.Mutex
	day string
}

func newTestClock(day string) *testClock {
	return &testClock{day: day}
}

func (c *testClock) Day() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

func (c *testClock) Set(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = day
}

// seqPicker hands out resource identifiers in order, wrapping around.
type seqPicker struct {
	mu  sync.Mutex
	ids []string
	i   int
}

func newSeqPicker(ids ...string) *seqPicker {
	return &seqPicker{ids: ids}
}

func (p *seqPicker) Pick(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.ids[p.i%len(p.ids)]
	p.i++
	return id, nil
}

// muteRecorder captures mute intents instead of delivering them.
type muteCall struct {
	groupID  string
	userID   string
	duration time.Duration
}

type muteRecorder struct {
	mu    sync.Mutex
	calls []muteCall
}

func (m *muteRecorder) NotifyMute(ctx context.Context, groupID, userID string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, muteCall{groupID: groupID, userID: userID, duration: duration})
	return nil
}

func (m *muteRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// testEngine bundles an engine with handles on its internals.
type testEngine struct {
	*Engine
	store *memStore
	clock *testClock
	mutes *muteRecorder
}

// newTestEngine builds an engine with pinned day, rules and randomness.
// randVal is the value every random draw yields: 0 forces probabilistic
// actions to succeed (any probability > 0), 1 forces them to fail.
func newTestEngine(rules *Rules, day string, randVal float64) *testEngine {
	st := newMemStore()
	clock := newTestClock(day)
	mutes := &muteRecorder{}

	eng := NewEngine(
		st,
		newSeqPicker("res-1", "res-2", "res-3", "res-4"),
		service.NewStaticPrivilegeChecker([]string{"admin"}),
		mutes,
		EngineConfig{
			Rules: rules,
			Day:   clock.Day,
			Rand:  func() float64 { return randVal },
		},
	)

	return &testEngine{Engine: eng, store: st, clock: clock, mutes: mutes}
}

// counterCount reads a user's current count for a kind straight from the
// store, ignoring day staleness.
func (e *testEngine) counterCount(ctx context.Context, groupID, userID string, kind ActionKind) int {
	table, err := e.store.LoadCounters(ctx, groupID)
	if err != nil {
		panic(err)
	}
	rec, _ := table.get(kind, userID)
	return rec.Count
}
