package game

import (
	"context"
	"errors"
	"testing"

	"github.com/monbed/wifegame/pkg/service"
)

type resetFixture struct {
	arbiter *ResetArbiter
	quota   *QuotaLedger
	st      *memStore
	mutes   *muteRecorder
}

func newResetFixture(rules *Rules, randVal float64) *resetFixture {
	st := newMemStore()
	clock := newTestClock("2026-08-28")
	locks := NewLockCoordinator()
	quota := NewQuotaLedger(st, locks, clock.Day)
	mutes := &muteRecorder{}
	arbiter := NewResetArbiter(quota, rules, service.NewStaticPrivilegeChecker([]string{"admin"}), mutes, func() float64 { return randVal })
	return &resetFixture{arbiter: arbiter, quota: quota, st: st, mutes: mutes}
}

func (f *resetFixture) spend(t *testing.T, ctx context.Context, userID string, kind ActionKind, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.quota.CheckAndConsume(ctx, "g1", userID, kind, 100); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReset_GambleWon(t *testing.T) {
	ctx := context.Background()
	rules := DefaultRules()
	rules.ResetSuccessRate = 1.0
	f := newResetFixture(rules, 0)
	f.spend(t, ctx, "u1", ActionContest, 3)

	result, err := f.arbiter.Reset(ctx, "g1", "u1", "", ActionContest)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !result.Succeeded || !result.Cleared || result.Privileged || result.Penalty != nil {
		t.Errorf("result = %+v, expected plain successful reset", result)
	}
	if got := counterCount(t, f.st, "g1", ActionContest, "u1"); got != 0 {
		t.Errorf("contest count = %d, expected 0", got)
	}
	// The gamble itself was paid for.
	if got := counterCount(t, f.st, "g1", ActionReset, "u1"); got != 1 {
		t.Errorf("reset count = %d, expected 1", got)
	}
}

func TestReset_GambleLost(t *testing.T) {
	ctx := context.Background()
	rules := DefaultRules()
	rules.ResetSuccessRate = 0.5
	f := newResetFixture(rules, 0.9)
	f.spend(t, ctx, "u1", ActionDiscard, 2)

	result, err := f.arbiter.Reset(ctx, "g1", "u1", "", ActionDiscard)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if result.Succeeded || result.Penalty == nil {
		t.Fatalf("result = %+v, expected failed gamble with penalty", result)
	}
	if result.Penalty.UserID != "u1" || result.Penalty.Duration != rules.MuteDuration() {
		t.Errorf("penalty = %+v, expected u1 muted for %v", result.Penalty, rules.MuteDuration())
	}

	// Counter untouched, mute delivered, slot still consumed.
	if got := counterCount(t, f.st, "g1", ActionDiscard, "u1"); got != 2 {
		t.Errorf("discard count = %d, expected 2", got)
	}
	if f.mutes.count() != 1 {
		t.Errorf("mute calls = %d, expected 1", f.mutes.count())
	}
	if got := counterCount(t, f.st, "g1", ActionReset, "u1"); got != 1 {
		t.Errorf("reset count = %d, expected 1", got)
	}
}

func TestReset_Privileged(t *testing.T) {
	ctx := context.Background()
	rules := DefaultRules()
	rules.ResetSuccessRate = 0 // must not matter on the admin path
	f := newResetFixture(rules, 0.9)
	f.spend(t, ctx, "u1", ActionContest, 3)

	result, err := f.arbiter.Reset(ctx, "g1", "admin", "u1", ActionContest)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !result.Succeeded || !result.Privileged || !result.Cleared {
		t.Errorf("result = %+v, expected privileged reset", result)
	}
	if got := counterCount(t, f.st, "g1", ActionContest, "u1"); got != 0 {
		t.Errorf("contest count = %d, expected 0", got)
	}
	// No token spent and no gamble.
	if got := counterCount(t, f.st, "g1", ActionReset, "admin"); got != 0 {
		t.Errorf("admin reset count = %d, expected 0", got)
	}
	if f.mutes.count() != 0 {
		t.Errorf("mute calls = %d, expected 0", f.mutes.count())
	}
}

func TestReset_AlreadyClean(t *testing.T) {
	ctx := context.Background()
	rules := DefaultRules()
	rules.ResetSuccessRate = 1.0
	f := newResetFixture(rules, 0)

	result, err := f.arbiter.Reset(ctx, "g1", "u1", "", ActionContest)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !result.Succeeded || result.Cleared {
		t.Errorf("result = %+v, expected success without a removed record", result)
	}
}

func TestReset_QuotaExhausted(t *testing.T) {
	ctx := context.Background()
	rules := DefaultRules()
	rules.ResetMaxPerDay = 1
	rules.ResetSuccessRate = 1.0
	f := newResetFixture(rules, 0)

	if _, err := f.arbiter.Reset(ctx, "g1", "u1", "", ActionContest); err != nil {
		t.Fatal(err)
	}
	if _, err := f.arbiter.Reset(ctx, "g1", "u1", "", ActionContest); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Reset() error = %v, expected ErrQuotaExceeded", err)
	}
}

func TestReset_UnresettableKinds(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(DefaultRules(), 0)

	for _, kind := range []ActionKind{ActionReset, ActionExchange} {
		if _, err := f.arbiter.Reset(ctx, "g1", "admin", "u1", kind); !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("Reset(%s) error = %v, expected ErrInvalidTarget", kind, err)
		}
	}
}
