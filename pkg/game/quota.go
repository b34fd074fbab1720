package game

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// QuotaLedger tracks and enforces the daily per-user limits for the four
// action kinds. Every record access runs inside the global counters lock,
// so a check-and-consume is atomic per (group, user, kind) key. Records
// from a prior day count as zero; rollover happens lazily on first touch.
type QuotaLedger struct {
	store TableStore
	locks *LockCoordinator
	day   DayFunc
}

// NewQuotaLedger creates a ledger on top of the given table store.
func NewQuotaLedger(store TableStore, locks *LockCoordinator, day DayFunc) *QuotaLedger {
	return &QuotaLedger{store: store, locks: locks, day: day}
}

// CheckAndConsume spends one attempt slot of the given kind. It fails with
// ErrQuotaExceeded, without mutating anything, when the user already spent
// dailyLimit attempts today. On success it persists the incremented count
// and returns how many attempts remain. Callers must not consume twice for
// one logical attempt.
func (q *QuotaLedger) CheckAndConsume(ctx context.Context, groupID, userID string, kind ActionKind, dailyLimit int) (int, error) {
	lock := q.locks.CountersLock()
	lock.Lock()
	defer lock.Unlock()

	today := q.day()

	table, err := q.store.LoadCounters(ctx, groupID)
	if err != nil {
		return 0, err
	}

	rec, _ := table.get(kind, userID)
	if rec.Day != today {
		rec = CounterRecord{Day: today}
	}

	if rec.Count >= dailyLimit {
		logrus.Debugf("quota exhausted: group=%s user=%s kind=%s used=%d/%d",
			groupID, userID, kind, rec.Count, dailyLimit)
		return 0, fmt.Errorf("%s: used %d of %d today: %w", kind, rec.Count, dailyLimit, ErrQuotaExceeded)
	}

	rec.Count++
	table.put(kind, userID, rec)
	if err := q.store.SaveCounters(ctx, groupID, table); err != nil {
		return 0, err
	}

	return dailyLimit - rec.Count, nil
}

// Refund returns one attempt slot of the given kind, used when a dependent
// action is invalidated after the slot was already spent (for example an
// exchange proposal cancelled by an ownership change). A record that is
// absent, stale or already at zero is left untouched.
func (q *QuotaLedger) Refund(ctx context.Context, groupID, userID string, kind ActionKind) error {
	lock := q.locks.CountersLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := q.store.LoadCounters(ctx, groupID)
	if err != nil {
		return err
	}

	rec, ok := table.get(kind, userID)
	if !ok || rec.Day != q.day() || rec.Count <= 0 {
		return nil
	}

	rec.Count--
	table.put(kind, userID, rec)
	return q.store.SaveCounters(ctx, groupID, table)
}

// Clear deletes the user's current-day record of the given kind, making the
// count zero again. It reports whether a record was actually removed. Stale
// records are left in place; they already count as zero.
func (q *QuotaLedger) Clear(ctx context.Context, groupID, userID string, kind ActionKind) (bool, error) {
	lock := q.locks.CountersLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := q.store.LoadCounters(ctx, groupID)
	if err != nil {
		return false, err
	}

	rec, ok := table.get(kind, userID)
	if !ok || rec.Day != q.day() {
		return false, nil
	}

	table.remove(kind, userID)
	if err := q.store.SaveCounters(ctx, groupID, table); err != nil {
		return false, err
	}

	logrus.Infof("cleared %s counter: group=%s user=%s", kind, groupID, userID)
	return true, nil
}
