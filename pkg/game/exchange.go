package game

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ExchangeMatcher runs the two-phase propose/accept protocol for swapping
// two users' resources. A pending request is keyed by its initiator; a user
// may be the target of several requests but can only have one outgoing one.
// Requests never survive their creation day: stale entries are purged
// whenever a group's request table is loaded.
type ExchangeMatcher struct {
	store     TableStore
	locks     *LockCoordinator
	quota     *QuotaLedger
	ownership *OwnershipStore
	day       DayFunc
}

// NewExchangeMatcher wires the matcher to its collaborating components.
func NewExchangeMatcher(store TableStore, locks *LockCoordinator, quota *QuotaLedger, ownership *OwnershipStore, day DayFunc) *ExchangeMatcher {
	return &ExchangeMatcher{
		store:     store,
		locks:     locks,
		quota:     quota,
		ownership: ownership,
		day:       day,
	}
}

// RequestView is a resolved view of one pending request. The label fields
// are filled in by the engine from the ownership table; they stay empty for
// counterparts who never drew.
type RequestView struct {
	Initiator      string
	InitiatorLabel string
	Target         string
	TargetLabel    string
	Day            string
}

// loadPurged loads a group's request table and drops entries from prior
// days, persisting the purge when anything was removed. Callers must hold
// the exchanges lock.
func (m *ExchangeMatcher) loadPurged(ctx context.Context, groupID string) (map[string]ExchangeRequest, error) {
	table, err := m.store.LoadExchanges(ctx, groupID)
	if err != nil {
		return nil, err
	}

	today := m.day()
	changed := false
	for initiator, req := range table {
		if req.Day != today {
			delete(table, initiator)
			changed = true
		}
	}

	if changed {
		if err := m.store.SaveExchanges(ctx, groupID, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Propose creates a pending request from actor to target, consuming one
// exchange-proposal slot against swapMax. Any prior outgoing request of the
// actor is overwritten. When either party turns out to hold nothing today
// the already-spent slot is refunded before the error is returned, so a
// proposal that never existed costs nothing.
func (m *ExchangeMatcher) Propose(ctx context.Context, groupID, actor, target string, swapMax int) (int, error) {
	if target == "" || target == actor {
		return 0, fmt.Errorf("exchange target %q: %w", target, ErrInvalidTarget)
	}

	remaining, err := m.quota.CheckAndConsume(ctx, groupID, actor, ActionExchange, swapMax)
	if err != nil {
		return 0, err
	}

	for _, userID := range []string{actor, target} {
		if _, err := m.ownership.Active(ctx, groupID, userID); err != nil {
			if refundErr := m.quota.Refund(ctx, groupID, actor, ActionExchange); refundErr != nil {
				logrus.Errorf("failed to refund proposal slot: group=%s user=%s: %v", groupID, actor, refundErr)
			}
			return 0, err
		}
	}

	lock := m.locks.ExchangesLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := m.loadPurged(ctx, groupID)
	if err != nil {
		return 0, err
	}

	table[actor] = ExchangeRequest{TargetUser: target, Day: m.day()}
	if err := m.store.SaveExchanges(ctx, groupID, table); err != nil {
		return 0, err
	}

	logrus.Infof("exchange proposed: group=%s %s -> %s", groupID, actor, target)
	return remaining, nil
}

// Accept resolves the request issued by initiator. It fails with
// ErrNoSuchRequest unless a pending request exists and names responder as
// its target. The request is removed before the exchanges lock is released;
// the ownership swap completes before success is reported. Returns the
// number of other requests cancelled by the sweep.
func (m *ExchangeMatcher) Accept(ctx context.Context, groupID, responder, initiator string) (int, error) {
	if err := m.resolve(ctx, groupID, responder, initiator); err != nil {
		return 0, err
	}

	if err := m.ownership.Swap(ctx, groupID, initiator, responder); err != nil {
		// The request is already gone; give the initiator their proposal
		// slot back, same as any other cancellation outside their control.
		if refundErr := m.quota.Refund(ctx, groupID, initiator, ActionExchange); refundErr != nil {
			logrus.Errorf("failed to refund proposal slot: group=%s user=%s: %v", groupID, initiator, refundErr)
		}
		return 0, err
	}

	logrus.Infof("exchange accepted: group=%s %s <-> %s", groupID, initiator, responder)
	return m.CancelAffecting(ctx, groupID, []string{initiator, responder})
}

// Reject resolves the request issued by initiator by deleting it. Same
// lookup rules as Accept; no ownership effect.
func (m *ExchangeMatcher) Reject(ctx context.Context, groupID, responder, initiator string) error {
	if err := m.resolve(ctx, groupID, responder, initiator); err != nil {
		return err
	}
	logrus.Infof("exchange rejected: group=%s %s -x- %s", groupID, initiator, responder)
	return nil
}

// resolve looks up and removes the pending request keyed by initiator,
// verifying that responder is its target, all inside one exchanges lock
// scope. Concurrent resolutions of the same request settle exactly once;
// the loser gets ErrNoSuchRequest.
func (m *ExchangeMatcher) resolve(ctx context.Context, groupID, responder, initiator string) error {
	lock := m.locks.ExchangesLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := m.loadPurged(ctx, groupID)
	if err != nil {
		return err
	}

	req, ok := table[initiator]
	if !ok || req.TargetUser != responder {
		return fmt.Errorf("initiator %s, responder %s: %w", initiator, responder, ErrNoSuchRequest)
	}

	delete(table, initiator)
	return m.store.SaveExchanges(ctx, groupID, table)
}

// ListFor returns the user's outgoing and incoming pending requests.
func (m *ExchangeMatcher) ListFor(ctx context.Context, groupID, userID string) (outgoing, incoming []RequestView, err error) {
	lock := m.locks.ExchangesLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := m.loadPurged(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	for initiator, req := range table {
		view := RequestView{Initiator: initiator, Target: req.TargetUser, Day: req.Day}
		if initiator == userID {
			outgoing = append(outgoing, view)
		}
		if req.TargetUser == userID {
			incoming = append(incoming, view)
		}
	}
	return outgoing, incoming, nil
}

// CancelAffecting removes every pending request that references one of the
// given users as initiator or target, then refunds each cancelled
// initiator's proposal slot. Called after any ownership-changing event.
// Only initiators are compensated; targets lose nothing they spent.
// Returns how many requests were cancelled.
func (m *ExchangeMatcher) CancelAffecting(ctx context.Context, groupID string, userIDs []string) (int, error) {
	affected := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		affected[id] = true
	}

	lock := m.locks.ExchangesLock()
	lock.Lock()

	table, err := m.loadPurged(ctx, groupID)
	if err != nil {
		lock.Unlock()
		return 0, err
	}

	var cancelled []string
	for initiator, req := range table {
		if affected[initiator] || affected[req.TargetUser] {
			cancelled = append(cancelled, initiator)
			delete(table, initiator)
		}
	}

	if len(cancelled) > 0 {
		if err := m.store.SaveExchanges(ctx, groupID, table); err != nil {
			lock.Unlock()
			return 0, err
		}
	}
	lock.Unlock()

	for _, initiator := range cancelled {
		if err := m.quota.Refund(ctx, groupID, initiator, ActionExchange); err != nil {
			logrus.Errorf("failed to refund cancelled proposal: group=%s user=%s: %v", groupID, initiator, err)
		}
	}

	if len(cancelled) > 0 {
		logrus.Infof("cancelled %d exchange request(s): group=%s affected=%v", len(cancelled), groupID, userIDs)
	}
	return len(cancelled), nil
}
