package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/monbed/wifegame/pkg/metrics"
	"github.com/monbed/wifegame/pkg/service"
)

// Engine is the entry point the command-handling layer calls into: one
// method per user-facing operation. All game state flows through the
// component stores, which serialize access per lock domain; the engine
// sequences component calls in the global lock order (toggles, counters,
// ownership, exchanges) and never holds two domains at once.
type Engine struct {
	rules     *Rules
	day       DayFunc
	randFloat func() float64

	locks     *LockCoordinator
	quota     *QuotaLedger
	ownership *OwnershipStore
	toggles   *ToggleStore
	matcher   *ExchangeMatcher
	contest   *ContestEngine
	reset     *ResetArbiter

	picker service.ResourcePicker
	priv   service.PrivilegeChecker
}

// EngineConfig carries the engine knobs. Zero values select production
// defaults; tests pin Day and Rand to force outcomes.
type EngineConfig struct {
	// Rules are the game parameters; nil means DefaultRules.
	Rules *Rules
	// Day is the day oracle; nil means a UTC+8 calendar day.
	Day DayFunc
	// Rand yields uniform values in [0,1); nil means math/rand.
	Rand func() float64
}

// NewEngine builds a fully wired engine on top of a table store and the
// external collaborators.
func NewEngine(store TableStore, picker service.ResourcePicker, priv service.PrivilegeChecker, mute service.MuteNotifier, cfg EngineConfig) *Engine {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	day := cfg.Day
	if day == nil {
		day = FixedOffsetDay(8)
	}
	randFloat := cfg.Rand
	if randFloat == nil {
		randFloat = rand.Float64
	}

	locks := NewLockCoordinator()
	quota := NewQuotaLedger(store, locks, day)
	ownership := NewOwnershipStore(store, locks, day)
	toggles := NewToggleStore(store, locks)
	matcher := NewExchangeMatcher(store, locks, quota, ownership, day)
	contest := NewContestEngine(toggles, quota, ownership, matcher, rules, randFloat)
	reset := NewResetArbiter(quota, rules, priv, mute, randFloat)

	return &Engine{
		rules:     rules,
		day:       day,
		randFloat: randFloat,
		locks:     locks,
		quota:     quota,
		ownership: ownership,
		toggles:   toggles,
		matcher:   matcher,
		contest:   contest,
		reset:     reset,
		picker:    picker,
		priv:      priv,
	}
}

// Rules exposes the active game parameters to the presentation layer.
func (e *Engine) Rules() *Rules { return e.rules }

// Today exposes the current game day.
func (e *Engine) Today() string { return e.day() }

// observe records an operation outcome on the Prometheus counters.
func observe(operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrQuotaExceeded):
		outcome = "quota_exceeded"
		metrics.QuotaRejectionsTotal.WithLabelValues(operation).Inc()
	default:
		outcome = "error"
	}
	metrics.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// DrawResult is the outcome of a draw.
type DrawResult struct {
	Record OwnershipRecord
	// Fresh reports whether a new resource was assigned; false means the
	// user had already drawn today and got their existing holding back.
	Fresh bool
}

// Draw gives the user today's resource, assigning a fresh one when they
// hold nothing yet. The display label snapshots the caller-supplied nick.
func (e *Engine) Draw(ctx context.Context, groupID, userID, nick string) (DrawResult, error) {
	res, err := e.drawLocked(ctx, groupID, userID, nick)
	observe("draw", err)
	return res, err
}

func (e *Engine) drawLocked(ctx context.Context, groupID, userID, nick string) (DrawResult, error) {
	rec, err := e.ownership.Active(ctx, groupID, userID)
	if err == nil {
		return DrawResult{Record: rec}, nil
	}
	if !errors.Is(err, ErrNoActiveResource) {
		return DrawResult{}, err
	}

	// Picking may hit the network; it must happen outside any lock scope,
	// so the assignment re-checks for a concurrent winner.
	resourceID, err := e.picker.Pick(ctx)
	if err != nil {
		return DrawResult{}, fmt.Errorf("failed to pick resource: %w", err)
	}

	rec, fresh, err := e.ownership.AssignIfAbsent(ctx, groupID, userID, resourceID, nick)
	if err != nil {
		return DrawResult{}, err
	}
	if fresh {
		logrus.Infof("resource drawn: group=%s user=%s resource=%s", groupID, userID, resourceID)
	}
	return DrawResult{Record: rec, Fresh: fresh}, nil
}

// Lookup returns the user's active holding, or ErrNoActiveResource.
func (e *Engine) Lookup(ctx context.Context, groupID, userID string) (OwnershipRecord, error) {
	rec, err := e.ownership.Active(ctx, groupID, userID)
	observe("lookup", err)
	return rec, err
}

// LookupByLabel resolves a user by display label and returns their active
// holding. An unknown label is ErrInvalidTarget; a known label whose record
// is stale is ErrNoActiveResource.
func (e *Engine) LookupByLabel(ctx context.Context, groupID, label string) (string, OwnershipRecord, error) {
	userID, rec, err := e.lookupByLabel(ctx, groupID, label)
	observe("lookup", err)
	return userID, rec, err
}

func (e *Engine) lookupByLabel(ctx context.Context, groupID, label string) (string, OwnershipRecord, error) {
	userID, rec, err := e.ownership.FindByLabel(ctx, groupID, label)
	if err != nil {
		return "", OwnershipRecord{}, err
	}
	if !rec.ActiveOn(e.day()) {
		return "", OwnershipRecord{}, fmt.Errorf("user %s: %w", userID, ErrNoActiveResource)
	}
	return userID, rec, nil
}

// Contest runs a steal attempt by actor against target.
func (e *Engine) Contest(ctx context.Context, groupID, actor, target string) (ContestResult, error) {
	res, err := e.contest.Attempt(ctx, groupID, actor, target)
	observe("contest", err)
	if err == nil {
		if res.Won {
			metrics.ContestOutcomesTotal.WithLabelValues("won").Inc()
		} else {
			metrics.ContestOutcomesTotal.WithLabelValues("lost").Inc()
		}
		metrics.ExchangeCancellationsTotal.Add(float64(res.Cancelled))
	}
	return res, err
}

// ToggleFeature flips the group's contest flag. Admin only.
func (e *Engine) ToggleFeature(ctx context.Context, groupID, actor string) (bool, error) {
	enabled, err := e.toggleFeature(ctx, groupID, actor)
	observe("toggle_feature", err)
	return enabled, err
}

func (e *Engine) toggleFeature(ctx context.Context, groupID, actor string) (bool, error) {
	if !e.priv.IsPrivileged(actor) {
		return false, fmt.Errorf("user %s: %w", actor, ErrForbidden)
	}
	enabled, err := e.toggles.Flip(ctx, groupID)
	if err != nil {
		return false, err
	}
	logrus.Infof("contest feature toggled: group=%s enabled=%v by=%s", groupID, enabled, actor)
	return enabled, nil
}

// RedrawResult is the outcome of a discard-and-redraw.
type RedrawResult struct {
	Record    OwnershipRecord
	Remaining int
	Cancelled int
}

// DiscardAndRedraw throws away the user's current holding and draws a
// replacement, spending one discard slot. Pending exchange requests that
// referenced the user are swept away. A user with nothing to discard gets
// ErrNoActiveResource and their slot back.
func (e *Engine) DiscardAndRedraw(ctx context.Context, groupID, userID, nick string) (RedrawResult, error) {
	res, err := e.discardAndRedraw(ctx, groupID, userID, nick)
	observe("discard_redraw", err)
	if err == nil {
		metrics.ExchangeCancellationsTotal.Add(float64(res.Cancelled))
	}
	return res, err
}

func (e *Engine) discardAndRedraw(ctx context.Context, groupID, userID, nick string) (RedrawResult, error) {
	remaining, err := e.quota.CheckAndConsume(ctx, groupID, userID, ActionDiscard, e.rules.DiscardMaxPerDay)
	if err != nil {
		return RedrawResult{}, err
	}

	if _, err := e.ownership.Active(ctx, groupID, userID); err != nil {
		if refundErr := e.quota.Refund(ctx, groupID, userID, ActionDiscard); refundErr != nil {
			logrus.Errorf("failed to refund discard slot: group=%s user=%s: %v", groupID, userID, refundErr)
		}
		return RedrawResult{}, err
	}
	if err := e.ownership.Discard(ctx, groupID, userID); err != nil {
		return RedrawResult{}, err
	}

	cancelled, err := e.matcher.CancelAffecting(ctx, groupID, []string{userID})
	if err != nil {
		return RedrawResult{}, err
	}

	draw, err := e.drawLocked(ctx, groupID, userID, nick)
	if err != nil {
		return RedrawResult{}, err
	}

	return RedrawResult{Record: draw.Record, Remaining: remaining, Cancelled: cancelled}, nil
}

// ResetContest clears the target's contest counter on behalf of actor.
func (e *Engine) ResetContest(ctx context.Context, groupID, actor, target string) (ResetResult, error) {
	res, err := e.reset.Reset(ctx, groupID, actor, target, ActionContest)
	observe("reset_contest", err)
	return res, err
}

// ResetDiscard clears the target's discard counter on behalf of actor.
func (e *Engine) ResetDiscard(ctx context.Context, groupID, actor, target string) (ResetResult, error) {
	res, err := e.reset.Reset(ctx, groupID, actor, target, ActionDiscard)
	observe("reset_discard", err)
	return res, err
}

// ProposeResult is the outcome of a successful proposal.
type ProposeResult struct {
	// Remaining is how many proposals the initiator has left today.
	Remaining int
}

// ProposeExchange creates a pending swap request from actor to target.
func (e *Engine) ProposeExchange(ctx context.Context, groupID, actor, target string) (ProposeResult, error) {
	remaining, err := e.matcher.Propose(ctx, groupID, actor, target, e.rules.SwapMaxPerDay)
	observe("propose_exchange", err)
	return ProposeResult{Remaining: remaining}, err
}

// AcceptResult is the outcome of a completed exchange.
type AcceptResult struct {
	// Cancelled is the number of other requests swept away by the swap.
	Cancelled int
}

// AcceptExchange completes the request issued by initiator, swapping the
// two parties' resources.
func (e *Engine) AcceptExchange(ctx context.Context, groupID, responder, initiator string) (AcceptResult, error) {
	cancelled, err := e.matcher.Accept(ctx, groupID, responder, initiator)
	observe("accept_exchange", err)
	if err == nil {
		metrics.ExchangeCancellationsTotal.Add(float64(cancelled))
	}
	return AcceptResult{Cancelled: cancelled}, err
}

// RejectExchange declines the request issued by initiator.
func (e *Engine) RejectExchange(ctx context.Context, groupID, responder, initiator string) error {
	err := e.matcher.Reject(ctx, groupID, responder, initiator)
	observe("reject_exchange", err)
	return err
}

// RequestList is a user's view of the pending requests that involve them,
// with counterpart display labels resolved from the ownership table.
type RequestList struct {
	Outgoing []RequestView
	Incoming []RequestView
}

// ListRequests returns the user's outgoing and incoming pending requests.
func (e *Engine) ListRequests(ctx context.Context, groupID, userID string) (RequestList, error) {
	list, err := e.listRequests(ctx, groupID, userID)
	observe("list_requests", err)
	return list, err
}

func (e *Engine) listRequests(ctx context.Context, groupID, userID string) (RequestList, error) {
	outgoing, incoming, err := e.matcher.ListFor(ctx, groupID, userID)
	if err != nil {
		return RequestList{}, err
	}

	for i := range outgoing {
		if rec, ok, err := e.ownership.Get(ctx, groupID, outgoing[i].Target); err == nil && ok {
			outgoing[i].TargetLabel = rec.DisplayLabel
		}
	}
	for i := range incoming {
		if rec, ok, err := e.ownership.Get(ctx, groupID, incoming[i].Initiator); err == nil && ok {
			incoming[i].InitiatorLabel = rec.DisplayLabel
		}
	}

	return RequestList{Outgoing: outgoing, Incoming: incoming}, nil
}
