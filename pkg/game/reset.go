package game

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/monbed/wifegame/pkg/service"
)

// ResetArbiter clears a user's daily counter for the contest or discard
// family. Privileged actors reset deterministically and for free; everyone
// else spends a reset token and gambles: failure earns the actor a
// temporary mute. The mute itself is an instruction to the chat platform,
// not something the arbiter performs.
type ResetArbiter struct {
	quota     *QuotaLedger
	rules     *Rules
	priv      service.PrivilegeChecker
	mute      service.MuteNotifier
	randFloat func() float64
}

// NewResetArbiter wires the arbiter to its collaborators.
func NewResetArbiter(quota *QuotaLedger, rules *Rules, priv service.PrivilegeChecker, mute service.MuteNotifier, randFloat func() float64) *ResetArbiter {
	return &ResetArbiter{
		quota:     quota,
		rules:     rules,
		priv:      priv,
		mute:      mute,
		randFloat: randFloat,
	}
}

// PenaltyMute tells the caller to mute a user for a while.
type PenaltyMute struct {
	UserID   string
	Duration time.Duration
}

// ResetResult describes the outcome of one reset attempt.
type ResetResult struct {
	// Succeeded reports whether the reset went through (the gamble won, or
	// the actor was privileged).
	Succeeded bool
	// Cleared reports whether a current-day counter record was actually
	// removed; a reset of an already-clean counter succeeds with false.
	Cleared bool
	// Privileged reports whether the deterministic admin path was taken.
	Privileged bool
	// Penalty is set on a failed gamble.
	Penalty *PenaltyMute
}

// Reset clears target's counter of the given family on behalf of actor.
// Only the contest and discard families can be reset.
func (r *ResetArbiter) Reset(ctx context.Context, groupID, actor, target string, kind ActionKind) (ResetResult, error) {
	if kind != ActionContest && kind != ActionDiscard {
		return ResetResult{}, fmt.Errorf("cannot reset %s counters: %w", kind, ErrInvalidTarget)
	}
	if target == "" {
		target = actor
	}

	if r.priv.IsPrivileged(actor) {
		cleared, err := r.quota.Clear(ctx, groupID, target, kind)
		if err != nil {
			return ResetResult{}, err
		}
		logrus.Infof("privileged reset: group=%s actor=%s target=%s kind=%s", groupID, actor, target, kind)
		return ResetResult{Succeeded: true, Cleared: cleared, Privileged: true}, nil
	}

	if _, err := r.quota.CheckAndConsume(ctx, groupID, actor, ActionReset, r.rules.ResetMaxPerDay); err != nil {
		return ResetResult{}, err
	}

	if r.randFloat() < r.rules.ResetSuccessRate {
		cleared, err := r.quota.Clear(ctx, groupID, target, kind)
		if err != nil {
			return ResetResult{}, err
		}
		return ResetResult{Succeeded: true, Cleared: cleared}, nil
	}

	duration := r.rules.MuteDuration()
	if err := r.mute.NotifyMute(ctx, groupID, actor, duration); err != nil {
		logrus.Warnf("mute notification failed: group=%s user=%s: %v", groupID, actor, err)
	}

	logrus.Infof("reset gamble lost: group=%s actor=%s kind=%s mute=%v", groupID, actor, kind, duration)
	return ResetResult{Penalty: &PenaltyMute{UserID: actor, Duration: duration}}, nil
}
