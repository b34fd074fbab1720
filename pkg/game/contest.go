package game

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ContestEngine resolves probabilistic attempts to take another user's
// active resource. The attempt slot is spent up front and is never
// refunded: the cost is per attempt, not per success.
type ContestEngine struct {
	toggles   *ToggleStore
	quota     *QuotaLedger
	ownership *OwnershipStore
	matcher   *ExchangeMatcher
	rules     *Rules
	randFloat func() float64
}

// NewContestEngine wires the contest engine to its collaborators.
func NewContestEngine(toggles *ToggleStore, quota *QuotaLedger, ownership *OwnershipStore, matcher *ExchangeMatcher, rules *Rules, randFloat func() float64) *ContestEngine {
	return &ContestEngine{
		toggles:   toggles,
		quota:     quota,
		ownership: ownership,
		matcher:   matcher,
		rules:     rules,
		randFloat: randFloat,
	}
}

// ContestResult describes the outcome of one attempt.
type ContestResult struct {
	// Won reports whether the resource changed hands.
	Won bool
	// Resource is the transferred record when Won is true.
	Resource OwnershipRecord
	// Remaining is how many attempts the actor has left today.
	Remaining int
	// Cancelled is the number of exchange requests swept away by the
	// transfer; zero when no user-visible notice is needed.
	Cancelled int
}

// Attempt runs the contest protocol for actor against target.
func (c *ContestEngine) Attempt(ctx context.Context, groupID, actor, target string) (ContestResult, error) {
	enabled, err := c.toggles.Enabled(ctx, groupID)
	if err != nil {
		return ContestResult{}, err
	}
	if !enabled {
		return ContestResult{}, fmt.Errorf("group %s: %w", groupID, ErrFeatureDisabled)
	}

	remaining, err := c.quota.CheckAndConsume(ctx, groupID, actor, ActionContest, c.rules.ContestMax)
	if err != nil {
		return ContestResult{}, err
	}

	if target == "" || target == actor {
		return ContestResult{}, fmt.Errorf("contest target %q: %w", target, ErrInvalidTarget)
	}
	if _, err := c.ownership.Active(ctx, groupID, target); err != nil {
		return ContestResult{}, err
	}

	if c.randFloat() >= c.rules.ContestProbability {
		logrus.Debugf("contest lost: group=%s actor=%s target=%s remaining=%d",
			groupID, actor, target, remaining)
		return ContestResult{Remaining: remaining}, nil
	}

	rec, err := c.ownership.Transfer(ctx, groupID, target, actor)
	if err != nil {
		// The target's holding vanished between the check and the
		// transfer; the attempt still counts.
		return ContestResult{}, err
	}

	cancelled, err := c.matcher.CancelAffecting(ctx, groupID, []string{actor, target})
	if err != nil {
		return ContestResult{}, err
	}

	logrus.Infof("contest won: group=%s actor=%s target=%s resource=%s",
		groupID, actor, target, rec.ResourceID)
	return ContestResult{
		Won:       true,
		Resource:  rec,
		Remaining: remaining,
		Cancelled: cancelled,
	}, nil
}
