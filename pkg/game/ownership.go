package game

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// OwnershipStore is the source of truth for which user holds which resource
// in a group today. Every mutation runs inside the group's ownership lock
// and persists the whole table before the lock is released.
type OwnershipStore struct {
	store TableStore
	locks *LockCoordinator
	day   DayFunc
}

// NewOwnershipStore creates an ownership store on top of the table store.
func NewOwnershipStore(store TableStore, locks *LockCoordinator, day DayFunc) *OwnershipStore {
	return &OwnershipStore{store: store, locks: locks, day: day}
}

// Get returns the raw record for a user, stale or not. Callers decide
// activeness via ActiveOn.
func (o *OwnershipStore) Get(ctx context.Context, groupID, userID string) (OwnershipRecord, bool, error) {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return OwnershipRecord{}, false, err
	}

	rec, ok := table[userID]
	return rec, ok, nil
}

// Active returns the user's record for today, or ErrNoActiveResource when
// the user holds nothing or only a stale record.
func (o *OwnershipStore) Active(ctx context.Context, groupID, userID string) (OwnershipRecord, error) {
	rec, ok, err := o.Get(ctx, groupID, userID)
	if err != nil {
		return OwnershipRecord{}, err
	}
	if !ok || !rec.ActiveOn(o.day()) {
		return OwnershipRecord{}, fmt.Errorf("user %s: %w", userID, ErrNoActiveResource)
	}
	return rec, nil
}

// FindByLabel resolves a user by the display label snapshotted on their
// record. The first match wins; labels are not guaranteed unique.
func (o *OwnershipStore) FindByLabel(ctx context.Context, groupID, label string) (string, OwnershipRecord, error) {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return "", OwnershipRecord{}, err
	}

	for userID, rec := range table {
		if rec.DisplayLabel == label {
			return userID, rec, nil
		}
	}
	return "", OwnershipRecord{}, fmt.Errorf("label %q: %w", label, ErrInvalidTarget)
}

// Assign overwrites the user's record with a fresh holding acquired today.
func (o *OwnershipStore) Assign(ctx context.Context, groupID, userID, resourceID, displayLabel string) (OwnershipRecord, error) {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return OwnershipRecord{}, err
	}

	rec := OwnershipRecord{
		ResourceID:   resourceID,
		AcquiredDay:  o.day(),
		DisplayLabel: displayLabel,
	}
	table[userID] = rec
	if err := o.store.SaveOwnership(ctx, groupID, table); err != nil {
		return OwnershipRecord{}, err
	}

	return rec, nil
}

// AssignIfAbsent assigns a fresh holding only when the user has no active
// record. When a concurrent draw got there first the existing record is
// returned and the fresh flag is false.
func (o *OwnershipStore) AssignIfAbsent(ctx context.Context, groupID, userID, resourceID, displayLabel string) (OwnershipRecord, bool, error) {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return OwnershipRecord{}, false, err
	}

	today := o.day()
	if existing, ok := table[userID]; ok && existing.ActiveOn(today) {
		return existing, false, nil
	}

	rec := OwnershipRecord{
		ResourceID:   resourceID,
		AcquiredDay:  today,
		DisplayLabel: displayLabel,
	}
	table[userID] = rec
	if err := o.store.SaveOwnership(ctx, groupID, table); err != nil {
		return OwnershipRecord{}, false, err
	}

	return rec, true, nil
}

// Transfer moves an active holding from one user to another, deleting the
// source entry. The acquisition day and display label travel with the
// record unchanged. Fails with ErrNoActiveResource when the source user has
// nothing to lose today.
func (o *OwnershipStore) Transfer(ctx context.Context, groupID, fromUser, toUser string) (OwnershipRecord, error) {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return OwnershipRecord{}, err
	}

	rec, ok := table[fromUser]
	if !ok || !rec.ActiveOn(o.day()) {
		return OwnershipRecord{}, fmt.Errorf("user %s: %w", fromUser, ErrNoActiveResource)
	}

	table[toUser] = rec
	delete(table, fromUser)
	if err := o.store.SaveOwnership(ctx, groupID, table); err != nil {
		return OwnershipRecord{}, err
	}

	logrus.Infof("ownership transferred: group=%s %s -> %s resource=%s",
		groupID, fromUser, toUser, rec.ResourceID)
	return rec, nil
}

// Discard deletes the user's record unconditionally. Idempotent.
func (o *OwnershipStore) Discard(ctx context.Context, groupID, userID string) error {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return err
	}

	if _, ok := table[userID]; !ok {
		return nil
	}

	delete(table, userID)
	return o.store.SaveOwnership(ctx, groupID, table)
}

// Swap exchanges the resource identifiers of two active holdings. Only the
// resource moves; each party keeps their own acquisition day and display
// label. Fails with ErrNoActiveResource when either party holds nothing
// today, leaving both records untouched.
func (o *OwnershipStore) Swap(ctx context.Context, groupID, userA, userB string) error {
	lock := o.locks.OwnershipLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	table, err := o.store.LoadOwnership(ctx, groupID)
	if err != nil {
		return err
	}

	today := o.day()
	recA, okA := table[userA]
	recB, okB := table[userB]
	if !okA || !recA.ActiveOn(today) {
		return fmt.Errorf("user %s: %w", userA, ErrNoActiveResource)
	}
	if !okB || !recB.ActiveOn(today) {
		return fmt.Errorf("user %s: %w", userB, ErrNoActiveResource)
	}

	recA.ResourceID, recB.ResourceID = recB.ResourceID, recA.ResourceID
	table[userA] = recA
	table[userB] = recB
	if err := o.store.SaveOwnership(ctx, groupID, table); err != nil {
		return err
	}

	logrus.Infof("ownership swapped: group=%s %s <-> %s", groupID, userA, userB)
	return nil
}
