package game

import "context"

// ToggleStore guards the per-group contest feature flags. Absence of a
// group key means the feature is enabled.
type ToggleStore struct {
	store TableStore
	locks *LockCoordinator
}

// NewToggleStore creates a toggle store on top of the table store.
func NewToggleStore(store TableStore, locks *LockCoordinator) *ToggleStore {
	return &ToggleStore{store: store, locks: locks}
}

// Enabled reports whether the contest feature is on for a group.
func (t *ToggleStore) Enabled(ctx context.Context, groupID string) (bool, error) {
	lock := t.locks.TogglesLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := t.store.LoadToggles(ctx)
	if err != nil {
		return false, err
	}

	enabled, ok := table[groupID]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

// Flip inverts the group's flag and returns the new state.
func (t *ToggleStore) Flip(ctx context.Context, groupID string) (bool, error) {
	lock := t.locks.TogglesLock()
	lock.Lock()
	defer lock.Unlock()

	table, err := t.store.LoadToggles(ctx)
	if err != nil {
		return false, err
	}

	enabled, ok := table[groupID]
	if !ok {
		enabled = true
	}

	table[groupID] = !enabled
	if err := t.store.SaveToggles(ctx, table); err != nil {
		return false, err
	}

	return !enabled, nil
}
