package game

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func newTestOwnership(day string) (*OwnershipStore, *memStore, *testClock) {
	st := newMemStore()
	clock := newTestClock(day)
	return NewOwnershipStore(st, NewLockCoordinator(), clock.Day), st, clock
}

func TestOwnership_AssignAndActive(t *testing.T) {
	own, _, clock := newTestOwnership("2026-08-28")
	ctx := context.Background()

	rec, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if rec.AcquiredDay != "2026-08-28" {
		t.Errorf("AcquiredDay = %s, expected 2026-08-28", rec.AcquiredDay)
	}

	got, err := own.Active(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if got.ResourceID != "res-1" || got.DisplayLabel != "Alice" {
		t.Errorf("Active() = %+v, expected res-1/Alice", got)
	}

	// The physical record survives rollover but is logically absent.
	clock.Set("2026-08-29")
	if _, err := own.Active(ctx, "g1", "u1"); !errors.Is(err, ErrNoActiveResource) {
		t.Errorf("Active() after rollover error = %v, expected ErrNoActiveResource", err)
	}
	if _, ok, _ := own.Get(ctx, "g1", "u1"); !ok {
		t.Error("Get() after rollover = absent, stale record should be retained")
	}
}

func TestOwnership_Transfer(t *testing.T) {
	own, _, _ := newTestOwnership("2026-08-28")
	ctx := context.Background()

	if _, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice"); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rec, err := own.Transfer(ctx, "g1", "u1", "u2")
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if rec.ResourceID != "res-1" {
		t.Errorf("transferred resource = %s, expected res-1", rec.ResourceID)
	}

	if _, ok, _ := own.Get(ctx, "g1", "u1"); ok {
		t.Error("source entry should be deleted after transfer")
	}
	got, err := own.Active(ctx, "g1", "u2")
	if err != nil {
		t.Fatalf("Active(u2) error = %v", err)
	}
	// The record travels whole: day and label included.
	if got.DisplayLabel != "Alice" {
		t.Errorf("DisplayLabel = %s, expected Alice", got.DisplayLabel)
	}

	if _, err := own.Transfer(ctx, "g1", "u1", "u2"); !errors.Is(err, ErrNoActiveResource) {
		t.Errorf("Transfer() from empty user error = %v, expected ErrNoActiveResource", err)
	}
}

func TestOwnership_Swap(t *testing.T) {
	own, _, _ := newTestOwnership("2026-08-28")
	ctx := context.Background()

	if _, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := own.Assign(ctx, "g1", "u2", "res-2", "Bob"); err != nil {
		t.Fatal(err)
	}

	if err := own.Swap(ctx, "g1", "u1", "u2"); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}

	recA, _ := own.Active(ctx, "g1", "u1")
	recB, _ := own.Active(ctx, "g1", "u2")
	if recA.ResourceID != "res-2" || recB.ResourceID != "res-1" {
		t.Errorf("resources after swap = %s/%s, expected res-2/res-1", recA.ResourceID, recB.ResourceID)
	}
	// Only the resource identifier moves.
	if recA.DisplayLabel != "Alice" || recB.DisplayLabel != "Bob" {
		t.Errorf("labels after swap = %s/%s, expected Alice/Bob", recA.DisplayLabel, recB.DisplayLabel)
	}
}

func TestOwnership_SwapRequiresBothActive(t *testing.T) {
	own, _, _ := newTestOwnership("2026-08-28")
	ctx := context.Background()

	if _, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice"); err != nil {
		t.Fatal(err)
	}

	if err := own.Swap(ctx, "g1", "u1", "u2"); !errors.Is(err, ErrNoActiveResource) {
		t.Fatalf("Swap() error = %v, expected ErrNoActiveResource", err)
	}

	// The failed swap must leave the existing record untouched.
	rec, err := own.Active(ctx, "g1", "u1")
	if err != nil || rec.ResourceID != "res-1" {
		t.Errorf("record after failed swap = %+v, %v; expected res-1 intact", rec, err)
	}
}

func TestOwnership_DiscardIdempotent(t *testing.T) {
	own, _, _ := newTestOwnership("2026-08-28")
	ctx := context.Background()

	if _, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := own.Discard(ctx, "g1", "u1"); err != nil {
			t.Fatalf("Discard() call %d error = %v", i+1, err)
		}
	}

	if _, ok, _ := own.Get(ctx, "g1", "u1"); ok {
		t.Error("record should be gone after discard")
	}
}

func TestOwnership_FindByLabel(t *testing.T) {
	own, _, _ := newTestOwnership("2026-08-28")
	ctx := context.Background()

	if _, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice"); err != nil {
		t.Fatal(err)
	}

	userID, rec, err := own.FindByLabel(ctx, "g1", "Alice")
	if err != nil {
		t.Fatalf("FindByLabel() error = %v", err)
	}
	if userID != "u1" || rec.ResourceID != "res-1" {
		t.Errorf("FindByLabel() = %s/%s, expected u1/res-1", userID, rec.ResourceID)
	}

	if _, _, err := own.FindByLabel(ctx, "g1", "Nobody"); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("FindByLabel() unknown label error = %v, expected ErrInvalidTarget", err)
	}
}

// resources returns the sorted resource identifiers present in a group.
func resources(t *testing.T, ctx context.Context, st *memStore, groupID string) []string {
	t.Helper()
	table, err := st.LoadOwnership(ctx, groupID)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, rec := range table {
		ids = append(ids, rec.ResourceID)
	}
	sort.Strings(ids)
	return ids
}

func TestOwnership_Conservation(t *testing.T) {
	own, st, _ := newTestOwnership("2026-08-28")
	ctx := context.Background()

	if _, err := own.Assign(ctx, "g1", "u1", "res-1", "Alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := own.Assign(ctx, "g1", "u2", "res-2", "Bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := own.Assign(ctx, "g1", "u3", "res-3", "Cara"); err != nil {
		t.Fatal(err)
	}

	// Transfers and swaps never duplicate or lose a resource.
	if _, err := own.Transfer(ctx, "g1", "u3", "u4"); err != nil {
		t.Fatal(err)
	}
	if err := own.Swap(ctx, "g1", "u1", "u2"); err != nil {
		t.Fatal(err)
	}

	got := resources(t, ctx, st, "g1")
	want := []string{"res-1", "res-2", "res-3"}
	if len(got) != len(want) {
		t.Fatalf("resources = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("resources = %v, expected %v", got, want)
		}
	}

	// Discard removes exactly one.
	if err := own.Discard(ctx, "g1", "u4"); err != nil {
		t.Fatal(err)
	}
	if got := resources(t, ctx, st, "g1"); len(got) != 2 {
		t.Fatalf("resources after discard = %v, expected 2 entries", got)
	}
}
