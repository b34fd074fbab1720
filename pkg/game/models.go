package game

import "context"

// ActionKind identifies one of the four independently limited daily action
// families. Counter records are keyed per group, user and kind.
type ActionKind string

const (
	// ActionContest counts attempts to steal another user's resource.
	ActionContest ActionKind = "contest"
	// ActionDiscard counts discard-and-redraw uses.
	ActionDiscard ActionKind = "discard"
	// ActionReset counts reset-token uses by the actor.
	ActionReset ActionKind = "reset"
	// ActionExchange counts outgoing exchange proposals.
	ActionExchange ActionKind = "exchange"
)

// OwnershipRecord ties a user to the resource they hold. A record is active
// only on the day it was acquired; stale records stay stored until
// overwritten but every reader treats them as absent.
type OwnershipRecord struct {
	ResourceID   string `json:"resourceId"`
	AcquiredDay  string `json:"acquiredDay"`
	DisplayLabel string `json:"displayLabel"`
}

// ActiveOn reports whether the record counts as a holding on the given day.
func (r OwnershipRecord) ActiveOn(day string) bool {
	return r.AcquiredDay == day
}

// CounterRecord tracks how many attempts of one action kind a user spent on
// one day. A record whose day is not the current day counts as zero.
type CounterRecord struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ExchangeRequest is a pending proposal, keyed by its initiator. A user has
// at most one outgoing request per group; requests from a prior day are
// purged when the table is loaded.
type ExchangeRequest struct {
	TargetUser string `json:"target"`
	Day        string `json:"day"`
}

// CounterTable is the per-group counters document: kind -> user -> record.
type CounterTable map[ActionKind]map[string]CounterRecord

func (t CounterTable) get(kind ActionKind, userID string) (CounterRecord, bool) {
	byUser, ok := t[kind]
	if !ok {
		return CounterRecord{}, false
	}
	rec, ok := byUser[userID]
	return rec, ok
}

func (t CounterTable) put(kind ActionKind, userID string, rec CounterRecord) {
	byUser := t[kind]
	if byUser == nil {
		byUser = make(map[string]CounterRecord)
		t[kind] = byUser
	}
	byUser[userID] = rec
}

func (t CounterTable) remove(kind ActionKind, userID string) {
	if byUser, ok := t[kind]; ok {
		delete(byUser, userID)
	}
}

// TableStore is the durable backing for the four logical game tables. Each
// table is read and written whole, so a save either lands completely or not
// at all. Implementations must return ready-to-use empty maps for tables
// that do not exist yet.
type TableStore interface {
	LoadOwnership(ctx context.Context, groupID string) (map[string]OwnershipRecord, error)
	SaveOwnership(ctx context.Context, groupID string, table map[string]OwnershipRecord) error

	LoadCounters(ctx context.Context, groupID string) (CounterTable, error)
	SaveCounters(ctx context.Context, groupID string, table CounterTable) error

	LoadExchanges(ctx context.Context, groupID string) (map[string]ExchangeRequest, error)
	SaveExchanges(ctx context.Context, groupID string, table map[string]ExchangeRequest) error

	LoadToggles(ctx context.Context) (map[string]bool, error)
	SaveToggles(ctx context.Context, table map[string]bool) error
}
