package service

import (
	"context"
	"time"
)

// Collaborator interfaces the game engine consumes from its environment.
// The chat-platform side (command parsing, message rendering, the actual
// mute call) lives behind these, which keeps the engine embeddable in any
// adapter and makes unit testing cheap.

// PrivilegeChecker reports whether a user may use admin-only operations.
type PrivilegeChecker interface {
	IsPrivileged(userID string) bool
}

// MuteNotifier asks the chat platform to mute a user for a while. Best
// effort, fire and forget: the engine does not care whether the mute lands.
type MuteNotifier interface {
	NotifyMute(ctx context.Context, groupID, userID string, duration time.Duration) error
}

// ResourcePicker selects a resource identifier for a fresh draw. Picking
// may do network or filesystem I/O and therefore always runs outside the
// engine's lock scopes.
type ResourcePicker interface {
	Pick(ctx context.Context) (string, error)
}

// PickerFunc adapts a plain function to the ResourcePicker interface.
type PickerFunc func(ctx context.Context) (string, error)

// Pick implements ResourcePicker.
func (f PickerFunc) Pick(ctx context.Context) (string, error) {
	return f(ctx)
}
