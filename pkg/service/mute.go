package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// DefaultMuteChannel is the pub/sub channel mute intents are published to.
const DefaultMuteChannel = "wifegame:mute"

// MuteIntent is the message published for each requested mute. The chat
// adapter subscribes to the channel and performs the actual platform call.
type MuteIntent struct {
	GroupID         string `json:"groupId"`
	UserID          string `json:"userId"`
	DurationSeconds int    `json:"durationSeconds"`
}

// RedisMuteNotifier publishes mute intents on a Redis pub/sub channel.
// Delivery is best effort: nobody listening means the intent is dropped,
// which is acceptable for a punitive side effect.
type RedisMuteNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisMuteNotifier creates a notifier on the given channel; an empty
// channel selects DefaultMuteChannel.
func NewRedisMuteNotifier(client *redis.Client, channel string) *RedisMuteNotifier {
	if channel == "" {
		channel = DefaultMuteChannel
	}
	return &RedisMuteNotifier{client: client, channel: channel}
}

// NotifyMute implements MuteNotifier.
func (n *RedisMuteNotifier) NotifyMute(ctx context.Context, groupID, userID string, duration time.Duration) error {
	intent := MuteIntent{
		GroupID:         groupID,
		UserID:          userID,
		DurationSeconds: int(duration / time.Second),
	}

	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to encode mute intent: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		logrus.Errorf("failed to publish mute intent: group=%s user=%s: %v", groupID, userID, err)
		return fmt.Errorf("failed to publish mute intent: %w", err)
	}

	logrus.Infof("mute intent published: group=%s user=%s duration=%v", groupID, userID, duration)
	return nil
}
