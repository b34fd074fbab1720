//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/monbed/wifegame/pkg/game"
	"github.com/monbed/wifegame/pkg/service"
	"github.com/monbed/wifegame/pkg/store"
)

// Manual integration check for the game engine against a real Redis.
// Run with: go run -tags integration test_redis_integration.go
// Requires: Redis running on localhost:6379

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Info("starting Redis integration check...")

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Fatalf("failed to reach Redis: %v", err)
	}
	defer client.Close()

	groupID := fmt.Sprintf("it-group-%d", time.Now().Unix())

	catalogKey := "wifegame:it:catalog"
	client.SAdd(ctx, catalogKey, "sousou-no-frieren!frieren", "k-on!azusa", "clannad!nagisa")
	defer client.Del(ctx, catalogKey)

	engine := game.NewEngine(
		store.NewRedisTableStore(client),
		service.NewRedisResourcePicker(client, catalogKey),
		service.NewStaticPrivilegeChecker([]string{"admin-1"}),
		service.NewRedisMuteNotifier(client, ""),
		game.EngineConfig{},
	)

	logrus.Info("=== draw for two users ===")
	a, err := engine.Draw(ctx, groupID, "user-a", "Alice")
	if err != nil {
		logrus.Fatalf("draw failed: %v", err)
	}
	b, err := engine.Draw(ctx, groupID, "user-b", "Bob")
	if err != nil {
		logrus.Fatalf("draw failed: %v", err)
	}
	logrus.Infof("user-a holds %s, user-b holds %s", a.Record.ResourceID, b.Record.ResourceID)

	logrus.Info("=== propose and accept exchange ===")
	if _, err := engine.ProposeExchange(ctx, groupID, "user-a", "user-b"); err != nil {
		logrus.Fatalf("propose failed: %v", err)
	}
	if _, err := engine.AcceptExchange(ctx, groupID, "user-b", "user-a"); err != nil {
		logrus.Fatalf("accept failed: %v", err)
	}

	swapped, err := engine.Lookup(ctx, groupID, "user-a")
	if err != nil {
		logrus.Fatalf("lookup failed: %v", err)
	}
	if swapped.ResourceID != b.Record.ResourceID {
		logrus.Fatalf("exchange did not swap: got %s, want %s", swapped.ResourceID, b.Record.ResourceID)
	}
	logrus.Info("exchange verified")

	logrus.Info("=== privileged reset ===")
	if _, err := engine.ResetContest(ctx, groupID, "admin-1", "user-a"); err != nil {
		logrus.Fatalf("privileged reset failed: %v", err)
	}

	logrus.Info("integration check passed")
}
