package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"chores-backend/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// ReplayStore is the subset of redis commands the guard needs. *redis.Client
// satisfies it.
type ReplayStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ReplayGuard 通知去重
// Records processed notification UUIDs in Redis so a redelivered notification
// is acknowledged without reprocessing
type ReplayGuard struct {
	store ReplayStore
	ttl   time.Duration
}

// NewReplayGuard creates a replay guard backed by the given Redis client
func NewReplayGuard(client *redis.Client) *ReplayGuard {
	g := &ReplayGuard{
		ttl: 24 * time.Hour, // Apple redelivers within hours, a day is plenty
	}
	if client != nil {
		g.store = client
	}
	return g
}

// IsDuplicate 检查是否为重复通知
// Returns true when this notification has already been processed successfully.
// The check is read-only: a notification is only recorded by MarkProcessed, so
// a processing failure leaves Apple's retry eligible for reprocessing.
// A missing UUID or a Redis fault never blocks processing.
func (g *ReplayGuard) IsDuplicate(ctx context.Context, notificationUUID string, signedDate int64) bool {
	if notificationUUID == "" {
		logging.Infof("Notification UUID is empty, skipping replay check")
		return false
	}
	if g.store == nil {
		return false
	}

	key := g.key(notificationUUID, signedDate)

	seen, err := g.store.Exists(ctx, key).Result()
	if err != nil {
		logging.Errorf("Replay check failed, allowing notification: %v", err)
		return false
	}

	if seen > 0 {
		logging.Infof("Duplicate notification detected - uuid: %s", notificationUUID)
		return true
	}
	return false
}

// MarkProcessed 记录已处理的通知
// Records the notification after it has been applied. Never called for a
// failed notification, so the retry after a 500 is reprocessed.
func (g *ReplayGuard) MarkProcessed(ctx context.Context, notificationUUID string, signedDate int64) {
	if notificationUUID == "" || g.store == nil {
		return
	}

	key := g.key(notificationUUID, signedDate)

	if err := g.store.Set(ctx, key, time.Now().Unix(), g.ttl).Err(); err != nil {
		// Worst case the duplicate is processed again; the update is idempotent
		logging.Errorf("Failed to record processed notification: %v", err)
	}
}

// key 生成通知的唯一标识符
func (g *ReplayGuard) key(notificationUUID string, signedDate int64) string {
	data := fmt.Sprintf("%s:%d", notificationUUID, signedDate)
	hash := sha256.Sum256([]byte(data))
	return "appstore_notification:" + hex.EncodeToString(hash[:])
}
