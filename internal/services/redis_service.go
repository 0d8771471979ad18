package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"kickfeed/internal/database"
	"kickfeed/internal/kick"

	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Expiry for cached slug -> chatroom id lookups.
const resolverCacheTTL = 24 * time.Hour

type RedisService struct {
	client *database.RedisClient
}

func NewRedisService(client *database.RedisClient) *RedisService {
	return &RedisService{
		client: client,
	}
}

// =============================================================================
// Archived message fan-out
// =============================================================================

// Publish pushes an archived message onto the chatroom's pub/sub channel
// so live consumers see it without polling the archive.
func (r *RedisService) Publish(ctx context.Context, chatroomID int64, payload []byte) error {
	channel := fmt.Sprintf("chatroom:%d:events", chatroomID)
	if err := r.client.GetClient().Publish(ctx, channel, payload).Err(); err != nil {
		slog.Error("Failed to publish to Redis", "channel", channel, "error", err)
		return err
	}
	return nil
}

// Subscribe returns a pub/sub subscription for a chatroom's event channel.
func (r *RedisService) Subscribe(ctx context.Context, chatroomID int64) *redis.PubSub {
	return r.client.GetClient().Subscribe(ctx, fmt.Sprintf("chatroom:%d:events", chatroomID))
}

// =============================================================================
// Chatroom moderation state
// =============================================================================

func (r *RedisService) RecordBan(ctx context.Context, chatroomID int64, ev *kick.UserBannedEvent) error {
	pipe := r.client.GetClient().Pipeline()

	key := fmt.Sprintf("chatroom:%d:banned", chatroomID)
	pipe.SAdd(ctx, key, ev.User.ID)

	detail := fmt.Sprintf("chatroom:%d:ban:%d", chatroomID, ev.User.ID)
	fields := map[string]interface{}{
		"username":  ev.User.Username,
		"banned_by": ev.BannedBy.Username,
		"permanent": ev.Permanent,
		"banned_at": time.Now().Unix(),
	}
	if ev.ExpiresAt != "" {
		fields["expires_at"] = ev.ExpiresAt
	}
	pipe.HSet(ctx, detail, fields)
	if !ev.Permanent && ev.Duration != nil {
		pipe.Expire(ctx, detail, time.Duration(*ev.Duration)*time.Minute)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("Failed to record ban", "chatroomId", chatroomID, "userId", ev.User.ID, "error", err)
		return err
	}

	slog.Debug("Ban recorded", "chatroomId", chatroomID, "userId", ev.User.ID, "permanent", ev.Permanent)
	return nil
}

func (r *RedisService) RecordUnban(ctx context.Context, chatroomID int64, ev *kick.UserUnbannedEvent) error {
	pipe := r.client.GetClient().Pipeline()

	pipe.SRem(ctx, fmt.Sprintf("chatroom:%d:banned", chatroomID), ev.User.ID)
	pipe.Del(ctx, fmt.Sprintf("chatroom:%d:ban:%d", chatroomID, ev.User.ID))

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("Failed to record unban", "chatroomId", chatroomID, "userId", ev.User.ID, "error", err)
		return err
	}

	slog.Debug("Unban recorded", "chatroomId", chatroomID, "userId", ev.User.ID)
	return nil
}

func (r *RedisService) RecordSettings(ctx context.Context, ev *kick.ChatroomUpdatedEvent) error {
	key := fmt.Sprintf("chatroom:%d:settings", ev.ID)
	err := r.client.GetClient().HSet(ctx, key, map[string]interface{}{
		"slow_mode":             ev.SlowMode.Enabled,
		"slow_mode_interval":    ev.SlowMode.MessageInterval,
		"subscribers_mode":      ev.SubscribersMode.Enabled,
		"followers_mode":        ev.FollowersMode.Enabled,
		"followers_min_minutes": ev.FollowersMode.MinDuration,
		"emotes_mode":           ev.EmotesMode.Enabled,
		"bot_protection":        ev.AdvancedBotProtection.Enabled,
		"updated_at":            time.Now().Unix(),
	}).Err()
	if err != nil {
		slog.Error("Failed to record chatroom settings", "chatroomId", ev.ID, "error", err)
		return err
	}

	slog.Debug("Chatroom settings recorded", "chatroomId", ev.ID)
	return nil
}

// GetBannedUsers lists user ids currently banned in a chatroom.
func (r *RedisService) GetBannedUsers(ctx context.Context, chatroomID int64) ([]int64, error) {
	members, err := r.client.GetClient().SMembers(ctx, fmt.Sprintf("chatroom:%d:banned", chatroomID)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// =============================================================================
// Channel resolver cache
// =============================================================================

func (r *RedisService) GetCachedChatroomID(ctx context.Context, slug string) (int64, bool) {
	val, err := r.client.GetClient().Get(ctx, "channel:"+slug+":chatroom_id").Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *RedisService) CacheChatroomID(ctx context.Context, slug string, chatroomID int64) error {
	err := r.client.GetClient().Set(ctx, "channel:"+slug+":chatroom_id", chatroomID, resolverCacheTTL).Err()
	if err != nil {
		slog.Error("Failed to cache chatroom id", "slug", slug, "error", err)
	}
	return err
}
