package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/watchalong/server/internal/repository/chat"
)

type repo struct {
	rc         *redis.Client
	historyTtl time.Duration
	logger     *slog.Logger
}

func NewRepo(rc *redis.Client, historyTtl time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:         rc,
		historyTtl: historyTtl,
		logger:     logger,
	}
}

func (r repo) getChatKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

// AppendMessage stores a message in the room's history, scored by its
// timestamp so reads come back in send order.
func (r repo) AppendMessage(ctx context.Context, params *chat.AppendMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	payload, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.getChatKey(params.RoomId)
	pipe := r.rc.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(params.Message.Timestamp),
		Member: payload,
	})
	pipe.Expire(ctx, key, r.historyTtl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// GetMessages returns a room's history ordered by timestamp ascending.
func (r repo) GetMessages(ctx context.Context, roomId string) ([]chat.Message, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	raw, err := r.rc.ZRange(ctx, r.getChatKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	messages := make([]chat.Message, 0, len(raw))
	for _, item := range raw {
		var message chat.Message
		if err := json.Unmarshal([]byte(item), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

func (r repo) RemoveMessages(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	if err := r.rc.Del(ctx, r.getChatKey(roomId)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
