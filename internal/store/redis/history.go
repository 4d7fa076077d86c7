package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

// Append adds a snapshot to the business stream. The stream id becomes the snapshot key.
func (s *Store) Append(ctx context.Context, businessCode string, snap domain.SyncSnapshot) (string, error) {
	snap.Key = ""
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: HistoryKey(businessCode),
		ID:     "*",
		Values: map[string]interface{}{historyField: data},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append snapshot: %w", err)
	}
	return id, nil
}

// ReadAll returns every snapshot of a business in append order.
func (s *Store) ReadAll(ctx context.Context, businessCode string) ([]domain.SyncSnapshot, error) {
	msgs, err := s.client.XRange(ctx, HistoryKey(businessCode), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	out := make([]domain.SyncSnapshot, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values[historyField].(string)
		if !ok {
			s.skipEntry(businessCode, msg.ID, "missing payload", nil)
			continue
		}
		var snap domain.SyncSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			s.skipEntry(businessCode, msg.ID, "undecodable payload", err)
			continue
		}
		snap.Key = msg.ID
		out = append(out, snap)
	}
	return out, nil
}

// skipEntry reports a stream entry left out of ReadAll. The entry stays in the stream.
func (s *Store) skipEntry(businessCode, id, reason string, err error) {
	metrics.HistorySkipped.WithLabelValues(reason).Inc()
	fields := []logger.Field{
		logger.String("business_code", businessCode),
		logger.String("key", id),
		logger.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	s.logger.Warn("skipping history entry", fields...)
}

// Backend names this history log.
func (s *Store) Backend() string { return "redis" }
