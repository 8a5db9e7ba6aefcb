// Package notify delivers match events to interested parties.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"swiftjobs-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const EventMatchCreated = "EVENT_MATCH_CREATED"

type matchEvent struct {
	Type        string `json:"type"`
	MatchID     string `json:"matchId"`
	ApplicantID string `json:"applicantId"`
	JobID       string `json:"jobId"`
	MatchScore  *int   `json:"matchScore,omitempty"`
}

// RedisNotifier publishes one JSON message per created match on a pub/sub
// channel for the gateway to fan out.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, channel string, log *zap.Logger) *RedisNotifier {
	if channel == "" {
		channel = EventMatchCreated
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotifier{rdb: rdb, channel: channel, log: log}
}

func (n *RedisNotifier) NotifyMatch(ctx context.Context, m *domain.Match) error {
	payload, err := json.Marshal(matchEvent{
		Type:        EventMatchCreated,
		MatchID:     m.ID,
		ApplicantID: m.ApplicantID,
		JobID:       m.JobID,
		MatchScore:  m.MatchScore,
	})
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	n.log.Debug("match event published", zap.String("match_id", m.ID), zap.String("channel", n.channel))
	return nil
}

// LogNotifier only logs; used when Redis is not configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyMatch(_ context.Context, m *domain.Match) error {
	n.log.Info("match created",
		zap.String("match_id", m.ID),
		zap.String("applicant_id", m.ApplicantID),
		zap.String("job_id", m.JobID),
	)
	return nil
}
