package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vitrina/internal/onboarding/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

const redisKeyPrefix = "onboarding:draft:"

// Redis persists drafts in Redis so wizard steps can land on different
// instances. Drafts expire server-side after the TTL; an abandoned wizard
// cleans itself up.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed draft store.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (s *Redis) Save(ctx context.Context, draft *models.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+draft.SubjectID.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Redis) Find(ctx context.Context, subjectID id.SubjectID) (*models.Draft, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+subjectID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("draft not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find draft: %w", err)
	}
	var draft models.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

func (s *Redis) Delete(ctx context.Context, subjectID id.SubjectID) error {
	if err := s.client.Del(ctx, redisKeyPrefix+subjectID.String()).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
