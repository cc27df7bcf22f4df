package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/loan-tracker/internal/domain"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

const tokenKeyPrefix = "upload:token:"

type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

func (s *RedisTokenStore) Save(ctx context.Context, ticket *domain.UploadTicket, ttl time.Duration) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}

	if err := s.client.Set(ctx, tokenKey(ticket.Token), payload, ttl).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (s *RedisTokenStore) Take(ctx context.Context, token string) (*domain.UploadTicket, error) {
	payload, err := s.client.GetDel(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, customError.WrapUploadTokenInvalid(token)
		}
		return nil, customError.WrapCacheError(err)
	}

	return decodeTicket(token, payload)
}

func (s *RedisTokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeTicket(token string, payload []byte) (*domain.UploadTicket, error) {
	var ticket domain.UploadTicket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", token, err)
	}
	return &ticket, nil
}
