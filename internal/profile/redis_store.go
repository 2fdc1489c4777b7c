// File: internal/profile/redis_store.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	platformredis "identity_bridge_backend/internal/platform/redis"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each profile as a hash at "<prefix>:<userID>".
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, logger: logger.Named("RedisStore")}
}

func (s *RedisStore) key(userID string) string {
	return platformredis.Key(s.prefix, userID)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Record, error) {
	values, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", userID, err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}

	rec := &Record{
		Email:       values[FieldEmail],
		DisplayName: values[FieldDisplayName],
		ProfileURL:  values[FieldProfileURL],
	}
	if raw := values[FieldCreatedAt]; raw != "" {
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("decode %s of %s: %w", FieldCreatedAt, userID, err)
		}
	}
	if rec.IsVerified, err = parseFlag(values[FieldIsVerified]); err != nil {
		return nil, fmt.Errorf("decode %s of %s: %w", FieldIsVerified, userID, err)
	}
	if rec.IsAdmin, err = parseFlag(values[FieldIsAdmin]); err != nil {
		return nil, fmt.Errorf("decode %s of %s: %w", FieldIsAdmin, userID, err)
	}
	return rec, nil
}

func (s *RedisStore) Set(ctx context.Context, userID string, fields Fields, opts SetOptions) error {
	if err := fields.validate(); err != nil {
		return err
	}
	values := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case serverTimestamp:
			values[name] = time.Now().UTC().Format(time.RFC3339Nano)
		case time.Time:
			values[name] = v.UTC().Format(time.RFC3339Nano)
		case bool:
			values[name] = strconv.FormatBool(v)
		case string:
			values[name] = v
		default:
			return fmt.Errorf("profile field %q has unsupported value type %T", name, value)
		}
	}

	if len(values) == 0 && opts.Merge {
		return nil
	}

	key := s.key(userID)
	if opts.CreateOnly {
		if err := s.create(ctx, key, values); err != nil {
			return err
		}
		s.logger.Debug("Profile hash created", zap.String("userID", userID))
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if !opts.Merge {
			pipe.Del(ctx, key)
		}
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write %s: %w", userID, err)
	}
	s.logger.Debug("Profile hash written", zap.String("userID", userID), zap.Bool("merge", opts.Merge))
	return nil
}

// create writes values only if key is absent. A concurrent writer that touches key
// between the check and the write aborts the transaction, which counts as existing.
func (s *RedisStore) create(ctx context.Context, key string, values map[string]interface{}) error {
	if len(values) == 0 {
		return fmt.Errorf("redis create %s: no fields", key)
	}
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values)
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, redis.TxFailedErr):
		return ErrAlreadyExists
	case err != nil:
		return fmt.Errorf("redis create %s: %w", key, err)
	}
	return nil
}

func parseFlag(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
