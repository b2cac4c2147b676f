package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore хранит значения в Redis под общим префиксом
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore создает хранилище поверх подключенного клиента
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "prono:credentials:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Get возвращает значение по ключу
func (rs *RedisStore) Get(ctx context.Context, key string) (string, error) {
	data, err := rs.client.Get(ctx, rs.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка загрузки из Redis: %w", err)
	}
	return data, nil
}

// Set сохраняет значение. Для JWT со сроком действия ключ получает
// такой же TTL; истекший JWT не сохраняется и возвращает ErrTokenExpired.
func (rs *RedisStore) Set(ctx context.Context, key, value string) error {
	return rs.SetAll(ctx, map[string]string{key: value})
}

// SetAll сохраняет значения в одной транзакции MULTI/EXEC с общим TTL.
// TTL равен самому позднему сроку среди JWT; если среди значений есть
// токен без срока, ключи хранятся бессрочно. Пара ключей истекает
// одновременно, поэтому в Redis не остается половины пары.
func (rs *RedisStore) SetAll(ctx context.Context, values map[string]string) error {
	ttl, err := rs.sharedTTL(values)
	if err != nil {
		return err
	}

	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, rs.prefix+key, value, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в Redis: %w", err)
	}
	return nil
}

func (rs *RedisStore) sharedTTL(values map[string]string) (time.Duration, error) {
	var ttl time.Duration
	for _, value := range values {
		exp, ok := TokenExpiry(value)
		if !ok {
			return 0, nil
		}
		if left := exp.Sub(rs.now()); left > ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return 0, ErrTokenExpired
	}
	return ttl, nil
}

// Delete удаляет значение
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.prefix+key).Err(); err != nil {
		return fmt.Errorf("ошибка удаления из Redis: %w", err)
	}
	return nil
}
