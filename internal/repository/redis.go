package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parkovka/internal/config"
	"parkovka/internal/models"
)

// RedisHoldRepository keeps short-TTL slot holds and relocation incident
// markers. Both are best-effort accelerators: the sqlite transactions stay
// authoritative.
type RedisHoldRepository struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisHoldRepository(client *redis.Client) *RedisHoldRepository {
	return &RedisHoldRepository{client: client}
}

func holdKey(ref models.SlotRef) string {
	return fmt.Sprintf("slot_hold:%s:%s", ref.Floor, ref.SlotID)
}

func incidentKey(bookingID string) string {
	return fmt.Sprintf("relocation_incident:%s", bookingID)
}

// AcquireHold places a hold on the slot for the selection-to-commit
// window. Returns false when another user currently holds it.
func (r *RedisHoldRepository) AcquireHold(ctx context.Context, ref models.SlotRef, username string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	ok, err := r.client.SetNX(ctx, holdKey(ref), username, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire hold: %w", err)
	}
	if ok {
		return true, nil
	}

	// Re-acquiring your own hold extends it.
	holder, err := r.client.Get(ctx, holdKey(ref)).Result()
	if err == redis.Nil {
		return r.client.SetNX(ctx, holdKey(ref), username, ttl).Result()
	}
	if err != nil {
		return false, fmt.Errorf("failed to read hold: %w", err)
	}
	if holder == username {
		if err := r.client.Set(ctx, holdKey(ref), username, ttl).Err(); err != nil {
			return false, fmt.Errorf("failed to extend hold: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// ReleaseHold drops the hold if this user owns it.
func (r *RedisHoldRepository) ReleaseHold(ctx context.Context, ref models.SlotRef, username string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	holder, err := r.client.Get(ctx, holdKey(ref)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hold: %w", err)
	}
	if holder != username {
		return nil
	}
	if err := r.client.Del(ctx, holdKey(ref)).Err(); err != nil {
		return fmt.Errorf("failed to release hold: %w", err)
	}
	return nil
}

// MarkIncident flags a relocation incident for the booking. Returns true
// only for the first caller; later detector firings see false and skip.
func (r *RedisHoldRepository) MarkIncident(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	ok, err := r.client.SetNX(ctx, incidentKey(bookingID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark incident: %w", err)
	}
	return ok, nil
}

// ClearIncident drops the incident marker so detection can fire again.
func (r *RedisHoldRepository) ClearIncident(ctx context.Context, bookingID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, incidentKey(bookingID)).Err(); err != nil {
		return fmt.Errorf("failed to clear incident: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
