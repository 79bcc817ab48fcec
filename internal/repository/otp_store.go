package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

const otpKeyPattern = "otp:*"

// RedisOTPStore keeps pending one-time codes in Redis with a TTL.
type RedisOTPStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisOTPStore constructs a Redis-backed OTP store.
func NewRedisOTPStore(client *redis.Client, logger *zap.Logger) *RedisOTPStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisOTPStore{client: client, logger: logger}
}

// Put stores entry under key, replacing any previous value.
func (s *RedisOTPStore) Put(ctx context.Context, key string, entry models.OTPEntry, ttl time.Duration) error {
	if s.client == nil {
		return fmt.Errorf("redis otp store: client not configured")
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal otp entry for %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get returns the entry stored under key or appErrors.ErrCacheMiss.
func (s *RedisOTPStore) Get(ctx context.Context, key string) (*models.OTPEntry, error) {
	if s.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var entry models.OTPEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal otp entry for %s: %w", key, err)
	}
	return &entry, nil
}

// Forget removes key. Missing keys are ignored.
func (s *RedisOTPStore) Forget(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes OTP keys whose embedded expiry has passed or that carry no TTL.
func (s *RedisOTPStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if s.client == nil {
		return 0, nil
	}
	removed := 0
	iter := s.client.Scan(ctx, 0, otpKeyPattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry, err := s.Get(ctx, key)
		if err != nil {
			if err == appErrors.ErrCacheMiss {
				continue
			}
			s.logger.Warn("skipping unreadable otp entry", zap.String("key", key), zap.Error(err))
			continue
		}
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("redis ttl %s: %w", key, err)
		}
		if !entry.Expired(now) && ttl > 0 {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return removed, fmt.Errorf("redis delete %s: %w", key, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan pattern %s: %w", otpKeyPattern, err)
	}
	return removed, nil
}

// Close releases the underlying Redis connection if present.
func (s *RedisOTPStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// MemoryOTPStore is a process-local OTP store for single-instance and test setups.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]memoryOTPItem
	now     func() time.Time
}

type memoryOTPItem struct {
	entry     models.OTPEntry
	expiresAt time.Time
}

// NewMemoryOTPStore constructs an empty in-memory store.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]memoryOTPItem), now: time.Now}
}

// WithClock overrides the time source used for TTL checks.
func (s *MemoryOTPStore) WithClock(now func() time.Time) *MemoryOTPStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Put stores entry under key, replacing any previous value.
func (s *MemoryOTPStore) Put(_ context.Context, key string, entry models.OTPEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryOTPItem{entry: cloneEntry(entry), expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the entry stored under key or appErrors.ErrCacheMiss.
func (s *MemoryOTPStore) Get(_ context.Context, key string) (*models.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.entries[key]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	if !s.now().Before(item.expiresAt) {
		delete(s.entries, key)
		return nil, appErrors.ErrCacheMiss
	}
	entry := cloneEntry(item.entry)
	return &entry, nil
}

// Forget removes key.
func (s *MemoryOTPStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// PurgeExpired drops every entry whose TTL has elapsed.
func (s *MemoryOTPStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, item := range s.entries {
		if !strings.HasPrefix(key, "otp:") {
			continue
		}
		if !now.Before(item.expiresAt) || item.entry.Expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryOTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func cloneEntry(entry models.OTPEntry) models.OTPEntry {
	if entry.Payload == nil {
		return entry
	}
	payload := make(map[string]string, len(entry.Payload))
	for k, v := range entry.Payload {
		payload[k] = v
	}
	entry.Payload = payload
	return entry
}
