package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

func TestMemoryOTPStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore().WithClock(func() time.Time { return now })

	key := models.OTPKey(models.OTPPurposeEmailChange, "user-1")
	entry := models.OTPEntry{Code: "123456", Payload: map[string]string{"email": "new@example.com"}, CreatedAt: now, ExpiresAt: now.Add(models.OTPTTL)}
	require.NoError(t, store.Put(ctx, key, entry, models.OTPTTL))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)

	got.Payload["email"] = "mutated@example.com"
	again, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", again.Payload["email"])

	require.NoError(t, store.Forget(ctx, key))
	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryOTPStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore().WithClock(func() time.Time { return now })

	key := models.OTPKey(models.OTPPurposeContact, "a@example.com")
	require.NoError(t, store.Put(ctx, key, models.OTPEntry{Code: "100000", ExpiresAt: now.Add(time.Minute)}, time.Minute))

	now = now.Add(time.Minute)
	_, err := store.Get(ctx, key)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Zero(t, store.Len())
}

func TestMemoryOTPStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryOTPStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, "otp:contact:old", models.OTPEntry{Code: "1", ExpiresAt: now.Add(time.Minute)}, time.Minute))
	require.NoError(t, store.Put(ctx, "otp:contact:fresh", models.OTPEntry{Code: "2", ExpiresAt: now.Add(time.Hour)}, time.Hour))

	removed, err := store.PurgeExpired(ctx, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestRedisOTPStoreWithoutClient(t *testing.T) {
	store := NewRedisOTPStore(nil, nil)
	ctx := context.Background()

	require.Error(t, store.Put(ctx, "otp:contact:x", models.OTPEntry{Code: "1"}, time.Minute))
	_, err := store.Get(ctx, "otp:contact:x")
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	require.NoError(t, store.Forget(ctx, "otp:contact:x"))
	removed, err := store.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
