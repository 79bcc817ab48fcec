package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/internal/repository"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

type otpFixture struct {
	svc      *OTPService
	store    *repository.MemoryOTPStore
	notifier *recordingNotifier
	now      time.Time
}

func newOTPFixture(code string) *otpFixture {
	f := &otpFixture{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), notifier: &recordingNotifier{}}
	clock := func() time.Time { return f.now }
	f.store = repository.NewMemoryOTPStore().WithClock(clock)
	f.svc = NewOTPService(f.store, f.notifier, nil, nil).
		WithClock(clock).
		WithCodeGenerator(func(min, max int) (string, error) { return code, nil })
	return f
}

func TestOTPRequestStoresAndMailsCode(t *testing.T) {
	f := newOTPFixture("482913")
	ctx := context.Background()

	err := f.svc.Request(ctx, ContactFlow, OTPChallenge{Subject: "a@x.com", Recipient: "a@x.com"})
	require.NoError(t, err)

	entry, err := f.store.Get(ctx, models.OTPKey(models.OTPPurposeContact, "a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "482913", entry.Code)
	assert.Equal(t, f.now.Add(models.OTPTTL), entry.ExpiresAt)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "a@x.com", f.notifier.sent[0].To)
	assert.Equal(t, "482913", f.notifier.sent[0].Data["otp"])
	assert.Equal(t, 10, f.notifier.sent[0].Data["ttl_minutes"])
}

func TestOTPRequestOverwritesPreviousCode(t *testing.T) {
	f := newOTPFixture("111111")
	ctx := context.Background()
	require.NoError(t, f.svc.Request(ctx, ContactFlow, OTPChallenge{Subject: "a@x.com", Recipient: "a@x.com"}))

	f.svc.WithCodeGenerator(func(min, max int) (string, error) { return "222222", nil })
	require.NoError(t, f.svc.Request(ctx, ContactFlow, OTPChallenge{Subject: "a@x.com", Recipient: "a@x.com"}))

	err := f.svc.Verify(ctx, ContactFlow, "a@x.com", "111111", nil)
	require.ErrorIs(t, err, appErrors.ErrOTPInvalid)
	require.NoError(t, f.svc.Verify(ctx, ContactFlow, "a@x.com", "222222", nil))
}

func TestOTPRequestNotificationFailureIsHard(t *testing.T) {
	f := newOTPFixture("123456")
	f.notifier.sendErr = errors.New("smtp down")
	ctx := context.Background()

	err := f.svc.Request(ctx, EmailChangeFlow, OTPChallenge{Subject: "user-1", Recipient: "old@x.com"})
	require.ErrorIs(t, err, appErrors.ErrNotificationFailed)

	_, err = f.store.Get(ctx, models.OTPKey(models.OTPPurposeEmailChange, "user-1"))
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestOTPVerifyMismatchKeepsEntry(t *testing.T) {
	f := newOTPFixture("654321")
	ctx := context.Background()
	require.NoError(t, f.svc.Request(ctx, PasswordChangeFlow, OTPChallenge{Subject: "user-1", Recipient: "u@x.com"}))

	commits := 0
	commit := func(ctx context.Context, entry *models.OTPEntry) error {
		commits++
		return nil
	}

	err := f.svc.Verify(ctx, PasswordChangeFlow, "user-1", "000000", commit)
	require.ErrorIs(t, err, appErrors.ErrOTPInvalid)
	assert.Zero(t, commits)

	require.NoError(t, f.svc.Verify(ctx, PasswordChangeFlow, "user-1", "654321", commit))
	assert.Equal(t, 1, commits)

	err = f.svc.Verify(ctx, PasswordChangeFlow, "user-1", "654321", commit)
	require.ErrorIs(t, err, appErrors.ErrOTPExpired)
	assert.Equal(t, 1, commits)
}

func TestOTPVerifyAfterTTLExpires(t *testing.T) {
	f := newOTPFixture("654321")
	ctx := context.Background()
	require.NoError(t, f.svc.Request(ctx, ContactFlow, OTPChallenge{Subject: "a@x.com", Recipient: "a@x.com"}))

	f.now = f.now.Add(models.OTPTTL + time.Second)
	err := f.svc.Verify(ctx, ContactFlow, "a@x.com", "654321", nil)
	require.ErrorIs(t, err, appErrors.ErrOTPExpired)
}

func TestOTPVerifyExplicitExpiryCheck(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := repository.NewMemoryOTPStore()
	ctx := context.Background()
	key := models.OTPKey(models.OTPPurposeContact, "a@x.com")
	// the store still holds the entry but its recorded expiry has passed
	require.NoError(t, store.Put(ctx, key, models.OTPEntry{Code: "100000", ExpiresAt: now.Add(-time.Second)}, time.Hour))

	svc := NewOTPService(store, &recordingNotifier{}, nil, nil).WithClock(func() time.Time { return now })
	err := svc.Verify(ctx, ContactFlow, "a@x.com", "100000", nil)
	require.ErrorIs(t, err, appErrors.ErrOTPExpired)
	assert.Zero(t, store.Len())
}

func TestOTPVerifyCommitFailureKeepsEntry(t *testing.T) {
	f := newOTPFixture("333333")
	ctx := context.Background()
	require.NoError(t, f.svc.Request(ctx, ContactFlow, OTPChallenge{Subject: "a@x.com", Recipient: "a@x.com"}))

	boom := appErrors.Clone(appErrors.ErrNotificationFailed, "")
	err := f.svc.Verify(ctx, ContactFlow, "a@x.com", "333333", func(context.Context, *models.OTPEntry) error { return boom })
	require.ErrorIs(t, err, appErrors.ErrNotificationFailed)

	require.NoError(t, f.svc.Verify(ctx, ContactFlow, "a@x.com", "333333", nil))
}

func TestRandomCodeStaysInRange(t *testing.T) {
	for _, flow := range []OTPFlow{ContactFlow, EmailChangeFlow, PasswordChangeFlow} {
		for i := 0; i < 200; i++ {
			code, err := randomCode(flow.Min, flow.Max)
			require.NoError(t, err)
			require.Len(t, code, 6)
			n, err := strconv.Atoi(code)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, flow.Min)
			assert.LessOrEqual(t, n, flow.Max)
		}
	}
	_, err := randomCode(5, 1)
	require.Error(t, err)
}
