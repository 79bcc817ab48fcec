package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/internal/repository"
)

func testCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func TestPurgeOTPForgetsSingleEntry(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := repository.NewMemoryOTPStore().WithClock(func() time.Time { return now })
	key := models.OTPKey(models.OTPPurposeContact, "v@x.com")
	require.NoError(t, store.Put(context.Background(), key, models.OTPEntry{Code: "123456", ExpiresAt: now.Add(models.OTPTTL)}, models.OTPTTL))

	cmd, out := testCmd()
	require.NoError(t, purgeOTP(cmd, store, "contact", " V@X.com ", false, now))
	assert.Equal(t, 0, store.Len())
	assert.Contains(t, out.String(), "forgot contact code for v@x.com")
}

func TestPurgeOTPRejectsUnknownPurpose(t *testing.T) {
	cmd, _ := testCmd()
	err := purgeOTP(cmd, repository.NewMemoryOTPStore(), "login", "x", false, time.Now())
	require.ErrorContains(t, err, "unknown purpose")
}

func TestPurgeOTPExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := repository.NewMemoryOTPStore().WithClock(func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "otp:contact:old@x.com", models.OTPEntry{Code: "1", ExpiresAt: now.Add(time.Minute)}, time.Minute))
	require.NoError(t, store.Put(ctx, "otp:contact:new@x.com", models.OTPEntry{Code: "2", ExpiresAt: now.Add(models.OTPTTL)}, models.OTPTTL))

	cmd, out := testCmd()
	require.NoError(t, purgeOTP(cmd, store, "", "", true, now.Add(5*time.Minute)))
	assert.Equal(t, 1, store.Len())
	assert.Contains(t, out.String(), "removed 1 expired entries")
}

func TestHashPasswordEnforcesLength(t *testing.T) {
	_, err := hashPassword("short")
	require.Error(t, err)

	hash, err := hashPassword("longenough1")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough1", hash)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "seed-admin", "create-advisor", "purge-otp"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
