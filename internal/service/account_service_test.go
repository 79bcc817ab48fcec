package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sciclub-api/internal/dto"
	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

type mockAccountRepo struct {
	users map[string]*models.User
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *mockAccountRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	for id, u := range m.users {
		if id != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) UpdateEmail(ctx context.Context, id, email string, verifiedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Email = email
	u.EmailVerifiedAt = &verifiedAt
	return nil
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockAccountRepo) UpdateName(ctx context.Context, id, name string, updatedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Name = name
	return nil
}

func newAccountFixture(t *testing.T, code string) (*AccountService, *mockAccountRepo, *otpFixture) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpass123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAccountRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Admin", Email: "admin@x.com", PasswordHash: string(hash)},
		"u2": {ID: "u2", Name: "Other", Email: "taken@x.com", PasswordHash: string(hash)},
	}}
	otp := newOTPFixture(code)
	return NewAccountService(repo, otp.svc, nil, nil), repo, otp
}

func TestEmailChangeScenario(t *testing.T) {
	svc, repo, otp := newAccountFixture(t, "246810")
	ctx := context.Background()

	ack, err := svc.RequestEmailChange(ctx, "u1", dto.EmailChangeRequest{Email: "New@X.com"})
	require.NoError(t, err)
	assert.Equal(t, 600, ack.ExpiresIn)

	require.Len(t, otp.notifier.sent, 1)
	assert.Equal(t, "admin@x.com", otp.notifier.sent[0].To, "code goes to the current address")
	assert.Equal(t, "new@x.com", otp.notifier.sent[0].Data["new_email"])

	_, err = svc.VerifyEmailChange(ctx, "u1", dto.VerifyOTPRequest{OTP: "999999"})
	require.ErrorIs(t, err, appErrors.ErrOTPInvalid)
	assert.Equal(t, "admin@x.com", repo.users["u1"].Email)

	user, err := svc.VerifyEmailChange(ctx, "u1", dto.VerifyOTPRequest{OTP: "246810"})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", user.Email)
	require.NotNil(t, repo.users["u1"].EmailVerifiedAt)
	assert.Zero(t, otp.store.Len())
}

func TestEmailChangeRejectsTakenEmail(t *testing.T) {
	svc, _, otp := newAccountFixture(t, "246810")

	_, err := svc.RequestEmailChange(context.Background(), "u1", dto.EmailChangeRequest{Email: "taken@x.com"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Fields, "email")
	assert.Empty(t, otp.notifier.sent)
}

func TestEmailChangeRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newAccountFixture(t, "246810")

	_, err := svc.RequestEmailChange(context.Background(), "u1", dto.EmailChangeRequest{Email: "not-an-email"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "must be a valid email address", appErrors.FromError(err).Fields["email"])
}

func TestPasswordChangeFlow(t *testing.T) {
	svc, repo, _ := newAccountFixture(t, "135791")
	ctx := context.Background()

	_, err := svc.RequestPasswordChange(ctx, "u1", dto.PasswordChangeRequest{
		CurrentPassword:      "wrongpass1",
		Password:             "newpass123",
		PasswordConfirmation: "newpass123",
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Fields, "current_password")

	_, err = svc.RequestPasswordChange(ctx, "u1", dto.PasswordChangeRequest{
		CurrentPassword:      "oldpass123",
		Password:             "onlyletters",
		PasswordConfirmation: "onlyletters",
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Fields, "password")

	_, err = svc.RequestPasswordChange(ctx, "u1", dto.PasswordChangeRequest{
		CurrentPassword:      "oldpass123",
		Password:             "newpass123",
		PasswordConfirmation: "newpass124",
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Fields, "password_confirmation")

	_, err = svc.RequestPasswordChange(ctx, "u1", dto.PasswordChangeRequest{
		CurrentPassword:      "oldpass123",
		Password:             "newpass123",
		PasswordConfirmation: "newpass123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.VerifyPasswordChange(ctx, "u1", dto.VerifyOTPRequest{OTP: "135791"}))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u1"].PasswordHash), []byte("newpass123")))

	err = svc.VerifyPasswordChange(ctx, "u1", dto.VerifyOTPRequest{OTP: "135791"})
	require.ErrorIs(t, err, appErrors.ErrOTPExpired)
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	svc, _, _ := newAccountFixture(t, "135791")

	err := svc.VerifyPasswordChange(context.Background(), "u1", dto.VerifyOTPRequest{OTP: "12ab"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUpdateName(t *testing.T) {
	svc, _, _ := newAccountFixture(t, "135791")

	user, err := svc.UpdateName(context.Background(), "u1", dto.UpdateNameRequest{Name: "  Club Admin "})
	require.NoError(t, err)
	assert.Equal(t, "Club Admin", user.Name)

	_, err = svc.UpdateName(context.Background(), "ghost", dto.UpdateNameRequest{Name: "X"})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}
