package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/apperr"
	"ledger/blob"
	"ledger/models"
	"ledger/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, &fakeUploader{})
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{FullName: " Ann Lee ", Email: "Ann@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", user.FullName)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = auth.Register(ctx, RegisterInput{FullName: "Other", Email: "ann@example.com", Password: "secret2"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	got, err := auth.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = auth.Login(ctx, "ann@example.com", "wrong")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = auth.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	profile, err := auth.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", profile.Email)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	auth := NewAuthService(newTestStore(t), nil)
	ctx := context.Background()

	cases := []RegisterInput{
		{FullName: "", Email: "a@example.com", Password: "secret1"},
		{FullName: "A", Email: "not-an-email", Password: "secret1"},
		{FullName: "A", Email: "Name <a@example.com>", Password: "secret1"},
		{FullName: "A", Email: "a@example.com", Password: "123"},
	}
	for _, in := range cases {
		_, err := auth.Register(ctx, in)
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "%+v", in)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	auth := NewAuthService(newTestStore(t), nil)
	ctx := context.Background()
	user, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.True(t, errors.Is(auth.ChangePassword(ctx, user.ID, "bad-old", "secret2"), apperr.ErrUnauthorized))
	assert.True(t, errors.Is(auth.ChangePassword(ctx, user.ID, "secret1", "x"), apperr.ErrInvalidInput))
	require.NoError(t, auth.ChangePassword(ctx, user.ID, "secret1", "secret2"))

	_, err = auth.Login(ctx, "a@example.com", "secret2")
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfilePicture(t *testing.T) {
	uploader := &fakeUploader{}
	auth := NewAuthService(newTestStore(t), uploader)
	ctx := context.Background()
	user, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := auth.UpdateProfilePicture(ctx, user.ID, blob.File{Data: pngHeader})
	require.NoError(t, err)
	require.NotNil(t, updated.ProfilePicture)
	assert.Equal(t, "https://cdn.test/profile-pictures/receipt.png", *updated.ProfilePicture)

	_, err = auth.UpdateProfilePicture(ctx, user.ID, blob.File{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Equal(t, 1, uploader.calls)
}

func TestAuthService_DeleteAccountCascades(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, nil)
	l := NewLedger(store, nil)
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = l.AddExpense(ctx, user.ID, ExpenseInput{Name: "x", Price: money.MustParse("1"), Date: "2025-01-01"}, nil)
	require.NoError(t, err)
	_, err = l.UpsertSaving(ctx, user.ID, SavingInput{Month: "January", Year: 2025, Amount: money.MustParse("5")})
	require.NoError(t, err)

	require.NoError(t, auth.DeleteAccount(ctx, user.ID))

	expenses, err := store.FindExpenses(ctx, models.ExpenseFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Empty(t, expenses)
	savings, err := l.ListSavings(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, savings)

	assert.True(t, errors.Is(auth.DeleteAccount(ctx, user.ID), apperr.ErrNotFound))
}

type fakeMailer struct {
	user    *models.User
	token   string
	expires time.Time
	err     error
}

func (m *fakeMailer) PasswordReset(_ context.Context, user *models.User, token string, expires time.Time) error {
	m.user, m.token, m.expires = user, token, expires
	return m.err
}

func TestAuthService_RegisterWithPicture(t *testing.T) {
	uploader := &fakeUploader{}
	auth := NewAuthService(newTestStore(t), uploader)
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1", Picture: &blob.File{Data: pngHeader}})
	require.NoError(t, err)
	require.NotNil(t, user.ProfilePicture)
	assert.Equal(t, "https://cdn.test/profile-pictures/receipt.png", *user.ProfilePicture)

	// 邮箱重复时不上传
	_, err = auth.Register(ctx, RegisterInput{FullName: "B", Email: "a@example.com", Password: "secret1", Picture: &blob.File{Data: pngHeader}})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	_, err = auth.Register(ctx, RegisterInput{FullName: "C", Email: "c@example.com", Password: "secret1", Picture: &blob.File{Data: []byte("<script>")}})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Equal(t, 1, uploader.calls)

	uploader.err = errors.New("bucket unavailable")
	_, err = auth.Register(ctx, RegisterInput{FullName: "D", Email: "d@example.com", Password: "secret1", Picture: &blob.File{Data: pngHeader}})
	assert.True(t, errors.Is(err, apperr.ErrUploadFailed))
	assert.True(t, errors.Is(auth.CheckEmail(ctx, "d@example.com"), apperr.ErrNotFound))
}

func TestAuthService_CheckEmailAndVerifyPassword(t *testing.T) {
	auth := NewAuthService(newTestStore(t), nil)
	ctx := context.Background()
	_, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.NoError(t, auth.CheckEmail(ctx, "A@example.com"))
	assert.True(t, errors.Is(auth.CheckEmail(ctx, "b@example.com"), apperr.ErrNotFound))
	assert.True(t, errors.Is(auth.CheckEmail(ctx, "not-an-email"), apperr.ErrInvalidInput))

	assert.NoError(t, auth.VerifyPassword(ctx, "a@example.com", "secret1"))
	assert.True(t, errors.Is(auth.VerifyPassword(ctx, "a@example.com", "wrong"), apperr.ErrUnauthorized))
	assert.True(t, errors.Is(auth.VerifyPassword(ctx, "b@example.com", "secret1"), apperr.ErrNotFound))
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	store := newTestStore(t)
	mailer := &fakeMailer{}
	now := fixedNow
	auth := NewAuthService(store, nil, WithResetMailer(mailer), WithAuthClock(func() time.Time { return now }))
	ctx := context.Background()
	user, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	// 未注册的邮箱不发邮件，也不报错
	require.NoError(t, auth.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Nil(t, mailer.user)

	require.NoError(t, auth.RequestPasswordReset(ctx, "A@Example.com"))
	require.NotNil(t, mailer.user)
	assert.Equal(t, user.ID, mailer.user.ID)
	assert.Len(t, mailer.token, 64)
	assert.True(t, mailer.expires.Equal(fixedNow.Add(30*time.Minute)))
	token := mailer.token

	// 库中只有哈希
	reset, err := store.FindPasswordReset(ctx, models.HashResetToken(token))
	require.NoError(t, err)
	assert.NotEqual(t, token, reset.TokenHash)

	assert.True(t, errors.Is(auth.ResetPassword(ctx, "bogus", "newsecret"), apperr.ErrInvalidInput))
	assert.True(t, errors.Is(auth.ResetPassword(ctx, token, "x"), apperr.ErrInvalidInput))

	require.NoError(t, auth.ResetPassword(ctx, token, "newsecret"))
	_, err = auth.Login(ctx, "a@example.com", "newsecret")
	require.NoError(t, err)
	_, err = auth.Login(ctx, "a@example.com", "secret1")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	// 令牌只能使用一次
	assert.True(t, errors.Is(auth.ResetPassword(ctx, token, "another1"), apperr.ErrInvalidInput))

	// 过期令牌
	require.NoError(t, auth.RequestPasswordReset(ctx, "a@example.com"))
	now = fixedNow.Add(31 * time.Minute)
	assert.True(t, errors.Is(auth.ResetPassword(ctx, mailer.token, "another1"), apperr.ErrInvalidInput))
}

func TestAuthService_PasswordResetMailFailure(t *testing.T) {
	auth := NewAuthService(newTestStore(t), nil)
	assert.Error(t, auth.RequestPasswordReset(context.Background(), "a@example.com"))

	mailer := &fakeMailer{err: errors.New("smtp down")}
	auth = NewAuthService(newTestStore(t), nil, WithResetMailer(mailer))
	ctx := context.Background()
	_, err := auth.Register(ctx, RegisterInput{FullName: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Error(t, auth.RequestPasswordReset(ctx, "a@example.com"))
}
