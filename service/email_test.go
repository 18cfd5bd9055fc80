package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/config"
	"ledger/models"
	"ledger/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testAlert(userID uint) BudgetAlert {
	return BudgetAlert{
		UserID:    userID,
		Month:     6,
		Year:      2025,
		Budget:    money.MustParse("100"),
		Spent:     money.MustParse("120.50"),
		Remaining: money.MustParse("-20.50"),
	}
}

func TestGenerateBudgetAlertBody(t *testing.T) {
	s := NewEmailService(&config.Config{}, nil)
	body := s.generateBudgetAlertBody("张三", testAlert(1))
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "June 2025")
	assert.Contains(t, body, "100.00")
	assert.Contains(t, body, "120.50")
	assert.Contains(t, body, "-20.50")
	assert.Contains(t, body, "width: 100%;")
}

func TestEmailService_BudgetExceeded(t *testing.T) {
	store := newTestStore(t)
	user := &models.User{FullName: "李四", Email: "lisi@example.com", Password: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	s := NewEmailService(&config.Config{Email: config.EmailConfig{Enabled: true, Username: "noreply@example.com", From: "记账本"}}, store)
	var sent *gomail.Message
	s.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	require.NoError(t, s.BudgetExceeded(context.Background(), testAlert(user.ID)))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"lisi@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"【记账本】预算超支提醒"}, sent.GetHeader("Subject"))

	s.send = func(*gomail.Message) error { return errors.New("smtp down") }
	assert.Error(t, s.BudgetExceeded(context.Background(), testAlert(user.ID)))
}

func TestEmailService_Disabled(t *testing.T) {
	s := NewEmailService(&config.Config{}, nil)
	assert.Error(t, s.BudgetExceeded(context.Background(), testAlert(1)))
	assert.Error(t, s.PasswordReset(context.Background(), &models.User{Email: "a@example.com"}, "tok", time.Now().Add(time.Hour)))
}

func TestEmailService_PasswordReset(t *testing.T) {
	s := NewEmailService(&config.Config{
		Server: config.ServerConfig{BaseURL: "https://ledger.example.com/"},
		Email:  config.EmailConfig{Enabled: true, Username: "noreply@example.com", From: "记账本"},
	}, nil)
	var sent *gomail.Message
	s.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	user := &models.User{FullName: "<b>王五</b>", Email: "wangwu@example.com"}
	require.NoError(t, s.PasswordReset(context.Background(), user, "abc123", time.Now().Add(30*time.Minute)))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"wangwu@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"【记账本】密码重置"}, sent.GetHeader("Subject"))

	body := s.generateResetEmailBody(user.FullName, "https://ledger.example.com/#/reset-password?token=abc123", "abc123", 30*time.Minute)
	assert.Contains(t, body, "https://ledger.example.com/#/reset-password?token=abc123")
	assert.Contains(t, body, "&lt;b&gt;王五&lt;/b&gt;")
	assert.Contains(t, body, "30 分钟")
}
