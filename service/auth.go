package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"ledger/apperr"
	"ledger/blob"
	"ledger/models"

	"golang.org/x/crypto/bcrypt"
)

// profileFolder 头像的存储目录
const profileFolder = "profile-pictures"

// minPasswordLen 密码最小长度
const minPasswordLen = 6

// resetTokenTTL 重置令牌有效期
const resetTokenTTL = 30 * time.Minute

// UserStore 用户存储
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uint) error

	CreatePasswordReset(ctx context.Context, p *models.PasswordReset) error
	FindPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	ResetPassword(ctx context.Context, userID uint, hashedPassword string) error
}

// ResetMailer 把重置令牌发送到用户邮箱
type ResetMailer interface {
	PasswordReset(ctx context.Context, user *models.User, token string, expires time.Time) error
}

// RegisterInput 注册参数，Picture 为可选头像
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Picture  *blob.File
}

// AuthService 用户注册、登录与资料
type AuthService struct {
	users    UserStore
	uploader blob.Uploader
	mailer   ResetMailer
	now      func() time.Time
}

// AuthOption AuthService 的可选配置
type AuthOption func(*AuthService)

// WithResetMailer 启用邮件找回密码
func WithResetMailer(m ResetMailer) AuthOption {
	return func(s *AuthService) {
		s.mailer = m
	}
}

// WithAuthClock 替换时钟，用于测试
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService 创建用户服务
func NewAuthService(users UserStore, uploader blob.Uploader, opts ...AuthOption) *AuthService {
	s := &AuthService{users: users, uploader: uploader, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register 注册用户，邮箱已存在返回 apperr.ErrConflict
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: 姓名不能为空", apperr.ErrInvalidInput)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: 密码至少 %d 位", apperr.ErrInvalidInput, minPasswordLen)
	}
	if in.Picture != nil {
		if err := in.Picture.Validate(); err != nil {
			return nil, err
		}
		// 上传前先查重，避免留下无主的图片
		if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
			return nil, fmt.Errorf("%w: 邮箱已注册", apperr.ErrConflict)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &models.User{FullName: name, Email: email, Password: string(hashed)}
	if in.Picture != nil {
		url, err := s.upload(ctx, *in.Picture)
		if err != nil {
			return nil, err
		}
		user.ProfilePicture = &url
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "用户注册", "user_id", user.ID)
	return user, nil
}

// Login 校验邮箱和密码，失败统一返回 apperr.ErrUnauthorized
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%w: 邮箱或密码错误", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: 邮箱或密码错误", apperr.ErrUnauthorized)
	}
	return user, nil
}

// Profile 当前用户资料
func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetUser(ctx, userID)
}

// ChangePassword 校验旧密码后修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: 密码至少 %d 位", apperr.ErrInvalidInput, minPasswordLen)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: 原密码错误", apperr.ErrUnauthorized)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}
	user.Password = string(hashed)
	return s.users.SaveUser(ctx, user)
}

// UpdateProfilePicture 上传并更新头像
func (s *AuthService) UpdateProfilePicture(ctx context.Context, userID uint, f blob.File) (*models.User, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, f)
	if err != nil {
		return nil, err
	}
	user.ProfilePicture = &url
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount 删除用户及其全部记录
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "用户注销", "user_id", userID)
	return nil
}

// CheckEmail 邮箱已注册返回 nil，未注册返回 apperr.ErrNotFound
func (s *AuthService) CheckEmail(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := s.users.FindUserByEmail(ctx, email); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: 邮箱未注册", apperr.ErrNotFound)
		}
		return err
	}
	return nil
}

// VerifyPassword 校验邮箱对应的密码，不签发 token
func (s *AuthService) VerifyPassword(ctx context.Context, email, password string) error {
	if err := s.CheckEmail(ctx, email); err != nil {
		return err
	}
	if _, err := s.Login(ctx, email, password); err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return fmt.Errorf("%w: 密码错误", apperr.ErrUnauthorized)
		}
		return err
	}
	return nil
}

// RequestPasswordReset 生成重置令牌并发送邮件。邮箱未注册时同样返回 nil
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if s.mailer == nil {
		return errors.New("邮件服务未启用，无法找回密码")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		slog.InfoContext(ctx, "找回密码的邮箱未注册")
		return nil
	}
	if err != nil {
		return err
	}

	token, hash, err := models.NewResetToken()
	if err != nil {
		return fmt.Errorf("生成令牌失败: %w", err)
	}
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(resetTokenTTL).UTC(),
	}
	if err := s.users.CreatePasswordReset(ctx, reset); err != nil {
		return err
	}
	if err := s.mailer.PasswordReset(ctx, user, token, reset.ExpiresAt); err != nil {
		return fmt.Errorf("发送重置邮件失败: %w", err)
	}
	slog.InfoContext(ctx, "已发送重置邮件", "user_id", user.ID)
	return nil
}

// ResetPassword 用邮件中的令牌设置新密码，令牌只能使用一次
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: 密码至少 %d 位", apperr.ErrInvalidInput, minPasswordLen)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: 无效的令牌", apperr.ErrInvalidInput)
	}
	reset, err := s.users.FindPasswordReset(ctx, models.HashResetToken(token))
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: 无效的令牌", apperr.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	if !reset.IsValid(s.now()) {
		return fmt.Errorf("%w: 令牌已过期或已使用", apperr.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}
	if err := s.users.ResetPassword(ctx, reset.UserID, string(hashed)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "密码已重置", "user_id", reset.UserID)
	return nil
}

// upload 上传头像，错误统一包装为 apperr.ErrUploadFailed
func (s *AuthService) upload(ctx context.Context, f blob.File) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: 未配置图片存储", apperr.ErrUploadFailed)
	}
	url, err := s.uploader.Upload(ctx, f, profileFolder)
	if err != nil {
		if errors.Is(err, apperr.ErrUploadFailed) || errors.Is(err, apperr.ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrUploadFailed, err)
	}
	return url, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return "", fmt.Errorf("%w: 邮箱格式错误", apperr.ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}
