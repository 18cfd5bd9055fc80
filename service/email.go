package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"ledger/config"
	"ledger/models"
	"ledger/period"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务，发送预算超支提醒和密码重置邮件
type EmailService struct {
	cfg     *config.EmailConfig
	baseURL string
	users   UserStore
	send    func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务，重置链接使用 server.base_url
func NewEmailService(cfg *config.Config, users UserStore) *EmailService {
	s := &EmailService{
		cfg:     &cfg.Email,
		baseURL: strings.TrimRight(cfg.Server.BaseURL, "/"),
		users:   users,
	}
	s.send = s.dialAndSend
	return s
}

// BudgetExceeded 实现 Notifier，向用户邮箱发送超支提醒
func (s *EmailService) BudgetExceeded(ctx context.Context, alert BudgetAlert) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 LEDGER_EMAIL_ENABLED=true")
	}
	user, err := s.users.GetUser(ctx, alert.UserID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}

	subject := "【记账本】预算超支提醒"
	body := s.generateBudgetAlertBody(html.EscapeString(user.FullName), alert)
	if err := s.sendEmail(user.Email, subject, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "已发送超支提醒", "user_id", alert.UserID, "month", alert.Month, "year", alert.Year)
	return nil
}

// generateBudgetAlertBody 生成超支提醒邮件内容
func (s *EmailService) generateBudgetAlertBody(name string, alert BudgetAlert) string {
	monthName, _ := period.MonthNameOf(alert.Month)
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #ef4444, #b91c1c); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
        td { padding: 10px; border-bottom: 1px solid #eee; }
        .over { color: #b91c1c; font-weight: bold; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 记账本</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <p>您 %s %d 的支出已超过预算：</p>
            <table>
                <tr><td>预算</td><td>%s</td></tr>
                <tr><td>已支出</td><td>%s</td></tr>
                <tr><td>剩余</td><td class="over">%s</td></tr>
            </table>
            <p>请合理安排接下来的消费。</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`, name, monthName, alert.Year, alert.Budget.String(), alert.Spent.String(), alert.Remaining.String())
}

// PasswordReset 实现 ResetMailer，发送包含重置链接的邮件
func (s *EmailService) PasswordReset(ctx context.Context, user *models.User, token string, expires time.Time) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 LEDGER_EMAIL_ENABLED=true")
	}
	link := s.baseURL + "/#/reset-password?token=" + url.QueryEscape(token)
	body := s.generateResetEmailBody(user.FullName, link, token, time.Until(expires))
	if err := s.sendEmail(user.Email, "【记账本】密码重置", body); err != nil {
		return err
	}
	return nil
}

// generateResetEmailBody 生成重置邮件内容
func (s *EmailService) generateResetEmailBody(name, link, token string, ttl time.Duration) string {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes <= 0 {
		minutes = int(resetTokenTTL / time.Minute)
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .btn { display: inline-block; background: #2563eb; color: white !important; text-decoration: none; padding: 14px 40px; border-radius: 8px; font-weight: 600; margin: 20px 0; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .token { word-break: break-all; font-family: 'Courier New', monospace; color: #1d4ed8; font-size: 13px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 记账本</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <p>我们收到了您的密码重置请求。请点击下方按钮重置您的密码：</p>
            <p style="text-align: center;">
                <a href="%s" class="btn">重置密码</a>
            </p>
            <p>或在客户端中输入以下重置令牌：</p>
            <p class="token">%s</p>
            <div class="warning">
                <p>⚠️ 令牌有效期为 <strong>%d 分钟</strong>，且只能使用一次。</p>
                <p>⚠️ 如果您没有请求重置密码，请忽略此邮件。</p>
            </div>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(name), html.EscapeString(link), token, minutes)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
