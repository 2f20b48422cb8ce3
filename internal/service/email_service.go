package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"ankahee-backend/internal/util"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Mailer 发送一封邮件
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPConfig SMTP 连接参数
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer 基于 gopkg.in/mail.v2 的 Mailer
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	util.Logger.Info("开始发送邮件", zap.String("to", to), zap.String("subject", subject))

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.Username)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	d.Timeout = 20 * time.Second
	d.SSL = m.cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: m.cfg.Host}

	if err := d.DialAndSend(msg); err != nil {
		util.Logger.Error("发送邮件失败", zap.Error(err))
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}

// EmailService 注册确认邮件
type EmailService struct {
	mailer    Mailer
	jwtSecret []byte
	linkBase  string
	now       func() time.Time
}

// NewEmailService mailer 为 nil 时不发送邮件；linkBase 为验证链接的 API 前缀
func NewEmailService(mailer Mailer, jwtSecret, linkBase string) *EmailService {
	return &EmailService{mailer: mailer, jwtSecret: []byte(jwtSecret), linkBase: linkBase, now: time.Now}
}

func (s *EmailService) SendConfirmationEmail(email string) error {
	if s.mailer == nil {
		return nil
	}
	token, err := s.generateEmailVerificationToken(email)
	if err != nil {
		util.Logger.Error("生成验证令牌失败", zap.Error(err))
		return fmt.Errorf("生成验证令牌失败: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.linkBase, token)
	body := fmt.Sprintf(`<p>Welcome to Ankahee.</p>
<p>Confirm your email to start sharing anonymously:</p>
<p><a href="%s">%s</a></p>
<p>This link expires in 24 hours. Nobody else will ever see this address.</p>`, link, link)

	s.sendEmailAsync(email, "Confirm your Ankahee account", body)
	return nil
}

func (s *EmailService) sendEmailAsync(to, subject, body string) {
	go func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err))
		}
	}()
}

func (s *EmailService) generateEmailVerificationToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"type":  "email_verification",
		"exp":   s.now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// VerifyEmailToken 返回令牌中的邮箱
func (s *EmailService) VerifyEmailToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		util.Logger.Warn("解析令牌失败", zap.Error(err))
		return "", fmt.Errorf("无效的令牌: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("无效的令牌")
	}
	if typ, _ := claims["type"].(string); typ != "email_verification" {
		return "", fmt.Errorf("无效的令牌类型")
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("无效的令牌: 缺少邮箱信息")
	}
	return email, nil
}
