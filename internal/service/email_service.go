package service

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shopfront/internal/config"
	"github.com/shopfront/internal/logger"
	"github.com/shopfront/internal/models"
)

// EmailService 邮件服务
type EmailService struct {
	cfg config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否启用邮件服务
func (s *EmailService) Enabled() bool {
	return s.cfg.Enabled
}

// SendOrderConfirmation 发送订单确认邮件
func (s *EmailService) SendOrderConfirmation(user *models.User, order *models.Order) error {
	subject := fmt.Sprintf("Order confirmation %s", order.OrderNo)

	var body strings.Builder
	name := strings.TrimSpace(user.FullName)
	if name == "" {
		name = user.Email
	}
	fmt.Fprintf(&body, "Hi %s,\r\n\r\n", name)
	fmt.Fprintf(&body, "Thanks for your order %s.\r\n\r\n", order.OrderNo)
	for _, item := range order.Items {
		fmt.Fprintf(&body, "  %s x%d @ %s\r\n", item.ProductName, item.Quantity, item.UnitPrice.String())
	}
	fmt.Fprintf(&body, "\r\nTotal: %s %s\r\n", strings.ToUpper(order.Currency), order.TotalAmount.String())
	fmt.Fprintf(&body, "Status: %s\r\n", order.Status)

	if err := s.Send(user.Email, subject, body.String()); err != nil {
		return err
	}
	logger.Infow("order_confirmation_email_sent",
		"order_id", order.ID,
		"order_no", order.OrderNo,
	)
	return nil
}

// Send 发送纯文本邮件
func (s *EmailService) Send(to, subject, body string) error {
	if !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if strings.TrimSpace(s.cfg.Host) == "" || s.cfg.Port <= 0 {
		return ErrEmailServiceNotConfigured
	}

	from := s.cfg.From
	fromHeader := from
	if strings.TrimSpace(s.cfg.FromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.cfg.FromName, from)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseTLS {
		return s.sendWithSTARTTLS(addr, auth, from, to, msg.String())
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String()))
}

func (s *EmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}
