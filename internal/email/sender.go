package email

import (
	"bytes"
	"context"
	"errors"
	"factory-server/config"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"time"
)

var ErrNotConfigured = errors.New("email: SMTP не настроен")

// SendFunc : сигнатура smtp.SendMail
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	cfg  *config.SMTPConfig
	send SendFunc
}

func NewSender(cfg *config.SMTPConfig) *Sender {
	return NewSenderWithTransport(cfg, smtp.SendMail)
}

func NewSenderWithTransport(cfg *config.SMTPConfig, send SendFunc) *Sender {
	return &Sender{cfg: cfg, send: send}
}

// SendRecoveryCode : письмо с кодом сброса пароля. Отправка прерывается отменой ctx
func (s *Sender) SendRecoveryCode(ctx context.Context, to, code string, ttl time.Duration) error {
	if s.cfg.Host == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return ErrNotConfigured
	}
	from := s.cfg.FromEmail
	if from == "" {
		from = s.cfg.Username
	}

	body := fmt.Sprintf("Код для сброса пароля: %s\n\nКод действителен %d мин. Если вы не запрашивали сброс, проигнорируйте письмо.",
		code, int(ttl.Minutes()))

	var buf bytes.Buffer
	buf.WriteString("From: " + mime.QEncoding.Encode("utf-8", s.cfg.FromName) + " <" + from + ">\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", "Восстановление пароля") + "\r\n")
	buf.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	done := make(chan error, 1)
	go func() { done <- s.send(addr, auth, from, []string{to}, buf.Bytes()) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: ошибка отправки: %w", err)
		}
		return nil
	}
}
