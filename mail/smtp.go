package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/internal/logging"
)

// Config describes the SMTP relay and the message defaults.
type Config struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
	Product  string

	// VerificationTTL and PasswordResetTTL only drive the "expires in"
	// line of each message.
	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration

	// Timeout bounds a whole delivery when ctx has no earlier deadline.
	Timeout time.Duration
}

// DefaultConfig mirrors the common submission setup.
func DefaultConfig() Config {
	return Config{
		Host:             "smtp.gmail.com",
		Port:             587,
		From:             "noreply@quixhr.com",
		Product:          "QuixHR",
		VerificationTTL:  10 * time.Minute,
		PasswordResetTTL: 10 * time.Minute,
		Timeout:          15 * time.Second,
	}
}

var (
	ErrMissingHost   = errors.New("mail: smtp host is required")
	ErrMissingSender = errors.New("mail: sender address is required")
	errHeaderInject  = errors.New("mail: address contains a line break")
)

// SMTPMailer sends one message per connection. It is safe for concurrent use.
type SMTPMailer struct {
	cfg  Config
	log  logging.Logger
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
	now  func() time.Time
}

var _ hireAuth.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg Config, logger *slog.Logger) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, ErrMissingHost
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, ErrMissingSender
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Product == "" {
		cfg.Product = "QuixHR"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	var log logging.Logger = logging.NewNop()
	if logger != nil {
		log = logging.NewSlogLogger(logger).With("component", "mail")
	}

	m := &SMTPMailer{cfg: cfg, log: log, now: time.Now}
	m.dial = m.dialContext
	return m, nil
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	return m.send(ctx, email, "Email Verification - "+m.cfg.Product, "verification", bodyData{
		Product: m.cfg.Product,
		Code:    code,
		Minutes: minutes(m.cfg.VerificationTTL),
	})
}

func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	return m.send(ctx, email, "Password Reset - "+m.cfg.Product, "password_reset", bodyData{
		Product: m.cfg.Product,
		Code:    code,
		Minutes: minutes(m.cfg.PasswordResetTTL),
	})
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, tmpl string, data bodyData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(m.cfg.From, "\r\n") {
		return errHeaderInject
	}

	body, err := render(tmpl, data)
	if err != nil {
		return fmt.Errorf("mail: render %s: %w", tmpl, err)
	}
	msg := m.buildMessage(to, subject, body)

	if err := m.deliver(ctx, to, msg); err != nil {
		m.log.Error(ctx, "mail delivery failed", "template", tmpl, "email", to, "error", err)
		return err
	}
	m.log.Info(ctx, "mail sent", "template", tmpl, "email", to)
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.cfg.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + m.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(htmlBody, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (m *SMTPMailer) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if m.cfg.Secure {
		d := &tls.Dialer{Config: &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}}
		return d.DialContext(ctx, network, addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, addr)
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer c.Close()

	if !m.cfg.Secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}

	if m.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("mail: auth: %w", err)
			}
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("mail: MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("mail: RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("mail: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: end DATA: %w", err)
	}
	return c.Quit()
}
