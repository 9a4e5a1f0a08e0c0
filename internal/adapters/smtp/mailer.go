// Package smtp delivers notification messages over SMTP with STARTTLS. The
// transport is an opaque "deliver -> success/failure" collaborator; the
// dispatcher converts every failure into a NotificationOutcome instead of
// propagating it.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

type Config struct {
	Host     string // e.g. smtp.gmail.com
	Port     int    // e.g. 587
	Sender   string
	Password string
	DemoMode bool // log instead of sending
}

type Mailer struct {
	cfg Config
}

func New(cfg Config) (*Mailer, error) {
	if cfg.DemoMode {
		return &Mailer{cfg: cfg}, nil
	}
	if cfg.Host == "" || cfg.Sender == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: smtp host, sender and password are required", domain.ErrConfig)
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}, nil
}

// Send delivers one plain-text message. The context bounds the whole
// exchange; expiry surfaces as a transient failure, never a hang.
func (m *Mailer) Send(ctx context.Context, subject, body, recipient string) error {
	if m.cfg.DemoMode {
		log.Info().Str("to", recipient).Str("subject", subject).Msg("demo mode: email not sent")
		return nil
	}

	cl, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.Mail(m.cfg.Sender); err != nil {
		return fmt.Errorf("%w: MAIL FROM: %v", domain.ErrTransientExternal, err)
	}
	if err := cl.Rcpt(recipient); err != nil {
		return fmt.Errorf("%w: RCPT TO: %v", domain.ErrTransientExternal, err)
	}
	w, err := cl.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA: %v", domain.ErrTransientExternal, err)
	}
	if _, err := w.Write([]byte(formatMessage(m.cfg.Sender, recipient, subject, body))); err != nil {
		w.Close()
		return fmt.Errorf("%w: write body: %v", domain.ErrTransientExternal, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close body: %v", domain.ErrTransientExternal, err)
	}
	return cl.Quit()
}

// Ping verifies connectivity and credentials without sending anything.
func (m *Mailer) Ping(ctx context.Context) error {
	if m.cfg.DemoMode {
		return nil
	}
	cl, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer cl.Close()
	return cl.Quit()
}

// connect dials, upgrades to TLS and authenticates.
func (m *Mailer) connect(ctx context.Context) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrTransientExternal, addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	cl, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: smtp handshake: %v", domain.ErrTransientExternal, err)
	}
	if err := cl.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
		cl.Close()
		return nil, fmt.Errorf("%w: starttls: %v", domain.ErrTransientExternal, err)
	}
	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)
	if err := cl.Auth(auth); err != nil {
		cl.Close()
		return nil, fmt.Errorf("%w: auth: %v", domain.ErrTransientExternal, err)
	}
	return cl, nil
}

func formatMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}
