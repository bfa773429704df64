package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// EmailConfig holds SMTP delivery settings. The server is contacted over
// implicit TLS (smtps), so Addr is typically host:465.
type EmailConfig struct {
	Addr     string
	From     string
	To       []string
	Username string
	Password string

	// MaxElapsed bounds the total time spent retrying one send.
	// Zero means DefaultMaxElapsed.
	MaxElapsed time.Duration
}

// DefaultMaxElapsed is the default retry budget for one send.
const DefaultMaxElapsed = 30 * time.Second

// Email sends digests over SMTP. Transient connection failures are retried
// with exponential backoff; authentication failures are not.
type Email struct {
	cfg      EmailConfig
	logger   zerolog.Logger
	hostname string
}

// NewEmail creates an SMTP channel. The From header is decorated with the
// local hostname so an operator watching several machines can tell the
// senders apart.
func NewEmail(cfg EmailConfig, logger zerolog.Logger) *Email {
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = DefaultMaxElapsed
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "babysitter"
	}
	return &Email{
		cfg:      cfg,
		logger:   logger.With().Str("component", "email").Logger(),
		hostname: hostname,
	}
}

// Send implements Channel.
func (e *Email) Send(ctx context.Context, subject, body string) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = e.cfg.MaxElapsed

	operation := func() error {
		return e.sendOnce(subject, body)
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	e.logger.Info().Str("subject", subject).Msg("email sent")
	return nil
}

func (e *Email) sendOnce(subject, body string) error {
	host, _, err := net.SplitHostPort(e.cfg.Addr)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("smtp address %q: %w", e.cfg.Addr, err))
	}

	conn, err := tls.Dial("tcp", e.cfg.Addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("dial %s: %w", e.cfg.Addr, err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if e.cfg.Username != "" {
		auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, host)
		if err := client.Auth(auth); err != nil {
			// Bad credentials will not get better on retry.
			return backoff.Permanent(fmt.Errorf("smtp auth: %w", err))
		}
	}

	if err := client.Mail(e.cfg.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	for _, rcpt := range e.cfg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(e.message(subject, body))); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}

func (e *Email) message(subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", e.hostname, e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	fmt.Fprintf(&b, "\nUnixtime = %d\n", time.Now().Unix())
	return b.String()
}
