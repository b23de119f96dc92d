package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/wneessen/go-mail"

	"github.com/terra-clan/cyber-assessment/internal/config"
)

// ErrTransportNotConfigured is returned when no SMTP host is set
var ErrTransportNotConfigured = errors.New("smtp transport not configured")

// Message is a single HTML email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport dispatches a message to its recipient
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport sends mail through an SMTP relay
type SMTPTransport struct {
	cfg   config.SMTPConfig
	limit time.Duration
}

// NewSMTPTransport creates a transport bounded by the given per-send timeout
func NewSMTPTransport(cfg config.SMTPConfig, limit time.Duration) *SMTPTransport {
	if limit <= 0 {
		limit = 30 * time.Second
	}

	return &SMTPTransport{
		cfg:   cfg,
		limit: limit,
	}
}

// Send delivers msg or returns the transport error
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if t.cfg.Host == "" {
		return ErrTransportNotConfigured
	}

	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", t.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := t.client()
	if err != nil {
		return err
	}

	bounded := timeout.New[struct{}](timeout.Config{DefaultTimeout: t.limit})
	_, err = bounded.Execute(ctx, t.limit, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.DialAndSendWithContext(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("failed to send mail via %s:%d: %w", t.cfg.Host, t.cfg.Port, err)
	}
	return nil
}

// Type returns the dependency kind
func (t *SMTPTransport) Type() string {
	return "smtp"
}

// HealthCheck dials the relay and hangs up
func (t *SMTPTransport) HealthCheck(ctx context.Context) error {
	if t.cfg.Host == "" {
		return ErrTransportNotConfigured
	}

	client, err := t.client()
	if err != nil {
		return err
	}

	bounded := timeout.New[struct{}](timeout.Config{DefaultTimeout: t.limit})
	_, err = bounded.Execute(ctx, t.limit, func(ctx context.Context) (struct{}, error) {
		if err := client.DialWithContext(ctx); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, client.Close()
	})
	return err
}

func (t *SMTPTransport) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
	}

	if t.cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}
