package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// implicitTLSPort is the SMTPS submission port; every other port starts in plain text
const implicitTLSPort = 465

// ErrNoSTARTTLS is returned when TLS is required but the server does not offer STARTTLS
var ErrNoSTARTTLS = errors.New("SMTP server does not support STARTTLS")

// Transport delivers a composed message
type Transport interface {
	Send(ctx context.Context, config *Config, to []string, data []byte) error
}

// SMTPTransport talks SMTP with net/smtp. Port 465 uses implicit TLS. Other
// ports upgrade with STARTTLS when UseTLS is set.
type SMTPTransport struct {
	Timeout time.Duration
}

// NewSMTPTransport returns a transport that gives up on a session after 30s
func NewSMTPTransport() *SMTPTransport {
	return &SMTPTransport{Timeout: 30 * time.Second}
}

func (t *SMTPTransport) Send(ctx context.Context, config *Config, to []string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	conn, err := t.dial(ctx, config)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP greeting failed: %w", err)
	}
	defer client.Close()

	if config.UseTLS && config.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return ErrNoSTARTTLS
		}
		if err := client.StartTLS(&tls.Config{ServerName: config.Host}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if config.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", config.Username, config.Password, config.Host)); err != nil {
				return fmt.Errorf("SMTP authentication failed: %w", err)
			}
		}
	}

	return deliver(client, config.From, to, data)
}

func (t *SMTPTransport) dial(ctx context.Context, config *Config) (net.Conn, error) {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	var (
		conn net.Conn
		err  error
	)
	if config.UseTLS && config.Port == implicitTLSPort {
		d := &tls.Dialer{Config: &tls.Config{ServerName: config.Host}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

func deliver(client *smtp.Client, from string, to []string, data []byte) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message not accepted: %w", err)
	}
	return client.Quit()
}
