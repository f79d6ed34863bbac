// Package email provides an SMTP-based notifier for the notification gateway.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/calldeck/calldeck/internal/config"
	"github.com/calldeck/calldeck/internal/port/notifier"
)

const providerName = "email"

// Notifier sends email notifications via SMTP.
type Notifier struct {
	cfg config.SMTP
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg config.SMTP) *Notifier {
	return &Notifier{cfg: cfg}
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{
		RichFormatting: true,
		DirectAddress:  true,
	}
}

// Send delivers an email to the notification recipient. The dial and the
// whole SMTP dialogue are bound to ctx: the connection carries the context
// deadline and is closed when ctx is cancelled, so a stalled server fails
// the send instead of blocking it.
func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if n.cfg.Host == "" || n.cfg.From == "" {
		return notifier.ErrNotConfigured
	}
	if notification.Recipient == "" {
		return fmt.Errorf("email: missing recipient")
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		n.cfg.From, notification.Recipient, notification.Subject, notification.Body)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("email: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Covers cancellation without a deadline: closing the connection unblocks
	// any read the SMTP client is sitting in.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := n.deliver(conn, notification.Recipient, []byte(msg)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("email: send to %s: %w", notification.Recipient, ctxErr)
		}
		return fmt.Errorf("email: send to %s: %w", notification.Recipient, err)
	}
	return nil
}

// deliver runs the SMTP dialogue on an established connection.
func (n *Notifier) deliver(conn net.Conn, recipient string, msg []byte) error {
	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return err
		}
	}
	if n.cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(n.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(recipient); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
