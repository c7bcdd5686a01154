package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/unclebandit/drive-signin/internal/model"
)

// SMTP mails the plain-text report. TLS=true means implicit TLS (usually
// port 465), otherwise STARTTLS is used when the server offers it.
type SMTP struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Port == 0 {
		if cfg.TLS {
			cfg.Port = 465
		} else {
			cfg.Port = 25
		}
	}
	return &SMTP{cfg: cfg, now: time.Now}
}

func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) Send(ctx context.Context, env model.Envelope) error {
	if s.cfg.Host == "" || s.cfg.Sender == "" || s.cfg.Receiver == "" {
		return errors.New("smtp host, sender or receiver is not configured")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: 15 * time.Second}

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.TLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp: dial failed: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: handshake failed: %w", err)
	}
	defer client.Close()

	if !s.cfg.TLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("smtp: starttls failed: %w", err)
			}
		}
	}

	if s.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("smtp: auth failed: %w", err)
		}
	}

	receivers := splitAddresses(s.cfg.Receiver)
	if err := client.Mail(s.cfg.Sender); err != nil {
		return fmt.Errorf("smtp: mail from failed: %w", err)
	}
	for _, rcpt := range receivers {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp: rcpt to %s failed: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data failed: %w", err)
	}
	if _, err := w.Write(s.message(env, receivers)); err != nil {
		w.Close()
		return fmt.Errorf("smtp: write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: send failed: %w", err)
	}
	return client.Quit()
}

func (s *SMTP) message(env model.Envelope, receivers []string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.Sender)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(receivers, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", env.Title))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(env.PlainText, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func splitAddresses(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
