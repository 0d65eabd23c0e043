package mail

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPFactory creates senders that deliver over SMTP.
type SMTPFactory struct {
	defaults  TransportConfig
	from      string
	templates Templates
	logger    *zap.Logger
}

func NewSMTPFactory(defaults TransportConfig, from string, templates Templates, logger *zap.Logger) *SMTPFactory {
	return &SMTPFactory{defaults: defaults, from: from, templates: templates, logger: logger}
}

func (f *SMTPFactory) Create(mc MailContext, tc *TransportConfig) (Sender, error) {
	cfg := mc.LocationTransport(f.defaults)
	if tc != nil {
		cfg = *tc
	}
	if cfg.Host == "" {
		return nil, ErrNoTransport
	}
	return &smtpSender{
		mc:        mc,
		cfg:       cfg,
		from:      mc.FromAddress(f.from),
		templates: f.templates,
		logger:    f.logger,
		send:      smtp.SendMail,
	}, nil
}

type smtpSender struct {
	mc        MailContext
	cfg       TransportConfig
	from      string
	templates Templates
	logger    *zap.Logger
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *smtpSender) Send(ctx context.Context, m Message) error {
	m, err := prepare(s.mc, s.templates, s.from, m)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(s.cfg.Addr(), auth, m.From, m.To, encode(m)); err != nil {
		return fmt.Errorf("mail: send via %s: %w", s.cfg.Addr(), err)
	}
	s.logger.Info("mail sent",
		zap.String("transport", s.cfg.Addr()),
		zap.String("from", m.From),
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject))
	return nil
}

func encode(m Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}
