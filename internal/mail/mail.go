// Package mail creates senders for practice and location mail. A MailContext
// names who is sending; a TransportConfig says how.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Harshitk-cp/vetpms/internal/domain"
)

var (
	ErrNoFromAddress  = errors.New("mail: no from address")
	ErrNoRecipients   = errors.New("mail: no recipients")
	ErrNoTransport    = errors.New("mail: no transport host configured")
	ErrInvalidAddress = errors.New("mail: invalid address")
	ErrInvalidHeader  = errors.New("mail: invalid header")
)

// Location nodes that override the practice transport.
const (
	NodeMailHost = "mailHost"
	NodeMailPort = "mailPort"
	NodeMailFrom = "mailFrom"
)

// MailContext identifies the practice, and optionally the location, mail is
// sent on behalf of.
type MailContext struct {
	Practice *domain.Object
	Location *domain.Object
	Locale   string
}

// PracticeName returns the name used in subjects and signatures.
func (c MailContext) PracticeName() string {
	if c.Practice == nil {
		return ""
	}
	return c.Practice.Name
}

func (c MailContext) LocationName() string {
	if c.Location == nil {
		return c.PracticeName()
	}
	return c.Location.Name
}

// FromAddress returns the location's mailFrom node if set, else fallback.
func (c MailContext) FromAddress(fallback string) string {
	if c.Location != nil {
		if v, ok := c.Location.Details.Get(NodeMailFrom); ok && v.String() != "" {
			return v.String()
		}
	}
	return fallback
}

// TransportConfig describes an SMTP server.
type TransportConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (t TransportConfig) Addr() string {
	port := t.Port
	if port == 0 {
		port = 25
	}
	return fmt.Sprintf("%s:%d", t.Host, port)
}

// LocationTransport returns base with host and port overridden by the
// location's mail nodes.
func (c MailContext) LocationTransport(base TransportConfig) TransportConfig {
	if c.Location == nil {
		return base
	}
	if v, ok := c.Location.Details.Get(NodeMailHost); ok && v.String() != "" {
		base.Host = v.String()
	}
	if v, ok := c.Location.Details.Get(NodeMailPort); ok {
		if port, err := v.AsInt(); err == nil && port > 0 {
			base.Port = int(port)
		}
	}
	return base
}

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Factory creates a Sender for a mail context. A nil transport config selects
// the location or practice default.
type Factory interface {
	Create(mc MailContext, tc *TransportConfig) (Sender, error)
}

// Templates renders localized mail text.
type Templates interface {
	Format(locale, key string, args map[string]string) (string, bool)
}

const (
	keyDefaultSubject = "mail.subject.default"
	keySignature      = "mail.signature"
)

// prepare fills in the from address, default subject and signature, and
// checks addresses.
func prepare(mc MailContext, t Templates, from string, m Message) (Message, error) {
	if m.From == "" {
		m.From = from
	}
	if m.From == "" {
		return m, ErrNoFromAddress
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return m, fmt.Errorf("%w: from %q: %v", ErrInvalidAddress, m.From, err)
	}
	if len(m.To) == 0 {
		return m, ErrNoRecipients
	}
	for _, to := range m.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return m, fmt.Errorf("%w: to %q: %v", ErrInvalidAddress, to, err)
		}
	}

	if strings.ContainsAny(m.Subject, "\r\n") {
		return m, fmt.Errorf("%w: subject contains a line break", ErrInvalidHeader)
	}

	args := map[string]string{"Practice": mc.PracticeName(), "Location": mc.LocationName()}
	if m.Subject == "" && t != nil {
		if s, ok := t.Format(mc.Locale, keyDefaultSubject, args); ok {
			m.Subject = s
		}
	}
	if t != nil {
		if sig, ok := t.Format(mc.Locale, keySignature, args); ok && !strings.HasSuffix(strings.TrimRight(m.Body, "\n"), sig) {
			m.Body = strings.TrimRight(m.Body, "\n") + "\n\n-- \n" + sig + "\n"
		}
	}
	return m, nil
}
