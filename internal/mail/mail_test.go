package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTemplates map[string]string

func (s stubTemplates) Format(locale, key string, args map[string]string) (string, bool) {
	tmpl, ok := s[locale+"/"+key]
	if !ok {
		return "", false
	}
	for k, v := range args {
		tmpl = strings.ReplaceAll(tmpl, "{"+k+"}", v)
	}
	return tmpl, true
}

var templates = stubTemplates{
	"en-US/mail.subject.default": "Message from {Practice}",
	"en-US/mail.signature":       "{Location}, {Practice}",
}

func testContext() MailContext {
	practice := domain.NewObject(domain.MustArchetypeID(domain.ArchetypePractice))
	practice.Name = "Northside Vets"
	location := domain.NewObject(domain.MustArchetypeID(domain.ArchetypeLocation))
	location.Name = "Main St"
	location.Details.Set(NodeMailFrom, domain.StringValue("main@northside.example"))
	location.Details.Set(NodeMailHost, domain.StringValue("smtp.northside.example"))
	location.Details.Set(NodeMailPort, domain.IntValue(2525))
	return MailContext{Practice: practice, Location: location, Locale: "en-US"}
}

func TestMailContext(t *testing.T) {
	mc := testContext()
	assert.Equal(t, "Main St", mc.LocationName())
	assert.Equal(t, "main@northside.example", mc.FromAddress("default@example.com"))

	tc := mc.LocationTransport(TransportConfig{Host: "relay", Port: 587, Username: "u"})
	assert.Equal(t, "smtp.northside.example:2525", tc.Addr())
	assert.Equal(t, "u", tc.Username)

	practiceOnly := MailContext{Practice: mc.Practice}
	assert.Equal(t, "Northside Vets", practiceOnly.LocationName())
	assert.Equal(t, "default@example.com", practiceOnly.FromAddress("default@example.com"))
	assert.Equal(t, "relay:25", practiceOnly.LocationTransport(TransportConfig{Host: "relay"}).Addr())
}

func TestPrepare(t *testing.T) {
	mc := testContext()

	m, err := prepare(mc, templates, "main@northside.example", Message{To: []string{"owner@example.com"}, Body: "Hello\n"})
	require.NoError(t, err)
	assert.Equal(t, "main@northside.example", m.From)
	assert.Equal(t, "Message from Northside Vets", m.Subject)
	assert.Equal(t, "Hello\n\n-- \nMain St, Northside Vets\n", m.Body)

	again, err := prepare(mc, templates, "", m)
	require.NoError(t, err)
	assert.Equal(t, m.Body, again.Body, "signature is appended once")

	m, err = prepare(mc, templates, "", Message{From: "a@example.com", To: []string{"b@example.com"}, Subject: "Reminder"})
	require.NoError(t, err)
	assert.Equal(t, "Reminder", m.Subject)
}

func TestPrepare_Errors(t *testing.T) {
	mc := testContext()
	tests := []struct {
		name string
		from string
		msg  Message
		want error
	}{
		{"no from", "", Message{To: []string{"b@example.com"}}, ErrNoFromAddress},
		{"bad from", "not an address", Message{To: []string{"b@example.com"}}, ErrInvalidAddress},
		{"no recipients", "a@example.com", Message{}, ErrNoRecipients},
		{"bad recipient", "a@example.com", Message{To: []string{"b@example.com", "nope"}}, ErrInvalidAddress},
		{"subject with CRLF", "a@example.com", Message{To: []string{"b@example.com"}, Subject: "Hi\r\nBcc: x@evil.example"}, ErrInvalidHeader},
		{"subject with LF", "a@example.com", Message{To: []string{"b@example.com"}, Subject: "Hi\nX-Extra: yes"}, ErrInvalidHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prepare(mc, templates, tt.from, tt.msg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSMTPFactory(t *testing.T) {
	f := NewSMTPFactory(TransportConfig{Host: "relay.example", Port: 587, Username: "user", Password: "pw"}, "default@example.com", templates, zap.NewNop())

	s, err := f.Create(testContext(), nil)
	require.NoError(t, err)
	sender := s.(*smtpSender)
	assert.Equal(t, "smtp.northside.example:2525", sender.cfg.Addr())
	assert.Equal(t, "main@northside.example", sender.from)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}
	require.NoError(t, sender.Send(context.Background(), Message{To: []string{"owner@example.com"}, Body: "Hi"}))
	assert.Equal(t, "smtp.northside.example:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "main@northside.example", gotFrom)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Message from Northside Vets\r\n")
	assert.Contains(t, string(gotMsg), "Hi\r\n\r\n-- \r\nMain St, Northside Vets")

	sender.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 busy") }
	err = sender.Send(context.Background(), Message{To: []string{"owner@example.com"}})
	assert.ErrorContains(t, err, "421 busy")

	override := TransportConfig{Host: "other.example"}
	s, err = f.Create(testContext(), &override)
	require.NoError(t, err)
	assert.Equal(t, "other.example:25", s.(*smtpSender).cfg.Addr())
}

func TestSMTPSender_SubjectHeader(t *testing.T) {
	f := NewSMTPFactory(TransportConfig{Host: "relay.example"}, "default@example.com", templates, zap.NewNop())
	s, err := f.Create(testContext(), nil)
	require.NoError(t, err)
	sender := s.(*smtpSender)

	var sent []byte
	sender.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		sent = msg
		return nil
	}

	err = sender.Send(context.Background(), Message{
		To:      []string{"owner@example.com"},
		Subject: "Hi\r\nBcc: attacker@evil.example\r\nX-Injected: yes",
	})
	assert.ErrorIs(t, err, ErrInvalidHeader)
	assert.Nil(t, sent, "nothing is handed to the relay")

	require.NoError(t, sender.Send(context.Background(), Message{To: []string{"owner@example.com"}, Subject: "Impfung für Bello"}))
	headers := strings.SplitN(string(sent), "\r\n\r\n", 2)[0]
	assert.Contains(t, headers, "Subject: =?utf-8?q?Impfung_f=C3=BCr_Bello?=\r\n")
	assert.NotContains(t, headers, "Bcc:")
}

func TestSMTPFactory_NoTransport(t *testing.T) {
	f := NewSMTPFactory(TransportConfig{}, "default@example.com", templates, zap.NewNop())
	_, err := f.Create(MailContext{Practice: testContext().Practice}, nil)
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestLogFactory(t *testing.T) {
	f := NewLogFactory("default@example.com", templates, zap.NewNop())
	s, err := f.Create(MailContext{Practice: testContext().Practice, Locale: "en-US"}, nil)
	require.NoError(t, err)

	assert.NoError(t, s.Send(context.Background(), Message{To: []string{"owner@example.com"}}))
	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)
}
