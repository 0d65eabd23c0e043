package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogFactory creates senders that only log messages. Used in development.
type LogFactory struct {
	from      string
	templates Templates
	logger    *zap.Logger
}

func NewLogFactory(from string, templates Templates, logger *zap.Logger) *LogFactory {
	return &LogFactory{from: from, templates: templates, logger: logger}
}

func (f *LogFactory) Create(mc MailContext, tc *TransportConfig) (Sender, error) {
	transport := "default"
	if tc != nil {
		transport = tc.Addr()
	}
	return &logSender{mc: mc, from: mc.FromAddress(f.from), transport: transport, templates: f.templates, logger: f.logger}, nil
}

type logSender struct {
	mc        MailContext
	from      string
	transport string
	templates Templates
	logger    *zap.Logger
}

func (s *logSender) Send(_ context.Context, m Message) error {
	m, err := prepare(s.mc, s.templates, s.from, m)
	if err != nil {
		return err
	}
	s.logger.Info("mail (not sent)",
		zap.String("transport", s.transport),
		zap.String("practice", s.mc.PracticeName()),
		zap.String("from", m.From),
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.Int("body_bytes", len(m.Body)))
	return nil
}
