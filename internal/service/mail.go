package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/mail"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MailService sends mail on behalf of a practice or one of its locations.
type MailService struct {
	practices *PracticeService
	factory   mail.Factory
	logger    *zap.Logger
}

func NewMailService(practices *PracticeService, factory mail.Factory, logger *zap.Logger) *MailService {
	return &MailService{practices: practices, factory: factory, logger: logger}
}

// Send delivers m using the location's transport when locationID is set and
// the configured default otherwise.
func (s *MailService) Send(ctx context.Context, practiceID uuid.UUID, locationID *uuid.UUID, locale string, m mail.Message) error {
	mc, err := s.practices.MailContext(ctx, practiceID, locationID, locale)
	if err != nil {
		return err
	}
	sender, err := s.factory.Create(mc, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeMailSendFailed, "Reason", err.Error())
	}
	if err := sender.Send(ctx, m); err != nil {
		if errors.Is(err, mail.ErrNoRecipients) || errors.Is(err, mail.ErrNoFromAddress) || errors.Is(err, mail.ErrInvalidAddress) || errors.Is(err, mail.ErrInvalidHeader) {
			return apperr.Wrap(err, apperr.CodeMailInvalid, "Reason", err.Error())
		}
		s.logger.Warn("mail send failed", zap.String("practice_id", practiceID.String()), zap.Error(err))
		return apperr.Wrap(err, apperr.CodeMailSendFailed, "Reason", err.Error())
	}
	return nil
}
