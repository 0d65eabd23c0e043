package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/mail"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PracticeService owns practice bootstrap. A practice is both the tenant row
// that API keys authenticate against and a party.organisationPractice object
// with the same id.
type PracticeService struct {
	practices domain.PracticeStore
	objects   *ObjectService
	logger    *zap.Logger
}

func NewPracticeService(practices domain.PracticeStore, objects *ObjectService, logger *zap.Logger) *PracticeService {
	return &PracticeService{practices: practices, objects: objects, logger: logger}
}

// PracticeView is a practice with its object and active locations.
type PracticeView struct {
	Practice  *domain.Practice
	Object    *domain.Object
	Locations []*domain.Object
}

// Create registers a practice authenticated by apiKeyHash. nodes may set any
// party.organisationPractice node other than name.
func (s *PracticeService) Create(ctx context.Context, name, apiKeyHash string, nodes map[string]any) (*PracticeView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodePracticeNameEmpty)
	}
	values := make(map[string]any, len(nodes)+1)
	for k, v := range nodes {
		values[k] = v
	}
	values[domain.NodeName] = name

	id := uuid.New()
	o, err := s.objects.build(ctx, id, id, CreateObjectInput{Archetype: domain.ArchetypePractice, Nodes: values})
	if err != nil {
		return nil, err
	}

	p := &domain.Practice{ID: id, Name: name, APIKeyHash: apiKeyHash}
	if err := s.practices.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Wrap(err, apperr.CodeConflict)
		}
		return nil, err
	}
	if err := s.objects.insert(ctx, o); err != nil {
		if derr := s.practices.Delete(ctx, p.ID); derr != nil {
			s.logger.Error("failed to remove practice after object insert failed",
				zap.String("practice_id", p.ID.String()),
				zap.NamedError("cause", err),
				zap.Error(derr))
		}
		return nil, err
	}
	s.logger.Info("practice created", zap.String("practice_id", p.ID.String()), zap.String("name", name))
	return &PracticeView{Practice: p, Object: o}, nil
}

// Get returns the practice with its currently active locations.
func (s *PracticeService) Get(ctx context.Context, practiceID uuid.UUID) (*PracticeView, error) {
	p, err := s.practices.GetByID(ctx, practiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Wrap(err, apperr.CodePracticeNotFound)
		}
		return nil, err
	}
	o, err := s.object(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	locations, err := s.objects.Targets(ctx, practiceID, domain.ArchetypePractice, o.ID, "locations", domain.ArchetypeLocation)
	if err != nil {
		return nil, err
	}
	return &PracticeView{Practice: p, Object: o, Locations: locations}, nil
}

// Location returns one of the practice's active locations.
func (s *PracticeService) Location(ctx context.Context, practiceID, locationID uuid.UUID) (*domain.Object, error) {
	v, err := s.Get(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	for _, l := range v.Locations {
		if l.ID == locationID {
			return l, nil
		}
	}
	return nil, apperr.New(apperr.CodePracticeLocationNotFound, "Location", locationID.String())
}

// MailContext builds the mail context for a practice and optional location.
func (s *PracticeService) MailContext(ctx context.Context, practiceID uuid.UUID, locationID *uuid.UUID, locale string) (mail.MailContext, error) {
	o, err := s.object(ctx, practiceID)
	if err != nil {
		return mail.MailContext{}, err
	}
	mc := mail.MailContext{Practice: o, Locale: locale}
	if locationID != nil {
		l, err := s.Location(ctx, practiceID, *locationID)
		if err != nil {
			return mail.MailContext{}, err
		}
		mc.Location = l
	}
	return mc, nil
}

func (s *PracticeService) object(ctx context.Context, practiceID uuid.UUID) (*domain.Object, error) {
	o, err := s.objects.Get(ctx, practiceID, domain.ArchetypePractice, practiceID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeReferenceNotFound) {
			return nil, apperr.Wrap(err, apperr.CodePracticeNotFound)
		}
		return nil, err
	}
	return o, nil
}
