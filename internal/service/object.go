package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/Harshitk-cp/vetpms/internal/bean"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectService is the archetype-driven CRUD layer. Every write goes through a
// bean so node coercion, defaults and validation are applied uniformly.
type ObjectService struct {
	objects    domain.ObjectStore
	archetypes *archetype.Registry
	resolver   domain.Resolver
	logger     *zap.Logger
	now        func() time.Time
}

func NewObjectService(objects domain.ObjectStore, archetypes *archetype.Registry, resolver domain.Resolver, logger *zap.Logger) *ObjectService {
	return &ObjectService{
		objects:    objects,
		archetypes: archetypes,
		resolver:   resolver,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for relationship periods.
func (s *ObjectService) SetClock(now func() time.Time) { s.now = now }

// Archetypes exposes the descriptor registry the service validates against.
func (s *ObjectService) Archetypes() *archetype.Registry { return s.archetypes }

type CreateObjectInput struct {
	Archetype  string
	Nodes      map[string]any
	Contacts   []domain.Contact
	ActiveFrom *time.Time
	ActiveTo   *time.Time
}

type UpdateObjectInput struct {
	Version    int64
	Nodes      map[string]any
	Contacts   *[]domain.Contact
	ActiveFrom *time.Time
	ActiveTo   *time.Time
}

// Bean wraps o for node access with the service's registry and resolver.
func (s *ObjectService) Bean(o *domain.Object) (*bean.Bean, error) {
	b, err := bean.New(o, s.archetypes, s.resolver)
	if err != nil {
		return nil, err
	}
	b.SetClock(s.now)
	return b, nil
}

// Create builds a new object of the given archetype for practiceID.
func (s *ObjectService) Create(ctx context.Context, practiceID uuid.UUID, in CreateObjectInput) (*domain.Object, error) {
	o, err := s.build(ctx, practiceID, uuid.Nil, in)
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// build prepares an unsaved object: node values, defaults, validation and
// name uniqueness are all checked before anything is written.
func (s *ObjectService) build(ctx context.Context, practiceID, id uuid.UUID, in CreateObjectInput) (*domain.Object, error) {
	d, err := s.archetypes.Get(in.Archetype)
	if err != nil {
		return nil, err
	}
	o := domain.NewObject(d.ID)
	if id != uuid.Nil {
		o.ID = id
	}
	o.PracticeID = practiceID
	o.From, o.To = in.ActiveFrom, in.ActiveTo
	o.Contacts = withContactIDs(in.Contacts)

	b, err := s.Bean(o)
	if err != nil {
		return nil, err
	}
	if err := b.SetValues(in.Nodes); err != nil {
		return nil, err
	}
	if err := s.archetypes.ApplyDefaults(o); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUniqueName(ctx, d, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *ObjectService) insert(ctx context.Context, o *domain.Object) error {
	if err := s.objects.Create(ctx, o); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return apperr.Wrap(err, apperr.CodeConflict)
		}
		return err
	}
	s.logger.Debug("object created",
		zap.String("reference", o.Reference().String()),
		zap.String("practice_id", o.PracticeID.String()))
	return nil
}

// Get loads an object, checking that it belongs to practiceID and is of shortName.
func (s *ObjectService) Get(ctx context.Context, practiceID uuid.UUID, shortName string, id uuid.UUID) (*domain.Object, error) {
	o, err := s.objects.GetByID(ctx, id, practiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound(shortName, id)
		}
		return nil, err
	}
	if shortName != "" && o.Archetype.ShortName() != shortName {
		return nil, notFound(shortName, id)
	}
	return o, nil
}

// Update applies node values to an existing object. The caller's version must
// match the stored version.
func (s *ObjectService) Update(ctx context.Context, practiceID uuid.UUID, shortName string, id uuid.UUID, in UpdateObjectInput) (*domain.Object, error) {
	o, err := s.Get(ctx, practiceID, shortName, id)
	if err != nil {
		return nil, err
	}
	if in.Version != o.Version {
		return nil, stale(o)
	}
	d, err := s.archetypes.GetByID(o.Archetype)
	if err != nil {
		return nil, err
	}

	b, err := s.Bean(o)
	if err != nil {
		return nil, err
	}
	if err := b.SetValues(in.Nodes); err != nil {
		return nil, err
	}
	if in.Contacts != nil {
		o.Contacts = withContactIDs(*in.Contacts)
	}
	if in.ActiveFrom != nil {
		o.From = in.ActiveFrom
	}
	if in.ActiveTo != nil {
		o.To = in.ActiveTo
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUniqueName(ctx, d, o); err != nil {
		return nil, err
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes an object that no longer takes part in any active
// relationship, whether held by the object itself or by another object
// pointing at it.
func (s *ObjectService) Delete(ctx context.Context, practiceID uuid.UUID, shortName string, id uuid.UUID) error {
	o, err := s.Get(ctx, practiceID, shortName, id)
	if err != nil {
		return err
	}
	now := s.now()
	for _, r := range o.Relationships {
		if r.ActiveAt(now) {
			return apperr.New(apperr.CodeEntityTypeInUse, "Name", displayName(o))
		}
	}
	self := o.Reference()
	holders, err := s.objects.Referencing(ctx, practiceID, self)
	if err != nil {
		return err
	}
	for _, h := range holders {
		for _, r := range h.Relationships {
			if (r.Target == self || r.Source == self) && r.ActiveAt(now) {
				return apperr.New(apperr.CodeEntityTypeInUse, "Name", displayName(o))
			}
		}
	}
	if err := s.objects.Delete(ctx, id, practiceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(shortName, id)
		}
		return err
	}
	s.logger.Debug("object deleted", zap.String("reference", o.Reference().String()))
	return nil
}

// List returns the practice's objects matching f. Unknown archetype patterns
// are rejected so typos surface as errors instead of empty lists.
func (s *ObjectService) List(ctx context.Context, practiceID uuid.UUID, f domain.ObjectFilter) ([]domain.Object, error) {
	if f.ShortName != "" && len(s.archetypes.ShortNames(f.ShortName)) == 0 {
		return nil, apperr.New(apperr.CodeArchetypeNotFound, "ShortName", f.ShortName)
	}
	return s.objects.List(ctx, practiceID, f)
}

// Targets resolves the active targets of a relationship node whose archetype
// matches targetType. Targets owned by another practice, and links to objects
// that have since been deleted, are left out.
func (s *ObjectService) Targets(ctx context.Context, practiceID uuid.UUID, shortName string, id uuid.UUID, node, targetType string) ([]*domain.Object, error) {
	o, err := s.Get(ctx, practiceID, shortName, id)
	if err != nil {
		return nil, err
	}
	b, err := s.Bean(o)
	if err != nil {
		return nil, err
	}
	refs, err := b.TargetRefs(node, s.now())
	if err != nil {
		return nil, err
	}
	var out []*domain.Object
	for _, ref := range refs {
		if targetType != "" && !domain.MatchShortName(targetType, ref.Namespace()) {
			continue
		}
		t, err := s.resolver.Resolve(ctx, ref)
		if err != nil {
			if apperr.IsCode(err, apperr.CodeReferenceNotFound) {
				s.logger.Warn("dangling relationship", zap.String("source", o.Reference().String()), zap.String("target", ref.String()))
				continue
			}
			return nil, err
		}
		if t.PracticeID == practiceID {
			out = append(out, t)
		}
	}
	return out, nil
}

type AddRelationshipInput struct {
	Node         string
	Relationship string
	Target       string
}

// AddRelationship links an object to a target of the same practice. When the
// target's archetype collects the same relationship archetype, the link is
// mirrored onto the target as well.
func (s *ObjectService) AddRelationship(ctx context.Context, practiceID uuid.UUID, shortName string, id uuid.UUID, in AddRelationshipInput) (domain.Relationship, error) {
	o, err := s.Get(ctx, practiceID, shortName, id)
	if err != nil {
		return domain.Relationship{}, err
	}
	ref, err := domain.ParseReference(in.Target)
	if err != nil {
		return domain.Relationship{}, apperr.Wrap(err, apperr.CodeReferenceInvalid, "Reference", in.Target)
	}
	target, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return domain.Relationship{}, err
	}
	if target.PracticeID != practiceID {
		return domain.Relationship{}, apperr.New(apperr.CodePracticeMismatch, "Reference", ref.String())
	}

	b, err := s.Bean(o)
	if err != nil {
		return domain.Relationship{}, err
	}
	before := len(o.Relationships)
	rel, err := b.AddTarget(in.Node, in.Relationship, ref)
	if err != nil {
		return domain.Relationship{}, err
	}
	if len(o.Relationships) == before {
		return rel, nil
	}
	if err := b.Validate(); err != nil {
		return domain.Relationship{}, err
	}
	if err := s.save(ctx, o); err != nil {
		return domain.Relationship{}, err
	}

	if s.mirrors(target, rel) {
		target.Relationships = append(target.Relationships, rel)
		if err := s.save(ctx, target); err != nil {
			o.Relationships = o.Relationships[:before]
			s.revert(ctx, o, err)
			return domain.Relationship{}, err
		}
	}
	s.logger.Debug("relationship added",
		zap.String("relationship", rel.Archetype.ShortName()),
		zap.String("source", rel.Source.String()),
		zap.String("target", rel.Target.String()))
	return rel, nil
}

// RemoveRelationship ends the node's active relationships with target on both
// ends and returns how many were ended.
func (s *ObjectService) RemoveRelationship(ctx context.Context, practiceID uuid.UUID, shortName string, id uuid.UUID, node, target string) (int, error) {
	o, err := s.Get(ctx, practiceID, shortName, id)
	if err != nil {
		return 0, err
	}
	ref, err := domain.ParseReference(target)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeReferenceInvalid, "Reference", target)
	}
	b, err := s.Bean(o)
	if err != nil {
		return 0, err
	}
	prev := append([]domain.Relationship(nil), o.Relationships...)
	ended, err := b.RemoveTarget(node, ref)
	if err != nil || len(ended) == 0 {
		return 0, err
	}
	if err := s.save(ctx, o); err != nil {
		return 0, err
	}

	other, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeReferenceNotFound) {
			return len(ended), nil
		}
		return 0, err
	}
	if other.PracticeID != practiceID {
		return len(ended), nil
	}
	changed := false
	for _, e := range ended {
		for i := range other.Relationships {
			r := &other.Relationships[i]
			if r.ID == e.ID && r.To == nil {
				r.To = e.To
				changed = true
			}
		}
	}
	if changed {
		if err := s.save(ctx, other); err != nil {
			o.Relationships = prev
			s.revert(ctx, o, err)
			return 0, err
		}
	}
	return len(ended), nil
}

// revert writes back o after the mirrored half of a relationship change failed
// with cause, so neither end keeps a one-sided link.
func (s *ObjectService) revert(ctx context.Context, o *domain.Object, cause error) {
	if err := s.save(ctx, o); err != nil {
		s.logger.Error("failed to revert relationship change",
			zap.String("reference", o.Reference().String()),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	s.logger.Warn("relationship change reverted",
		zap.String("reference", o.Reference().String()),
		zap.Error(cause))
}

// mirrors reports whether target declares a relationships node for rel's archetype.
func (s *ObjectService) mirrors(target *domain.Object, rel domain.Relationship) bool {
	d, err := s.archetypes.GetByID(target.Archetype)
	if err != nil {
		return false
	}
	for _, n := range d.Nodes() {
		if n.Kind == domain.KindRelationships && domain.MatchAny(n.Relationships, rel.Archetype.ShortName()) {
			return true
		}
	}
	return false
}

func (s *ObjectService) save(ctx context.Context, o *domain.Object) error {
	if err := s.objects.Update(ctx, o); err != nil {
		switch {
		case errors.Is(err, store.ErrVersionMismatch):
			return stale(o)
		case errors.Is(err, store.ErrNotFound):
			return notFound(o.Archetype.ShortName(), o.ID)
		}
		return err
	}
	return nil
}

func (s *ObjectService) checkUniqueName(ctx context.Context, d *domain.ArchetypeDescriptor, o *domain.Object) error {
	if !d.UniqueName || o.Name == "" {
		return nil
	}
	existing, err := s.objects.List(ctx, o.PracticeID, domain.ObjectFilter{ShortName: d.ShortName(), Name: o.Name, Limit: 2})
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID != o.ID {
			return apperr.New(apperr.CodeEntityTypeDuplicate, "Archetype", d.DisplayName, "Name", o.Name)
		}
	}
	return nil
}

func withContactIDs(contacts []domain.Contact) []domain.Contact {
	out := make([]domain.Contact, len(contacts))
	for i, c := range contacts {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.Details == nil {
			c.Details = domain.Attributes{}
		}
		out[i] = c
	}
	return out
}

func notFound(shortName string, id uuid.UUID) error {
	return apperr.New(apperr.CodeReferenceNotFound, "Reference", domain.ReferenceOf(shortName, id).String())
}

func stale(o *domain.Object) error {
	return apperr.New(apperr.CodeEditorStaleVersion,
		"Reference", o.Reference().String(),
		"Version", strconv.FormatInt(o.Version, 10))
}

func displayName(o *domain.Object) string {
	if o.Name != "" {
		return o.Name
	}
	return o.Reference().String()
}
