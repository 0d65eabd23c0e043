// Package memory holds map-backed stores used for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/google/uuid"
)

type PracticeStore struct {
	mu        sync.RWMutex
	practices map[uuid.UUID]*domain.Practice
}

func NewPracticeStore() *PracticeStore {
	return &PracticeStore{practices: make(map[uuid.UUID]*domain.Practice)}
}

func (s *PracticeStore) Create(_ context.Context, p *domain.Practice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.practices {
		if existing.APIKeyHash == p.APIKeyHash {
			return store.ErrConflict
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.practices[p.ID] = &cp
	return nil
}

func (s *PracticeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Practice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.practices[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *PracticeStore) GetByAPIKeyHash(_ context.Context, hash string) (*domain.Practice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.practices {
		if p.APIKeyHash == hash {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *PracticeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.practices[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.practices, id)
	return nil
}

// ObjectStore keeps deep copies so callers never share state with the store.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[uuid.UUID]*domain.Object
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[uuid.UUID]*domain.Object)}
}

// clone copies o through its JSON form, the same shape the Postgres store persists.
func clone(o *domain.Object) *domain.Object {
	b, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}
	out := &domain.Object{}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	if out.Details == nil {
		out.Details = domain.Attributes{}
	}
	return out
}

func (s *ObjectStore) Create(_ context.Context, o *domain.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if _, exists := s.objects[o.ID]; exists {
		return store.ErrConflict
	}
	now := time.Now().UTC()
	o.Version = 1
	o.CreatedAt, o.UpdatedAt = now, now
	s.objects[o.ID] = clone(o)
	return nil
}

func (s *ObjectStore) GetByID(_ context.Context, id uuid.UUID, practiceID uuid.UUID) (*domain.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[id]
	if !ok || o.PracticeID != practiceID {
		return nil, store.ErrNotFound
	}
	return clone(o), nil
}

func (s *ObjectStore) Resolve(_ context.Context, ref domain.Reference) (*domain.Object, error) {
	id, err := ref.UUID()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[id]
	if !ok || o.Archetype.ShortName() != ref.Namespace() {
		return nil, store.ErrNotFound
	}
	return clone(o), nil
}

func (s *ObjectStore) Update(_ context.Context, o *domain.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.objects[o.ID]
	if !ok || cur.PracticeID != o.PracticeID {
		return store.ErrNotFound
	}
	if cur.Version != o.Version {
		return store.ErrVersionMismatch
	}
	o.Version++
	o.CreatedAt = cur.CreatedAt
	o.UpdatedAt = time.Now().UTC()
	s.objects[o.ID] = clone(o)
	return nil
}

func (s *ObjectStore) Delete(_ context.Context, id uuid.UUID, practiceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[id]
	if !ok || o.PracticeID != practiceID {
		return store.ErrNotFound
	}
	delete(s.objects, id)
	return nil
}

func (s *ObjectStore) List(_ context.Context, practiceID uuid.UUID, f domain.ObjectFilter) ([]domain.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := f.ShortName
	if pattern == "" {
		pattern = "*"
	}
	var out []domain.Object
	for _, o := range s.objects {
		if o.PracticeID != practiceID || !domain.MatchShortName(pattern, o.Archetype.ShortName()) {
			continue
		}
		if f.ActiveOnly && !o.Active {
			continue
		}
		if f.Name != "" && !strings.EqualFold(o.Name, f.Name) {
			continue
		}
		out = append(out, *clone(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ObjectStore) Referencing(_ context.Context, practiceID uuid.UUID, ref domain.Reference) ([]domain.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Object
	for _, o := range s.objects {
		if o.PracticeID != practiceID || o.Reference() == ref {
			continue
		}
		for _, r := range o.Relationships {
			if r.Source == ref || r.Target == ref {
				out = append(out, *clone(o))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *ObjectStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, o := range s.objects {
		if o.Active && o.To != nil && !o.To.After(now) {
			o.Active = false
			o.Version++
			o.UpdatedAt = now
			n++
		}
	}
	return n, nil
}
