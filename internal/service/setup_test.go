package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/resolver"
	"github.com/Harshitk-cp/vetpms/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store         *memory.ObjectStore
	practiceStore *memory.PracticeStore
	objects       *ObjectService
	practices     *PracticeService
	departments   *DepartmentService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test put its own ObjectStore in front of the memory store.
func newFixtureWith(t *testing.T, wrap func(domain.ObjectStore) domain.ObjectStore) *fixture {
	t.Helper()
	reg, err := archetype.Load("")
	require.NoError(t, err)

	mem := memory.NewObjectStore()
	var objects domain.ObjectStore = mem
	if wrap != nil {
		objects = wrap(mem)
	}
	refs := resolver.NewRegistry()
	refs.Register("*", objects)

	practiceStore := memory.NewPracticeStore()
	objectSvc := NewObjectService(objects, reg, refs, zap.NewNop())
	return &fixture{
		store:         mem,
		practiceStore: practiceStore,
		objects:       objectSvc,
		practices:     NewPracticeService(practiceStore, objectSvc, zap.NewNop()),
		departments:   NewDepartmentService(objectSvc),
	}
}

// failingStore fails writes to selected objects and passes everything else
// through to the wrapped store.
type failingStore struct {
	domain.ObjectStore
	failCreate bool
	failUpdate map[uuid.UUID]bool
}

func (s *failingStore) Create(ctx context.Context, o *domain.Object) error {
	if s.failCreate {
		return errors.New("disk full")
	}
	return s.ObjectStore.Create(ctx, o)
}

func (s *failingStore) Update(ctx context.Context, o *domain.Object) error {
	if s.failUpdate[o.ID] {
		return errors.New("disk full")
	}
	return s.ObjectStore.Update(ctx, o)
}

// newPractice bootstraps a practice and returns its id.
func (f *fixture) newPractice(t *testing.T, name string) uuid.UUID {
	t.Helper()
	v, err := f.practices.Create(context.Background(), name, uuid.NewString(), nil)
	require.NoError(t, err)
	return v.Practice.ID
}

func (f *fixture) create(t *testing.T, practiceID uuid.UUID, shortName string, nodes map[string]any) uuid.UUID {
	t.Helper()
	o, err := f.objects.Create(context.Background(), practiceID, CreateObjectInput{Archetype: shortName, Nodes: nodes})
	require.NoError(t, err)
	return o.ID
}

func (f *fixture) link(t *testing.T, practiceID uuid.UUID, shortName string, id uuid.UUID, node, rel, target string) {
	t.Helper()
	_, err := f.objects.AddRelationship(context.Background(), practiceID, shortName, id, AddRelationshipInput{
		Node:         node,
		Relationship: rel,
		Target:       target,
	})
	require.NoError(t, err)
}
