package bean

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[domain.Reference]*domain.Object

func (m mapResolver) Resolve(ctx context.Context, ref domain.Reference) (*domain.Object, error) {
	o, ok := m[ref]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o, nil
}

func registry(t *testing.T) *archetype.Registry {
	t.Helper()
	r, err := archetype.Load("")
	require.NoError(t, err)
	return r
}

func newBean(t *testing.T, shortName string, resolver domain.Resolver) *Bean {
	t.Helper()
	b, err := New(domain.NewObject(domain.MustArchetypeID(shortName)), registry(t), resolver)
	require.NoError(t, err)
	return b
}

func TestNew_UnknownArchetype(t *testing.T) {
	_, err := New(domain.NewObject(domain.MustArchetypeID("party.nosuch")), registry(t), nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeArchetypeNotFound))
}

func TestGetSet(t *testing.T) {
	b := newBean(t, domain.ArchetypePatient, nil)

	require.NoError(t, b.Set("name", domain.StringValue("Rex")))
	require.NoError(t, b.Set("weight", domain.StringValue("12.5")))
	require.NoError(t, b.Set("desexed", domain.StringValue("true")))
	require.NoError(t, b.Set("dateOfBirth", domain.StringValue("2020-02-01")))

	assert.Equal(t, "Rex", b.Object().Name)
	w, err := b.GetDecimal("weight")
	require.NoError(t, err)
	assert.Equal(t, 12.5, w)
	d, err := b.GetBool("desexed")
	require.NoError(t, err)
	assert.True(t, d)
	dob, err := b.GetTime("dateOfBirth")
	require.NoError(t, err)
	assert.True(t, dob.Equal(time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)), dob)

	s, err := b.GetString("weight")
	require.NoError(t, err)
	assert.Equal(t, "12.5", s)

	breed, err := b.GetString("breed")
	require.NoError(t, err)
	assert.Empty(t, breed)
}

func TestSet_Errors(t *testing.T) {
	b := newBean(t, domain.ArchetypePatient, nil)

	err := b.Set("colour", domain.StringValue("red"))
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeNotFound))

	err = b.Set("weight", domain.StringValue("heavy"))
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeInvalidValue))

	err = b.Set("owners", domain.StringValue("x"))
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeInvalidValue))

	err = b.Set("active", domain.Value{})
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeInvalidValue))

	_, err = b.GetInt("colour")
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeNotFound))
}

func TestSet_ReadOnlyAfterSave(t *testing.T) {
	b := newBean(t, domain.ArchetypeEmployee, nil)
	require.NoError(t, b.Set("username", domain.StringValue("jsmith")))

	b.Object().Version = 1
	err := b.Set("username", domain.StringValue("jdoe"))
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeReadOnly))

	u, _ := b.GetString("username")
	assert.Equal(t, "jsmith", u)

	require.NoError(t, b.Set("username", domain.StringValue("jsmith")), "unchanged value is accepted")
	require.NoError(t, b.SetValues(map[string]any{"username": "jsmith", "name": "Jo Smith"}))
	assert.Equal(t, "Jo Smith", b.Object().Name)
}

func TestSetValues(t *testing.T) {
	b := newBean(t, domain.ArchetypePatient, nil)
	err := b.SetValues(map[string]any{
		"name":    "Rex",
		"species": "CANINE",
		"weight":  float64(30),
		"active":  false,
	})
	require.NoError(t, err)

	assert.False(t, b.Object().Active)
	v := b.Values()
	assert.Equal(t, "Rex", v["name"])
	assert.Equal(t, 30.0, v["weight"])
	assert.Equal(t, false, v["active"])
	assert.NotContains(t, v, "owners")

	err = b.SetValues(map[string]any{"name": []string{"x"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeInvalidValue))
}

func TestAddTarget(t *testing.T) {
	customer := newBean(t, domain.ArchetypeCustomer, nil)
	pet := domain.ReferenceOf(domain.ArchetypePatient, uuid.New())

	rel, err := customer.AddTarget("patients", domain.ArchetypePatientOwner, pet)
	require.NoError(t, err)
	assert.Equal(t, customer.Ref(), rel.Source)
	assert.Equal(t, pet, rel.Target)
	assert.Equal(t, 1, rel.Sequence)

	again, err := customer.AddTarget("patients", domain.ArchetypePatientOwner, pet)
	require.NoError(t, err)
	assert.Equal(t, rel.ID, again.ID)
	assert.Len(t, customer.Object().Relationships, 1)

	_, err = customer.AddTarget("patients", domain.ArchetypePracticeLocRel, pet)
	assert.True(t, apperr.IsCode(err, apperr.CodeRelationshipInvalid))

	_, err = customer.AddTarget("patients", domain.ArchetypePatientOwner, domain.ReferenceOf(domain.ArchetypeDepartment, uuid.New()))
	assert.True(t, apperr.IsCode(err, apperr.CodeRelationshipInvalid))

	_, err = customer.AddTarget("firstName", domain.ArchetypePatientOwner, pet)
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeNotCollection))

	patient := newBean(t, domain.ArchetypePatient, nil)
	_, err = patient.AddTarget("owners", domain.ArchetypePatientOwner, customer.Ref())
	assert.True(t, apperr.IsCode(err, apperr.CodeNodeReadOnly))
}

func TestTargets(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	dept := domain.NewObject(domain.MustArchetypeID(domain.ArchetypeDepartment))
	dept.Name = "Surgery"
	resolver := mapResolver{dept.Reference(): dept}

	loc := newBean(t, domain.ArchetypeLocation, resolver)
	loc.SetClock(func() time.Time { return now })

	_, err := loc.AddTarget("departments", domain.ArchetypeLocationDeptRel, dept.Reference())
	require.NoError(t, err)

	got, err := loc.Targets(context.Background(), "departments", domain.ArchetypeDepartment)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Surgery", got[0].Name)

	got, err = loc.Targets(context.Background(), "departments", "party.*")
	require.NoError(t, err)
	assert.Empty(t, got)

	first, err := loc.Target(context.Background(), "departments", "")
	require.NoError(t, err)
	assert.Equal(t, dept.ID, first.ID)

	now = now.Add(time.Hour)
	ended, err := loc.RemoveTarget("departments", dept.Reference())
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, now, *ended[0].To)

	refs, err := loc.TargetRefs("departments", now)
	require.NoError(t, err)
	assert.Empty(t, refs)

	refs, err = loc.TargetRefs("departments", now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []domain.Reference{dept.Reference()}, refs)
}

const kennelArchetypes = `
archetypes:
  - id: entity.kennel.1.0
    nodes:
      - {name: name, type: string}
      - {name: active, type: bool, default: "true"}
      - name: vet
        type: relationships
        max: 1
        relationships: [entityRelationship.kennelVet]
`

func TestAddTarget_ReplaceSingleLink(t *testing.T) {
	reg, err := archetype.LoadFromFS(fstest.MapFS{"kennel.yaml": {Data: []byte(kennelArchetypes)}}, "*.yaml")
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	kennel := domain.NewObject(domain.MustArchetypeID("entity.kennel"))
	kennel.Name = "Block A"
	b, err := New(kennel, reg, nil)
	require.NoError(t, err)
	b.SetClock(func() time.Time { return now })

	first := domain.ReferenceOf(domain.ArchetypeEmployee, uuid.New())
	second := domain.ReferenceOf(domain.ArchetypeEmployee, uuid.New())

	rel1, err := b.AddTarget("vet", "entityRelationship.kennelVet", first)
	require.NoError(t, err)
	_, err = b.AddTarget("vet", "entityRelationship.kennelVet", second)
	assert.True(t, apperr.IsCode(err, apperr.CodeRelationshipInvalid), "only one active link")

	now = now.Add(time.Hour)
	ended, err := b.RemoveTarget("vet", first)
	require.NoError(t, err)
	require.Len(t, ended, 1)

	rel2, err := b.AddTarget("vet", "entityRelationship.kennelVet", second)
	require.NoError(t, err)
	assert.Greater(t, rel2.Sequence, rel1.Sequence)
	assert.Len(t, kennel.Relationships, 2)
	assert.NoError(t, b.Validate(), "ended links do not count towards max")

	refs, err := b.TargetRefs("vet", now)
	require.NoError(t, err)
	assert.Equal(t, []domain.Reference{second}, refs)
}

func TestAddTarget_SequenceAfterRemoval(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	loc := newBean(t, domain.ArchetypeLocation, nil)
	loc.SetClock(func() time.Time { return now })

	a := domain.ReferenceOf(domain.ArchetypeDepartment, uuid.New())
	c := domain.ReferenceOf(domain.ArchetypeDepartment, uuid.New())
	d := domain.ReferenceOf(domain.ArchetypeDepartment, uuid.New())
	_, err := loc.AddTarget("departments", domain.ArchetypeLocationDeptRel, a)
	require.NoError(t, err)
	relC, err := loc.AddTarget("departments", domain.ArchetypeLocationDeptRel, c)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = loc.RemoveTarget("departments", a)
	require.NoError(t, err)
	relD, err := loc.AddTarget("departments", domain.ArchetypeLocationDeptRel, d)
	require.NoError(t, err)
	assert.Greater(t, relD.Sequence, relC.Sequence)

	refs, err := loc.TargetRefs("departments", now)
	require.NoError(t, err)
	assert.Equal(t, []domain.Reference{c, d}, refs)
}

func TestTargets_DanglingReference(t *testing.T) {
	loc := newBean(t, domain.ArchetypeLocation, mapResolver{})
	_, err := loc.AddTarget("departments", domain.ArchetypeLocationDeptRel, domain.ReferenceOf(domain.ArchetypeDepartment, uuid.New()))
	require.NoError(t, err)

	_, err = loc.Targets(context.Background(), "departments", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTargets_NoResolver(t *testing.T) {
	loc := newBean(t, domain.ArchetypeLocation, nil)
	_, err := loc.Targets(context.Background(), "departments", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeNoResolver))
}

func TestValidate(t *testing.T) {
	b := newBean(t, domain.ArchetypeDepartment, nil)
	assert.True(t, apperr.IsCode(b.Validate(), apperr.CodeValidationFailed))

	require.NoError(t, b.Set("name", domain.StringValue("Surgery")))
	assert.NoError(t, b.Validate())
}
