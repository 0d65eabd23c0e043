package archetype

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load("")
	require.NoError(t, err)
	return r
}

func validPatient() *domain.Object {
	o := domain.NewObject(domain.MustArchetypeID(domain.ArchetypePatient))
	o.Name = "Rex"
	o.Details.Set("species", domain.StringValue("CANINE"))
	return o
}

func failures(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	out := map[string]string{}
	for _, f := range verr.Failures {
		out[f.Node] = f.Message
	}
	return out
}

func TestValidate_ValidObject(t *testing.T) {
	r := loadRegistry(t)
	o := validPatient()
	require.NoError(t, r.ApplyDefaults(o))
	assert.NoError(t, r.Validate(o))
}

func TestValidate_Required(t *testing.T) {
	r := loadRegistry(t)
	o := domain.NewObject(domain.MustArchetypeID(domain.ArchetypePatient))

	f := failures(t, r.Validate(o))
	assert.Contains(t, f, "name")
	assert.Contains(t, f, "species")
}

func TestValidate_Assertions(t *testing.T) {
	r := loadRegistry(t)
	tests := []struct {
		name  string
		node  string
		value domain.Value
	}{
		{"lookup", "species", domain.StringValue("DRAGON")},
		{"regex", "microchip", domain.StringValue("12345")},
		{"range", "weight", domain.DecimalValue(-1)},
		{"kind", "weight", domain.StringValue("heavy")},
		{"unknown node", "colour", domain.StringValue("red")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validPatient()
			o.Details.Set(tt.node, tt.value)
			f := failures(t, r.Validate(o))
			assert.Contains(t, f, tt.node)
		})
	}
}

func TestValidate_UsesAssertionErrorMessage(t *testing.T) {
	r := loadRegistry(t)
	o := validPatient()
	o.Details.Set("microchip", domain.StringValue("abc"))

	f := failures(t, r.Validate(o))
	assert.Equal(t, "microchip numbers are 15 digits", f["microchip"])
}

func TestValidate_StringLength(t *testing.T) {
	r := loadRegistry(t)
	o := domain.NewObject(domain.MustArchetypeID(domain.ArchetypeDepartment))
	o.Name = "This department name is far too long to fit in fifty characters"

	f := failures(t, r.Validate(o))
	assert.Contains(t, f["name"], "at most 50")
}

func TestValidate_ArchetypeRange(t *testing.T) {
	r := loadRegistry(t)
	customer := domain.NewObject(domain.MustArchetypeID(domain.ArchetypeCustomer))
	customer.Name = "Smith"
	customer.Details.Set("firstName", domain.StringValue("Jane"))
	customer.Details.Set("lastName", domain.StringValue("Smith"))

	customer.Relationships = []domain.Relationship{{
		ID:        uuid.New(),
		Archetype: domain.MustArchetypeID(domain.ArchetypePatientOwner),
		Source:    customer.Reference(),
		Target:    domain.ReferenceOf(domain.ArchetypePatient, uuid.New()),
	}}
	assert.NoError(t, r.Validate(customer))

	customer.Relationships[0].Target = domain.ReferenceOf(domain.ArchetypeDepartment, uuid.New())
	f := failures(t, r.Validate(customer))
	assert.Contains(t, f, "patients")
}

func TestValidateAt_EndedRelationshipsIgnored(t *testing.T) {
	doc := `
archetypes:
  - id: entity.kennel.1.0
    nodes:
      - {name: name, type: string}
      - {name: active, type: bool}
      - name: vet
        type: relationships
        max: 1
        relationships: [entityRelationship.kennelVet]
`
	r, err := LoadFromFS(fstest.MapFS{"kennel.yaml": {Data: []byte(doc)}}, "*.yaml")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	kennel := domain.NewObject(domain.MustArchetypeID("entity.kennel"))
	link := func(from time.Time, to *time.Time) domain.Relationship {
		return domain.Relationship{
			ID:           uuid.New(),
			Archetype:    domain.MustArchetypeID("entityRelationship.kennelVet"),
			Source:       kennel.Reference(),
			Target:       domain.ReferenceOf(domain.ArchetypeEmployee, uuid.New()),
			ActivePeriod: domain.ActivePeriod{From: &from, To: to},
		}
	}
	kennel.Relationships = []domain.Relationship{link(earlier, &now), link(now, nil)}
	assert.NoError(t, r.ValidateAt(kennel, now))

	kennel.Relationships = append(kennel.Relationships, link(now, nil))
	f := failures(t, r.ValidateAt(kennel, now))
	assert.Contains(t, f["vet"], "at most 1")
}

func TestValidate_ContactRange(t *testing.T) {
	r := loadRegistry(t)
	customer := domain.NewObject(domain.MustArchetypeID(domain.ArchetypeCustomer))
	customer.Name = "Smith"
	customer.Details.Set("firstName", domain.StringValue("Jane"))
	customer.Details.Set("lastName", domain.StringValue("Smith"))
	customer.Contacts = []domain.Contact{{ID: uuid.New(), Archetype: domain.MustArchetypeID("contact.fax")}}

	f := failures(t, r.Validate(customer))
	assert.Contains(t, f, "contacts")
}

func TestApplyDefaults(t *testing.T) {
	r := loadRegistry(t)
	o := validPatient()
	o.Details.Set("sex", domain.StringValue("FEMALE"))
	require.NoError(t, r.ApplyDefaults(o))

	sex, _ := o.Details.Get("sex")
	assert.Equal(t, "FEMALE", sex.String(), "explicit values win over defaults")
	desexed, _ := o.Details.Get("desexed")
	assert.Equal(t, domain.KindBool, desexed.Kind())
	assert.Equal(t, "false", desexed.String())
}
