package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivePeriod is an optional validity interval. Nil bounds are open.
type ActivePeriod struct {
	From *time.Time `json:"active_from,omitempty"`
	To   *time.Time `json:"active_to,omitempty"`
}

// ActiveAt reports whether t falls inside the period. The upper bound is exclusive.
func (p ActivePeriod) ActiveAt(t time.Time) bool {
	if p.From != nil && t.Before(*p.From) {
		return false
	}
	if p.To != nil && !t.Before(*p.To) {
		return false
	}
	return true
}

// Object is an archetype-driven domain object (customer, patient, practice,
// department, employee...). Fixed columns hold the base nodes; everything else
// lives in Details.
type Object struct {
	ID          uuid.UUID   `json:"id"`
	PracticeID  uuid.UUID   `json:"practice_id,omitempty"`
	Archetype   ArchetypeID `json:"archetype"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"active"`
	ActivePeriod
	Details       Attributes     `json:"details"`
	Contacts      []Contact      `json:"contacts,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
	Version       int64          `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewObject returns an active object of the given archetype with a fresh id.
func NewObject(archetype ArchetypeID) *Object {
	return &Object{
		ID:        uuid.New(),
		Archetype: archetype,
		Active:    true,
		Details:   Attributes{},
	}
}

// Reference returns the object's reference.
func (o *Object) Reference() Reference {
	return ReferenceOf(o.Archetype.ShortName(), o.ID)
}

// IsA reports whether the object's archetype matches any of the patterns.
func (o *Object) IsA(patterns ...string) bool {
	return MatchAny(patterns, o.Archetype.ShortName())
}

// Contact is a contact mechanism (address, phone, email) owned by an object.
type Contact struct {
	ID        uuid.UUID   `json:"id"`
	Archetype ArchetypeID `json:"archetype"`
	Purposes  []string    `json:"purposes,omitempty"`
	Details   Attributes  `json:"details"`
}

// HasPurpose reports whether the contact is tagged with purpose.
func (c Contact) HasPurpose(purpose string) bool {
	for _, p := range c.Purposes {
		if p == purpose {
			return true
		}
	}
	return false
}

// Relationship links a source object to a target object. The archetype names
// the kind of link, e.g. entityRelationship.patientOwner.
type Relationship struct {
	ID        uuid.UUID   `json:"id"`
	Archetype ArchetypeID `json:"archetype"`
	Source    Reference   `json:"source"`
	Target    Reference   `json:"target"`
	Sequence  int         `json:"sequence"`
	ActivePeriod
}

// Department is the JSON projection of an entity.department object.
type Department struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
}

// DepartmentFromObject projects o, which must be an entity.department.
func DepartmentFromObject(o *Object) Department {
	return Department{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Active:      o.Active,
	}
}

// OtherEnd returns the end of the relationship that is not self.
func (r Relationship) OtherEnd(self Reference) Reference {
	if r.Target == self {
		return r.Source
	}
	return r.Target
}
