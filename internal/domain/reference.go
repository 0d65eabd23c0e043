package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidReference = errors.New("invalid object reference")

// Reference points at a persisted object without holding it. The namespace is the
// archetype short name of the target (e.g. "party.patientpet") and the id its
// object id. References are values: two references are equal when both parts are.
type Reference struct {
	namespace string
	id        string
}

// NewReference builds a reference from its parts.
func NewReference(namespace, id string) Reference {
	return Reference{namespace: namespace, id: id}
}

// ReferenceOf returns the reference for an object id in the given archetype.
func ReferenceOf(shortName string, id uuid.UUID) Reference {
	return Reference{namespace: shortName, id: id.String()}
}

// ParseReference parses the "namespace:id" text form.
func ParseReference(s string) (Reference, error) {
	ns, id, ok := strings.Cut(s, ":")
	if !ok || ns == "" || id == "" {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	return Reference{namespace: ns, id: id}, nil
}

func (r Reference) Namespace() string { return r.namespace }

func (r Reference) ID() string { return r.id }

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool { return r.namespace == "" && r.id == "" }

func (r Reference) Equal(o Reference) bool { return r == o }

// UUID parses the id part. Objects persisted by this service always carry uuid ids.
func (r Reference) UUID() (uuid.UUID, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id %q is not a uuid", ErrInvalidReference, r.id)
	}
	return id, nil
}

func (r Reference) String() string {
	if r.IsZero() {
		return ""
	}
	return r.namespace + ":" + r.id
}

func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reference) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = Reference{}
		return nil
	}
	ref, err := ParseReference(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
