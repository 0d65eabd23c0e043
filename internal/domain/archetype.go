package domain

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrInvalidArchetypeID = errors.New("invalid archetype id")

const defaultArchetypeVersion = "1.0"

// ArchetypeID identifies the type of an object independently of its Go type.
// The text form is entityName.concept[.version], e.g. "party.customerperson.1.0".
type ArchetypeID struct {
	EntityName string
	Concept    string
	Version    string
}

// ParseArchetypeID accepts both full ids and short names. A missing version
// defaults to 1.0.
func ParseArchetypeID(s string) (ArchetypeID, error) {
	entity, rest, ok := strings.Cut(s, ".")
	if !ok || entity == "" || rest == "" {
		return ArchetypeID{}, fmt.Errorf("%w: %q", ErrInvalidArchetypeID, s)
	}
	concept, version, _ := strings.Cut(rest, ".")
	if concept == "" {
		return ArchetypeID{}, fmt.Errorf("%w: %q", ErrInvalidArchetypeID, s)
	}
	if version == "" {
		version = defaultArchetypeVersion
	}
	return ArchetypeID{EntityName: entity, Concept: concept, Version: version}, nil
}

// MustArchetypeID is ParseArchetypeID for package-level constants.
func MustArchetypeID(s string) ArchetypeID {
	id, err := ParseArchetypeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ShortName is the version-less name used as a reference namespace.
func (a ArchetypeID) ShortName() string {
	if a.EntityName == "" {
		return ""
	}
	return a.EntityName + "." + a.Concept
}

func (a ArchetypeID) String() string {
	if a.EntityName == "" {
		return ""
	}
	return a.ShortName() + "." + a.Version
}

func (a ArchetypeID) IsZero() bool { return a.EntityName == "" }

func (a ArchetypeID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ArchetypeID) UnmarshalText(b []byte) error {
	id, err := ParseArchetypeID(string(b))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// MatchShortName reports whether shortName matches pattern. Patterns may use
// '*' wildcards, e.g. "party.patient*" or "contact.*".
func MatchShortName(pattern, shortName string) bool {
	if pattern == "*" || pattern == shortName {
		return true
	}
	ok, err := path.Match(pattern, shortName)
	return err == nil && ok
}

// MatchAny reports whether shortName matches any of the patterns.
func MatchAny(patterns []string, shortName string) bool {
	for _, p := range patterns {
		if MatchShortName(p, shortName) {
			return true
		}
	}
	return false
}

// Archetype short names used by the service itself.
const (
	ArchetypePractice        = "party.organisationPractice"
	ArchetypeLocation        = "party.organisationLocation"
	ArchetypeDepartment      = "entity.department"
	ArchetypeCustomer        = "party.customerperson"
	ArchetypePatient         = "party.patientpet"
	ArchetypeEmployee        = "security.user"
	ArchetypePatientOwner    = "entityRelationship.patientOwner"
	ArchetypePracticeLocRel  = "entityRelationship.practiceLocation"
	ArchetypeLocationDeptRel = "entityRelationship.locationDepartment"
)
