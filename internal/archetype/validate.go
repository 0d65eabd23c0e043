package archetype

import (
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
)

// Assertion names understood by the validator. Other assertion names are kept
// on the descriptor but not evaluated.
const (
	AssertRegularExpression = "regularExpression"
	AssertNumericRange      = "numericRange"
	AssertStringLength      = "stringLength"
	AssertLookupLocal       = "lookup.local"
	AssertArchetypeRange    = "archetypeRange"
)

// NodeFailure is a single validation failure.
type NodeFailure struct {
	Node    string `json:"node"`
	Message string `json:"message"`
}

func (f NodeFailure) String() string { return f.Node + ": " + f.Message }

// ValidationError lists every failure found for one object.
type ValidationError struct {
	Archetype string
	Failures  []NodeFailure
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s: %s", e.Archetype, strings.Join(parts, "; "))
}

// NodeValue returns the value of a scalar node, reading base nodes from the
// object's fields and everything else from Details.
func NodeValue(o *domain.Object, name string) domain.Value {
	switch name {
	case domain.NodeName:
		if o.Name == "" {
			return domain.Value{}
		}
		return domain.StringValue(o.Name)
	case domain.NodeDescription:
		if o.Description == "" {
			return domain.Value{}
		}
		return domain.StringValue(o.Description)
	case domain.NodeActive:
		return domain.BoolValue(o.Active)
	}
	v, _ := o.Details.Get(name)
	return v
}

// Validate checks o against its descriptor as of now.
func (r *Registry) Validate(o *domain.Object) error {
	return r.ValidateAt(o, time.Now())
}

// ValidateAt checks o against its descriptor. Relationships that are not active
// at now do not count towards cardinality. All failures are reported together
// as a VALIDATION_FAILED error wrapping a *ValidationError.
func (r *Registry) ValidateAt(o *domain.Object, now time.Time) error {
	d, err := r.GetByID(o.Archetype)
	if err != nil {
		return err
	}
	var failures []NodeFailure
	fail := func(node, format string, args ...any) {
		failures = append(failures, NodeFailure{Node: node, Message: fmt.Sprintf(format, args...)})
	}

	for _, name := range o.Details.Names() {
		n, ok := d.Node(name)
		if !ok {
			fail(name, "is not a node of %s", d.ShortName())
			continue
		}
		if n.IsCollection() {
			fail(name, "collection nodes cannot hold values")
		}
	}

	for _, n := range d.Nodes() {
		switch n.Kind {
		case domain.KindRelationships:
			var targets []string
			self := o.Reference()
			for _, rel := range o.Relationships {
				if rel.ActiveAt(now) && domain.MatchAny(n.Relationships, rel.Archetype.ShortName()) {
					targets = append(targets, rel.OtherEnd(self).Namespace())
				}
			}
			r.checkCollection(n, targets, fail)
		case domain.KindContacts:
			var kinds []string
			for _, c := range o.Contacts {
				kinds = append(kinds, c.Archetype.ShortName())
			}
			r.checkCollection(n, kinds, fail)
		default:
			v := NodeValue(o, n.Name)
			if v.IsNone() {
				if n.IsRequired() {
					fail(n.Name, "is required")
				}
				continue
			}
			if v.Kind() != n.Kind {
				fail(n.Name, "must be %s, not %s", n.Kind, v.Kind())
				continue
			}
			for _, a := range n.Assertions() {
				if msg := r.checkValue(a, v); msg != "" {
					if a.ErrorMessage != "" {
						msg = a.ErrorMessage
					}
					fail(n.Name, "%s", msg)
				}
			}
		}
	}

	if len(failures) == 0 {
		return nil
	}
	verr := &ValidationError{Archetype: d.ShortName(), Failures: failures}
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = f.String()
	}
	return apperr.Wrap(verr, apperr.CodeValidationFailed,
		"Archetype", d.ShortName(),
		"Errors", strings.Join(parts, "; "))
}

// checkCollection applies cardinality and archetypeRange to the short names of
// a collection's members.
func (r *Registry) checkCollection(n *domain.NodeDescriptor, members []string, fail func(string, string, ...any)) {
	if len(members) < n.MinCardinality {
		fail(n.Name, "requires at least %d entries", n.MinCardinality)
	}
	if n.MaxCardinality != domain.Unbounded && len(members) > n.MaxCardinality {
		fail(n.Name, "allows at most %d entries", n.MaxCardinality)
	}
	a, ok := n.Assertion(AssertArchetypeRange)
	if !ok {
		return
	}
	p, ok := a.Property("shortNames")
	if !ok {
		return
	}
	for _, m := range members {
		if !domain.MatchAny(p.Values, m) {
			msg := fmt.Sprintf("%s is not one of %s", m, strings.Join(p.Values, ", "))
			if a.ErrorMessage != "" {
				msg = a.ErrorMessage
			}
			fail(n.Name, "%s", msg)
		}
	}
}

// checkValue evaluates one assertion and returns a failure message, or "".
func (r *Registry) checkValue(a *domain.AssertionDescriptor, v domain.Value) string {
	switch a.Name {
	case AssertRegularExpression:
		re := r.patterns[a]
		if re == nil || v.Kind() != domain.KindString {
			return ""
		}
		if !re.MatchString(v.String()) {
			return fmt.Sprintf("%q does not match %s", v.String(), re.String())
		}
	case AssertNumericRange:
		f, err := v.AsDecimal()
		if err != nil {
			return ""
		}
		if p, ok := a.Property("min"); ok {
			if lo, err := p.Float(); err == nil && f < lo {
				return fmt.Sprintf("must be at least %s", p.Value)
			}
		}
		if p, ok := a.Property("max"); ok {
			if hi, err := p.Float(); err == nil && f > hi {
				return fmt.Sprintf("must be at most %s", p.Value)
			}
		}
	case AssertStringLength:
		if v.Kind() != domain.KindString {
			return ""
		}
		if p, ok := a.Property("max"); ok {
			if limit, err := p.Int(); err == nil && int64(len([]rune(v.String()))) > limit {
				return fmt.Sprintf("must be at most %d characters", limit)
			}
		}
	case AssertLookupLocal:
		p, ok := a.Property("entries")
		if !ok {
			return ""
		}
		s := v.String()
		for _, e := range p.Values {
			if e == s {
				return ""
			}
		}
		return fmt.Sprintf("%q is not one of %s", s, strings.Join(p.Values, ", "))
	}
	return ""
}

// ApplyDefaults fills unset scalar nodes that declare a default.
func (r *Registry) ApplyDefaults(o *domain.Object) error {
	d, err := r.GetByID(o.Archetype)
	if err != nil {
		return err
	}
	for _, n := range d.Nodes() {
		if n.Default == "" || n.IsCollection() || n.Name == domain.NodeActive {
			continue
		}
		if !NodeValue(o, n.Name).IsNone() {
			continue
		}
		v, err := domain.StringValue(n.Default).Coerce(n.Kind)
		if err != nil {
			return err
		}
		switch n.Name {
		case domain.NodeName:
			o.Name = n.Default
		case domain.NodeDescription:
			o.Description = n.Default
		default:
			if o.Details == nil {
				o.Details = domain.Attributes{}
			}
			o.Details.Set(n.Name, v)
		}
	}
	return nil
}
