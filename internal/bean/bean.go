// Package bean provides node-based access to archetype objects. Callers ask for
// nodes by name; the bean consults the object's descriptor to find, coerce and
// validate the underlying value.
package bean

import (
	"context"
	"sort"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
)

// Archetypes supplies descriptors and validation.
type Archetypes interface {
	GetByID(id domain.ArchetypeID) (*domain.ArchetypeDescriptor, error)
	ValidateAt(o *domain.Object, now time.Time) error
}

type Bean struct {
	obj       *domain.Object
	desc      *domain.ArchetypeDescriptor
	archetype Archetypes
	resolver  domain.Resolver
	now       func() time.Time
}

// New wraps o. The resolver may be nil when no relationship traversal is needed.
func New(o *domain.Object, archetypes Archetypes, resolver domain.Resolver) (*Bean, error) {
	d, err := archetypes.GetByID(o.Archetype)
	if err != nil {
		return nil, err
	}
	if o.Details == nil {
		o.Details = domain.Attributes{}
	}
	return &Bean{obj: o, desc: d, archetype: archetypes, resolver: resolver, now: time.Now}, nil
}

// SetClock replaces the time source used for relationship activity.
func (b *Bean) SetClock(now func() time.Time) { b.now = now }

func (b *Bean) Object() *domain.Object                  { return b.obj }
func (b *Bean) Descriptor() *domain.ArchetypeDescriptor { return b.desc }
func (b *Bean) Ref() domain.Reference                   { return b.obj.Reference() }

// IsA reports whether the wrapped object matches any short name pattern.
func (b *Bean) IsA(patterns ...string) bool { return b.obj.IsA(patterns...) }

// Node returns the descriptor of a node. Unknown nodes are configuration errors.
func (b *Bean) Node(name string) (*domain.NodeDescriptor, error) {
	n, ok := b.desc.Node(name)
	if !ok {
		return nil, apperr.New(apperr.CodeNodeNotFound, "Archetype", b.desc.ShortName(), "Node", name)
	}
	return n, nil
}

// HasNode reports whether the archetype declares name.
func (b *Bean) HasNode(name string) bool {
	_, ok := b.desc.Node(name)
	return ok
}

func (b *Bean) scalarNode(name string) (*domain.NodeDescriptor, error) {
	n, err := b.Node(name)
	if err != nil {
		return nil, err
	}
	if n.IsCollection() {
		return nil, apperr.New(apperr.CodeNodeInvalidValue, "Node", name, "Reason", "collection nodes have no single value")
	}
	return n, nil
}

// Get returns the value of a scalar node. Unset nodes return an absent Value.
func (b *Bean) Get(name string) (domain.Value, error) {
	if _, err := b.scalarNode(name); err != nil {
		return domain.Value{}, err
	}
	switch name {
	case domain.NodeName:
		return optString(b.obj.Name), nil
	case domain.NodeDescription:
		return optString(b.obj.Description), nil
	case domain.NodeActive:
		return domain.BoolValue(b.obj.Active), nil
	}
	v, _ := b.obj.Details.Get(name)
	return v, nil
}

func optString(s string) domain.Value {
	if s == "" {
		return domain.Value{}
	}
	return domain.StringValue(s)
}

func (b *Bean) GetString(name string) (string, error) {
	v, err := b.typed(name, domain.KindString)
	if err != nil || v.IsNone() {
		return "", err
	}
	return v.AsString()
}

func (b *Bean) GetInt(name string) (int64, error) {
	v, err := b.typed(name, domain.KindInt)
	if err != nil || v.IsNone() {
		return 0, err
	}
	return v.AsInt()
}

func (b *Bean) GetDecimal(name string) (float64, error) {
	v, err := b.typed(name, domain.KindDecimal)
	if err != nil || v.IsNone() {
		return 0, err
	}
	return v.AsDecimal()
}

func (b *Bean) GetBool(name string) (bool, error) {
	v, err := b.typed(name, domain.KindBool)
	if err != nil || v.IsNone() {
		return false, err
	}
	return v.AsBool()
}

func (b *Bean) GetTime(name string) (time.Time, error) {
	v, err := b.typed(name, domain.KindTime)
	if err != nil || v.IsNone() {
		return time.Time{}, err
	}
	return v.AsTime()
}

func (b *Bean) GetReference(name string) (domain.Reference, error) {
	v, err := b.typed(name, domain.KindReference)
	if err != nil || v.IsNone() {
		return domain.Reference{}, err
	}
	return v.AsReference()
}

func (b *Bean) typed(name string, kind domain.Kind) (domain.Value, error) {
	v, err := b.Get(name)
	if err != nil {
		return v, err
	}
	c, err := v.Coerce(kind)
	if err != nil {
		return domain.Value{}, apperr.Wrap(err, apperr.CodeNodeInvalidValue, "Node", name, "Reason", err.Error())
	}
	return c, nil
}

// Set stores v in a scalar node after coercing it to the node's kind. Read-only
// nodes can only be changed before the object is first saved; writing back the
// current value is always allowed.
func (b *Bean) Set(name string, v domain.Value) error {
	n, err := b.scalarNode(name)
	if err != nil {
		return err
	}
	c, err := v.Coerce(n.Kind)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeNodeInvalidValue, "Node", name, "Reason", err.Error())
	}
	if n.ReadOnly && b.obj.Version > 0 {
		if cur, err := b.Get(name); err == nil && cur.Equal(c) {
			return nil
		}
		return apperr.New(apperr.CodeNodeReadOnly, "Archetype", b.desc.ShortName(), "Node", name)
	}
	switch name {
	case domain.NodeName:
		b.obj.Name = c.String()
	case domain.NodeDescription:
		b.obj.Description = c.String()
	case domain.NodeActive:
		if c.IsNone() {
			return apperr.New(apperr.CodeNodeInvalidValue, "Node", name, "Reason", "active cannot be unset")
		}
		active, _ := c.AsBool()
		b.obj.Active = active
	default:
		b.obj.Details.Set(name, c)
	}
	return nil
}

// SetValues sets several nodes from decoded JSON scalars, in name order. The
// first failure stops the update.
func (b *Bean) SetValues(values map[string]any) error {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := domain.ValueFromAny(values[name])
		if err != nil {
			return apperr.Wrap(err, apperr.CodeNodeInvalidValue, "Node", name, "Reason", err.Error())
		}
		if err := b.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Values returns every set scalar node as plain JSON values.
func (b *Bean) Values() map[string]any {
	out := make(map[string]any)
	for _, n := range b.desc.Nodes() {
		if n.IsCollection() {
			continue
		}
		v, err := b.Get(n.Name)
		if err != nil || v.IsNone() {
			continue
		}
		out[n.Name] = v.Plain()
	}
	return out
}

// Validate checks the wrapped object against its archetype.
func (b *Bean) Validate() error {
	return b.archetype.ValidateAt(b.obj, b.now())
}

func (b *Bean) relationshipNode(name string) (*domain.NodeDescriptor, error) {
	n, err := b.Node(name)
	if err != nil {
		return nil, err
	}
	if n.Kind != domain.KindRelationships {
		return nil, apperr.New(apperr.CodeNodeNotCollection, "Archetype", b.desc.ShortName(), "Node", name)
	}
	return n, nil
}

// Relationships returns the node's relationships active at t, ordered by sequence.
func (b *Bean) Relationships(name string, at time.Time) ([]domain.Relationship, error) {
	n, err := b.relationshipNode(name)
	if err != nil {
		return nil, err
	}
	var out []domain.Relationship
	for _, r := range b.obj.Relationships {
		if domain.MatchAny(n.Relationships, r.Archetype.ShortName()) && r.ActiveAt(at) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// TargetRefs returns the far ends of the node's relationships active at t.
func (b *Bean) TargetRefs(name string, at time.Time) ([]domain.Reference, error) {
	rels, err := b.Relationships(name, at)
	if err != nil {
		return nil, err
	}
	self := b.Ref()
	out := make([]domain.Reference, len(rels))
	for i, r := range rels {
		out[i] = r.OtherEnd(self)
	}
	return out, nil
}

// Targets resolves the node's currently active targets whose archetype matches
// targetType ("" or "*" for any). References are filtered before resolution.
func (b *Bean) Targets(ctx context.Context, name, targetType string) ([]*domain.Object, error) {
	refs, err := b.TargetRefs(name, b.now())
	if err != nil {
		return nil, err
	}
	if b.resolver == nil {
		return nil, apperr.New(apperr.CodeNoResolver, "Namespace", targetType)
	}
	var out []*domain.Object
	for _, ref := range refs {
		if targetType != "" && !domain.MatchShortName(targetType, ref.Namespace()) {
			continue
		}
		o, err := b.resolver.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Target returns the first active target matching targetType, or nil.
func (b *Bean) Target(ctx context.Context, name, targetType string) (*domain.Object, error) {
	all, err := b.Targets(ctx, name, targetType)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// AddTarget links the object to target through a relationship of archetype
// relArchetype. Adding an already active link returns the existing relationship.
func (b *Bean) AddTarget(name, relArchetype string, target domain.Reference) (domain.Relationship, error) {
	n, err := b.relationshipNode(name)
	if err != nil {
		return domain.Relationship{}, err
	}
	if n.ReadOnly {
		return domain.Relationship{}, apperr.New(apperr.CodeNodeReadOnly, "Archetype", b.desc.ShortName(), "Node", name)
	}
	relID, err := domain.ParseArchetypeID(relArchetype)
	if err != nil || !domain.MatchAny(n.Relationships, relID.ShortName()) {
		return domain.Relationship{}, apperr.New(apperr.CodeRelationshipInvalid, "Relationship", relArchetype, "Node", name)
	}
	if target.IsZero() {
		return domain.Relationship{}, apperr.New(apperr.CodeReferenceInvalid, "Reference", "")
	}
	if a, ok := n.Assertion("archetypeRange"); ok {
		if p, ok := a.Property("shortNames"); ok && !domain.MatchAny(p.Values, target.Namespace()) {
			return domain.Relationship{}, apperr.New(apperr.CodeRelationshipInvalid, "Relationship", relArchetype+" -> "+target.Namespace(), "Node", name)
		}
	}

	now := b.now()
	existing, _ := b.Relationships(name, now)
	self := b.Ref()
	for _, r := range existing {
		if r.Archetype.ShortName() == relID.ShortName() && r.OtherEnd(self) == target {
			return r, nil
		}
	}
	if n.MaxCardinality != domain.Unbounded && len(existing) >= n.MaxCardinality {
		return domain.Relationship{}, apperr.New(apperr.CodeRelationshipInvalid, "Relationship", relArchetype, "Node", name)
	}

	seq := 0
	for _, r := range b.obj.Relationships {
		if domain.MatchAny(n.Relationships, r.Archetype.ShortName()) && r.Sequence > seq {
			seq = r.Sequence
		}
	}
	from := now.UTC()
	rel := domain.Relationship{
		ID:           uuid.New(),
		Archetype:    relID,
		Source:       self,
		Target:       target,
		Sequence:     seq + 1,
		ActivePeriod: domain.ActivePeriod{From: &from},
	}
	b.obj.Relationships = append(b.obj.Relationships, rel)
	return rel, nil
}

// RemoveTarget ends every active relationship of the node pointing at target
// and returns the ended relationships.
func (b *Bean) RemoveTarget(name string, target domain.Reference) ([]domain.Relationship, error) {
	n, err := b.relationshipNode(name)
	if err != nil {
		return nil, err
	}
	if n.ReadOnly {
		return nil, apperr.New(apperr.CodeNodeReadOnly, "Archetype", b.desc.ShortName(), "Node", name)
	}
	now := b.now().UTC()
	self := b.Ref()
	var ended []domain.Relationship
	for i := range b.obj.Relationships {
		r := &b.obj.Relationships[i]
		if !domain.MatchAny(n.Relationships, r.Archetype.ShortName()) || !r.ActiveAt(now) {
			continue
		}
		if r.OtherEnd(self) == target {
			to := now
			r.To = &to
			ended = append(ended, *r)
		}
	}
	return ended, nil
}
