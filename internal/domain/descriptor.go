package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrDuplicateProperty = errors.New("duplicate assertion property")
	ErrDuplicateNode     = errors.New("duplicate node")
)

// Collection node kinds. They are declared on nodes but never stored as a Value.
const (
	KindRelationships Kind = "relationships"
	KindContacts      Kind = "contacts"
)

// Base node names map onto Object fields instead of Attributes.
const (
	NodeName        = "name"
	NodeDescription = "description"
	NodeActive      = "active"
)

// NamedProperty is a single assertion parameter. List parameters (candidate
// lookups, archetype ranges) use Values.
type NamedProperty struct {
	Name   string
	Value  string
	Values []string
}

// Int parses Value as an integer.
func (p *NamedProperty) Int() (int64, error) {
	return strconv.ParseInt(p.Value, 10, 64)
}

// Float parses Value as a decimal.
func (p *NamedProperty) Float() (float64, error) {
	return strconv.ParseFloat(p.Value, 64)
}

// AssertionDescriptor describes one validation rule attached to a node. Index
// orders sibling assertions; it is not required to be unique.
type AssertionDescriptor struct {
	Name         string
	ErrorMessage string
	index        int
	properties   map[string]*NamedProperty
}

func NewAssertionDescriptor(name string) *AssertionDescriptor {
	return &AssertionDescriptor{Name: name, properties: make(map[string]*NamedProperty)}
}

func (a *AssertionDescriptor) Index() int { return a.index }

func (a *AssertionDescriptor) SetIndex(i int) { a.index = i }

// Property returns the property named name.
func (a *AssertionDescriptor) Property(name string) (*NamedProperty, bool) {
	p, ok := a.properties[name]
	return p, ok
}

// AddProperty adds p. A property with the same name must be removed first;
// use SetProperty to overwrite.
func (a *AssertionDescriptor) AddProperty(p *NamedProperty) error {
	if a.properties == nil {
		a.properties = make(map[string]*NamedProperty)
	}
	if _, ok := a.properties[p.Name]; ok {
		return fmt.Errorf("%w: %q on assertion %q", ErrDuplicateProperty, p.Name, a.Name)
	}
	a.properties[p.Name] = p
	return nil
}

// SetProperty adds p, replacing any property with the same name.
func (a *AssertionDescriptor) SetProperty(p *NamedProperty) {
	if a.properties == nil {
		a.properties = make(map[string]*NamedProperty)
	}
	a.properties[p.Name] = p
}

// RemoveProperty removes p if it is the property registered under its name.
func (a *AssertionDescriptor) RemoveProperty(p *NamedProperty) {
	if cur, ok := a.properties[p.Name]; ok && cur == p {
		delete(a.properties, p.Name)
	}
}

func (a *AssertionDescriptor) RemovePropertyByName(name string) {
	delete(a.properties, name)
}

// Properties returns the properties sorted by name.
func (a *AssertionDescriptor) Properties() []*NamedProperty {
	out := make([]*NamedProperty, 0, len(a.properties))
	for _, p := range a.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unbounded is the max cardinality of collection nodes without a limit.
const Unbounded = -1

// NodeDescriptor declares one named property slot of an archetype.
type NodeDescriptor struct {
	Name           string
	DisplayName    string
	Kind           Kind
	MinCardinality int
	MaxCardinality int
	Default        string
	ReadOnly       bool
	Hidden         bool
	// Relationships lists the relationship archetypes (short name patterns)
	// collected by a relationships node.
	Relationships []string
	assertions    []*AssertionDescriptor
}

func (n *NodeDescriptor) IsCollection() bool {
	return n.Kind == KindRelationships || n.Kind == KindContacts
}

func (n *NodeDescriptor) IsRequired() bool { return n.MinCardinality > 0 }

// AddAssertion appends a and keeps assertions ordered by index.
func (n *NodeDescriptor) AddAssertion(a *AssertionDescriptor) {
	n.assertions = append(n.assertions, a)
	sort.SliceStable(n.assertions, func(i, j int) bool {
		return n.assertions[i].index < n.assertions[j].index
	})
}

func (n *NodeDescriptor) Assertions() []*AssertionDescriptor {
	return n.assertions
}

func (n *NodeDescriptor) Assertion(name string) (*AssertionDescriptor, bool) {
	for _, a := range n.assertions {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// ArchetypeDescriptor is the schema of an archetype.
type ArchetypeDescriptor struct {
	ID          ArchetypeID
	DisplayName string
	// UniqueName requires object names of this archetype to be unique per practice.
	UniqueName bool
	nodes      []*NodeDescriptor
	byName     map[string]*NodeDescriptor
}

func NewArchetypeDescriptor(id ArchetypeID, displayName string) *ArchetypeDescriptor {
	return &ArchetypeDescriptor{ID: id, DisplayName: displayName, byName: make(map[string]*NodeDescriptor)}
}

func (d *ArchetypeDescriptor) ShortName() string { return d.ID.ShortName() }

// AddNode appends n. Node names are unique within an archetype.
func (d *ArchetypeDescriptor) AddNode(n *NodeDescriptor) error {
	if d.byName == nil {
		d.byName = make(map[string]*NodeDescriptor)
	}
	if _, ok := d.byName[n.Name]; ok {
		return fmt.Errorf("%w: %q in %s", ErrDuplicateNode, n.Name, d.ID)
	}
	d.nodes = append(d.nodes, n)
	d.byName[n.Name] = n
	return nil
}

func (d *ArchetypeDescriptor) Node(name string) (*NodeDescriptor, bool) {
	n, ok := d.byName[name]
	return n, ok
}

// Nodes returns the nodes in declaration order.
func (d *ArchetypeDescriptor) Nodes() []*NodeDescriptor {
	return d.nodes
}
