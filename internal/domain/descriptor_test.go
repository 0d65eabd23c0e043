package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertionDescriptor_AddGetRemove(t *testing.T) {
	a := NewAssertionDescriptor("regularExpression")
	p := &NamedProperty{Name: "expression", Value: "^[0-9]+$"}

	require.NoError(t, a.AddProperty(p))
	got, ok := a.Property("expression")
	require.True(t, ok)
	assert.Same(t, p, got)

	a.RemovePropertyByName("expression")
	_, ok = a.Property("expression")
	assert.False(t, ok)
}

func TestAssertionDescriptor_AddDuplicateRejected(t *testing.T) {
	a := NewAssertionDescriptor("numericRange")
	require.NoError(t, a.AddProperty(&NamedProperty{Name: "min", Value: "0"}))

	err := a.AddProperty(&NamedProperty{Name: "min", Value: "5"})
	if !errors.Is(err, ErrDuplicateProperty) {
		t.Fatalf("expected ErrDuplicateProperty, got %v", err)
	}
	p, _ := a.Property("min")
	assert.Equal(t, "0", p.Value)

	a.SetProperty(&NamedProperty{Name: "min", Value: "5"})
	p, _ = a.Property("min")
	assert.Equal(t, "5", p.Value)
}

func TestAssertionDescriptor_RemovePropertyOnlyRemovesSameInstance(t *testing.T) {
	a := NewAssertionDescriptor("stringLength")
	registered := &NamedProperty{Name: "max", Value: "10"}
	require.NoError(t, a.AddProperty(registered))

	a.RemoveProperty(&NamedProperty{Name: "max", Value: "10"})
	_, ok := a.Property("max")
	assert.True(t, ok, "a different instance with the same name must not remove the property")

	a.RemoveProperty(registered)
	_, ok = a.Property("max")
	assert.False(t, ok)
}

func TestAssertionDescriptor_Index(t *testing.T) {
	a := NewAssertionDescriptor("lookup.local")
	for _, n := range []int{0, 3, -1, 42} {
		a.SetIndex(n)
		assert.Equal(t, n, a.Index())
	}
}

func TestAssertionDescriptor_PropertiesSortedByName(t *testing.T) {
	a := NewAssertionDescriptor("numericRange")
	a.SetProperty(&NamedProperty{Name: "max", Value: "9"})
	a.SetProperty(&NamedProperty{Name: "min", Value: "1"})
	a.SetProperty(&NamedProperty{Name: "inclusive", Value: "true"})

	var names []string
	for _, p := range a.Properties() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"inclusive", "max", "min"}, names)
}

func TestNodeDescriptor_AssertionsOrderedByIndex(t *testing.T) {
	n := &NodeDescriptor{Name: "code", Kind: KindString}
	second := NewAssertionDescriptor("stringLength")
	second.SetIndex(2)
	first := NewAssertionDescriptor("regularExpression")
	first.SetIndex(1)
	n.AddAssertion(second)
	n.AddAssertion(first)

	got := n.Assertions()
	require.Len(t, got, 2)
	assert.Equal(t, "regularExpression", got[0].Name)
	assert.Equal(t, "stringLength", got[1].Name)

	a, ok := n.Assertion("stringLength")
	require.True(t, ok)
	assert.Same(t, second, a)
}

func TestArchetypeDescriptor_NodesUnique(t *testing.T) {
	d := NewArchetypeDescriptor(MustArchetypeID("entity.department"), "Department")
	require.NoError(t, d.AddNode(&NodeDescriptor{Name: "name", Kind: KindString}))
	err := d.AddNode(&NodeDescriptor{Name: "name", Kind: KindString})
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, ok := d.Node("name")
	assert.True(t, ok)
	assert.Len(t, d.Nodes(), 1)
	assert.Equal(t, "entity.department", d.ShortName())
}

func TestNodeDescriptor_Flags(t *testing.T) {
	rel := &NodeDescriptor{Name: "patients", Kind: KindRelationships, MaxCardinality: Unbounded}
	assert.True(t, rel.IsCollection())
	assert.False(t, rel.IsRequired())

	name := &NodeDescriptor{Name: "name", Kind: KindString, MinCardinality: 1, MaxCardinality: 1}
	assert.False(t, name.IsCollection())
	assert.True(t, name.IsRequired())
}
