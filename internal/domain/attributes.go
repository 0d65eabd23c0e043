package domain

import "sort"

// Attributes holds the archetype-specific node values of an object that have no
// fixed struct field. It is persisted as JSONB.
type Attributes map[string]Value

func (a Attributes) Get(name string) (Value, bool) {
	v, ok := a[name]
	return v, ok
}

// Set stores v under name; setting an absent value deletes the entry.
func (a Attributes) Set(name string, v Value) {
	if v.IsNone() {
		delete(a, name)
		return
	}
	a[name] = v
}

func (a Attributes) Delete(name string) { delete(a, name) }

// Names returns the stored names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
