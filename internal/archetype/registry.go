// Package archetype loads archetype descriptors and validates objects against them.
package archetype

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed archetypes/*.yaml
var embeddedFS embed.FS

type fileYAML struct {
	Archetypes []archetypeYAML `yaml:"archetypes"`
}

type archetypeYAML struct {
	ID          string     `yaml:"id"`
	DisplayName string     `yaml:"displayName"`
	UniqueName  bool       `yaml:"uniqueName"`
	Nodes       []nodeYAML `yaml:"nodes"`
}

type nodeYAML struct {
	Name          string          `yaml:"name"`
	DisplayName   string          `yaml:"displayName"`
	Type          string          `yaml:"type"`
	Min           int             `yaml:"min"`
	Max           *int            `yaml:"max"`
	Default       string          `yaml:"default"`
	ReadOnly      bool            `yaml:"readOnly"`
	Hidden        bool            `yaml:"hidden"`
	Relationships []string        `yaml:"relationships"`
	Assertions    []assertionYAML `yaml:"assertions"`
}

type assertionYAML struct {
	Name         string         `yaml:"name"`
	Index        int            `yaml:"index"`
	ErrorMessage string         `yaml:"errorMessage"`
	Properties   []propertyYAML `yaml:"properties"`
}

type propertyYAML struct {
	Name   string   `yaml:"name"`
	Value  string   `yaml:"value"`
	Values []string `yaml:"values"`
}

// Registry holds every known archetype descriptor. It is built once by Load and
// not modified afterwards, so it is safe for concurrent use.
type Registry struct {
	byShortName map[string]*domain.ArchetypeDescriptor
	patterns    map[*domain.AssertionDescriptor]*regexp.Regexp
}

// Load reads the embedded archetypes, then any *.yaml files under dir. A file
// under dir may redefine an embedded archetype.
func Load(dir string) (*Registry, error) {
	r := newRegistry()
	if err := r.addFS(embeddedFS, "archetypes/*.yaml", false); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := r.addFS(os.DirFS(dir), "*.yaml", true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFromFS builds a registry from the *.yaml files matching glob in fsys.
func LoadFromFS(fsys fs.FS, glob string) (*Registry, error) {
	r := newRegistry()
	if err := r.addFS(fsys, glob, false); err != nil {
		return nil, err
	}
	return r, nil
}

func newRegistry() *Registry {
	return &Registry{
		byShortName: map[string]*domain.ArchetypeDescriptor{},
		patterns:    map[*domain.AssertionDescriptor]*regexp.Regexp{},
	}
}

func (r *Registry) addFS(fsys fs.FS, glob string, override bool) error {
	paths, err := fs.Glob(fsys, glob)
	if err != nil {
		return fmt.Errorf("glob archetypes: %w", err)
	}
	sort.Strings(paths)
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read archetypes %s: %w", p, err)
		}
		var file fileYAML
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse archetypes %s: %w", p, err)
		}
		for _, a := range file.Archetypes {
			d, err := r.build(a)
			if err != nil {
				return fmt.Errorf("archetypes %s: %w", p, err)
			}
			if _, exists := r.byShortName[d.ShortName()]; exists && !override {
				return fmt.Errorf("archetypes %s: %s defined twice", p, d.ShortName())
			}
			r.byShortName[d.ShortName()] = d
		}
	}
	return nil
}

func (r *Registry) build(a archetypeYAML) (*domain.ArchetypeDescriptor, error) {
	id, err := domain.ParseArchetypeID(a.ID)
	if err != nil {
		return nil, err
	}
	d := domain.NewArchetypeDescriptor(id, a.DisplayName)
	d.UniqueName = a.UniqueName
	for _, n := range a.Nodes {
		node, err := r.buildNode(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		if err := d.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, base := range []string{domain.NodeName, domain.NodeActive} {
		if _, ok := d.Node(base); !ok {
			return nil, fmt.Errorf("%s: missing base node %q", id, base)
		}
	}
	return d, nil
}

func (r *Registry) buildNode(n nodeYAML) (*domain.NodeDescriptor, error) {
	kind := domain.Kind(n.Type)
	if !kind.IsValid() && kind != domain.KindRelationships && kind != domain.KindContacts {
		return nil, fmt.Errorf("node %q: unknown type %q", n.Name, n.Type)
	}
	node := &domain.NodeDescriptor{
		Name:           n.Name,
		DisplayName:    n.DisplayName,
		Kind:           kind,
		MinCardinality: n.Min,
		MaxCardinality: 1,
		Default:        n.Default,
		ReadOnly:       n.ReadOnly,
		Hidden:         n.Hidden,
		Relationships:  n.Relationships,
	}
	if node.DisplayName == "" {
		node.DisplayName = n.Name
	}
	if node.IsCollection() {
		node.MaxCardinality = domain.Unbounded
	}
	if n.Max != nil {
		node.MaxCardinality = *n.Max
	}
	if kind == domain.KindRelationships && len(n.Relationships) == 0 {
		return nil, fmt.Errorf("node %q: relationships node without relationship archetypes", n.Name)
	}
	if n.Default != "" && kind.IsValid() {
		if _, err := domain.StringValue(n.Default).Coerce(kind); err != nil {
			return nil, fmt.Errorf("node %q: default: %w", n.Name, err)
		}
	}
	for _, ay := range n.Assertions {
		a := domain.NewAssertionDescriptor(ay.Name)
		a.ErrorMessage = ay.ErrorMessage
		a.SetIndex(ay.Index)
		for _, p := range ay.Properties {
			if err := a.AddProperty(&domain.NamedProperty{Name: p.Name, Value: p.Value, Values: p.Values}); err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
		}
		if a.Name == AssertRegularExpression {
			p, ok := a.Property("expression")
			if !ok {
				return nil, fmt.Errorf("node %q: %s without expression", n.Name, a.Name)
			}
			re, err := regexp.Compile(p.Value)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", n.Name, err)
			}
			r.patterns[a] = re
		}
		node.AddAssertion(a)
	}
	return node, nil
}

// Get returns the descriptor for a short name or full archetype id.
func (r *Registry) Get(name string) (*domain.ArchetypeDescriptor, error) {
	id, err := domain.ParseArchetypeID(name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInvalidArchetypeID, "ID", name)
	}
	return r.GetByID(id)
}

// GetByID returns the descriptor for id. Versions are not tracked separately;
// the registered version wins.
func (r *Registry) GetByID(id domain.ArchetypeID) (*domain.ArchetypeDescriptor, error) {
	d, ok := r.byShortName[id.ShortName()]
	if !ok {
		return nil, apperr.New(apperr.CodeArchetypeNotFound, "ShortName", id.ShortName())
	}
	return d, nil
}

// List returns the descriptors whose short name matches pattern, sorted by short name.
func (r *Registry) List(pattern string) []*domain.ArchetypeDescriptor {
	var out []*domain.ArchetypeDescriptor
	for name, d := range r.byShortName {
		if domain.MatchShortName(pattern, name) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName() < out[j].ShortName() })
	return out
}

// ShortNames returns every registered short name matching pattern.
func (r *Registry) ShortNames(pattern string) []string {
	ds := r.List(pattern)
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ShortName()
	}
	return out
}
