package handlers

import (
	"time"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/service"
	"github.com/google/uuid"
)

type objectView struct {
	ID            uuid.UUID             `json:"id"`
	Reference     domain.Reference      `json:"reference"`
	Archetype     domain.ArchetypeID    `json:"archetype"`
	Name          string                `json:"name"`
	Active        bool                  `json:"active"`
	ActiveFrom    *time.Time            `json:"active_from,omitempty"`
	ActiveTo      *time.Time            `json:"active_to,omitempty"`
	Nodes         map[string]any        `json:"nodes"`
	Contacts      []domain.Contact      `json:"contacts"`
	Relationships []domain.Relationship `json:"relationships"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// newObjectView renders o with its node values read through a bean.
func newObjectView(svc *service.ObjectService, o *domain.Object) (objectView, error) {
	b, err := svc.Bean(o)
	if err != nil {
		return objectView{}, err
	}
	v := objectView{
		ID:            o.ID,
		Reference:     o.Reference(),
		Archetype:     o.Archetype,
		Name:          o.Name,
		Active:        o.Active,
		ActiveFrom:    o.From,
		ActiveTo:      o.To,
		Nodes:         b.Values(),
		Contacts:      o.Contacts,
		Relationships: o.Relationships,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if v.Contacts == nil {
		v.Contacts = []domain.Contact{}
	}
	if v.Relationships == nil {
		v.Relationships = []domain.Relationship{}
	}
	return v, nil
}

func newObjectViews(svc *service.ObjectService, objects []*domain.Object) ([]objectView, error) {
	out := make([]objectView, 0, len(objects))
	for _, o := range objects {
		v, err := newObjectView(svc, o)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type propertyView struct {
	Name   string   `json:"name"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

type assertionView struct {
	Name         string         `json:"name"`
	Index        int            `json:"index"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Properties   []propertyView `json:"properties"`
}

type nodeView struct {
	Name          string          `json:"name"`
	DisplayName   string          `json:"display_name"`
	Type          domain.Kind     `json:"type"`
	Min           int             `json:"min"`
	Max           int             `json:"max"`
	Default       string          `json:"default,omitempty"`
	ReadOnly      bool            `json:"read_only"`
	Hidden        bool            `json:"hidden"`
	Relationships []string        `json:"relationships,omitempty"`
	Assertions    []assertionView `json:"assertions"`
}

type archetypeView struct {
	ID          domain.ArchetypeID `json:"id"`
	ShortName   string             `json:"short_name"`
	DisplayName string             `json:"display_name"`
	UniqueName  bool               `json:"unique_name"`
	Nodes       []nodeView         `json:"nodes"`
}

func newArchetypeView(d *domain.ArchetypeDescriptor) archetypeView {
	v := archetypeView{
		ID:          d.ID,
		ShortName:   d.ShortName(),
		DisplayName: d.DisplayName,
		UniqueName:  d.UniqueName,
		Nodes:       make([]nodeView, 0, len(d.Nodes())),
	}
	for _, n := range d.Nodes() {
		nv := nodeView{
			Name:          n.Name,
			DisplayName:   n.DisplayName,
			Type:          n.Kind,
			Min:           n.MinCardinality,
			Max:           n.MaxCardinality,
			Default:       n.Default,
			ReadOnly:      n.ReadOnly,
			Hidden:        n.Hidden,
			Relationships: n.Relationships,
			Assertions:    []assertionView{},
		}
		for _, a := range n.Assertions() {
			av := assertionView{Name: a.Name, Index: a.Index(), ErrorMessage: a.ErrorMessage, Properties: []propertyView{}}
			for _, p := range a.Properties() {
				av.Properties = append(av.Properties, propertyView{Name: p.Name, Value: p.Value, Values: p.Values})
			}
			nv.Assertions = append(nv.Assertions, av)
		}
		v.Nodes = append(v.Nodes, nv)
	}
	return v
}
