package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/go-chi/chi/v5"
)

type ArchetypeHandler struct {
	registry *archetype.Registry
	errs     *Errors
}

func NewArchetypeHandler(registry *archetype.Registry, errs *Errors) *ArchetypeHandler {
	return &ArchetypeHandler{registry: registry, errs: errs}
}

// List handles GET /v1/archetypes?pattern=party.*
func (h *ArchetypeHandler) List(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}
	descriptors := h.registry.List(pattern)
	views := make([]archetypeView, 0, len(descriptors))
	for _, d := range descriptors {
		views = append(views, newArchetypeView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"archetypes": views, "count": len(views)})
}

func (h *ArchetypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.registry.Get(chi.URLParam(r, "shortName"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newArchetypeView(d))
}
