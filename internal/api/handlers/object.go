package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/Harshitk-cp/vetpms/internal/service"
	"github.com/go-chi/chi/v5"
)

type ObjectHandler struct {
	svc  *service.ObjectService
	errs *Errors
}

func NewObjectHandler(svc *service.ObjectService, errs *Errors) *ObjectHandler {
	return &ObjectHandler{svc: svc, errs: errs}
}

type createObjectRequest struct {
	Archetype  string           `json:"archetype"`
	Nodes      map[string]any   `json:"nodes"`
	Contacts   []domain.Contact `json:"contacts"`
	ActiveFrom *time.Time       `json:"active_from"`
	ActiveTo   *time.Time       `json:"active_to"`
}

type updateObjectRequest struct {
	Version    int64             `json:"version"`
	Nodes      map[string]any    `json:"nodes"`
	Contacts   *[]domain.Contact `json:"contacts"`
	ActiveFrom *time.Time        `json:"active_from"`
	ActiveTo   *time.Time        `json:"active_to"`
}

type addRelationshipRequest struct {
	Node         string `json:"node"`
	Relationship string `json:"relationship"`
	Target       string `json:"target"`
}

func (h *ObjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	var req createObjectRequest
	if err := decode(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	o, err := h.svc.Create(r.Context(), practice.ID, service.CreateObjectInput{
		Archetype:  req.Archetype,
		Nodes:      req.Nodes,
		Contacts:   req.Contacts,
		ActiveFrom: req.ActiveFrom,
		ActiveTo:   req.ActiveTo,
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.writeObject(w, r, http.StatusCreated, o)
}

func (h *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	o, err := h.svc.Get(r.Context(), practice.ID, chi.URLParam(r, "shortName"), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.writeObject(w, r, http.StatusOK, o)
}

func (h *ObjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	var req updateObjectRequest
	if err := decode(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	o, err := h.svc.Update(r.Context(), practice.ID, chi.URLParam(r, "shortName"), id, service.UpdateObjectInput{
		Version:    req.Version,
		Nodes:      req.Nodes,
		Contacts:   req.Contacts,
		ActiveFrom: req.ActiveFrom,
		ActiveTo:   req.ActiveTo,
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	h.writeObject(w, r, http.StatusOK, o)
}

func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), practice.ID, chi.URLParam(r, "shortName"), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /v1/objects/{shortName}. The short name may be a wildcard
// pattern such as "party.*".
func (h *ObjectHandler) List(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", 50)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	objects, err := h.svc.List(r.Context(), practice.ID, domain.ObjectFilter{
		ShortName:  chi.URLParam(r, "shortName"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Name:       r.URL.Query().Get("name"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	ptrs := make([]*domain.Object, len(objects))
	for i := range objects {
		ptrs[i] = &objects[i]
	}
	views, err := newObjectViews(h.svc, ptrs)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": views, "count": len(views)})
}

// Targets handles GET /v1/objects/{shortName}/{id}/targets/{node}?type=pattern.
func (h *ObjectHandler) Targets(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	targets, err := h.svc.Targets(r.Context(), practice.ID, chi.URLParam(r, "shortName"), id,
		chi.URLParam(r, "node"), r.URL.Query().Get("type"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	views, err := newObjectViews(h.svc, targets)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": views, "count": len(views)})
}

func (h *ObjectHandler) AddRelationship(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	var req addRelationshipRequest
	if err := decode(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	rel, err := h.svc.AddRelationship(r.Context(), practice.ID, chi.URLParam(r, "shortName"), id, service.AddRelationshipInput{
		Node:         req.Node,
		Relationship: req.Relationship,
		Target:       req.Target,
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

// RemoveRelationship handles DELETE .../relationships?node=&target=.
func (h *ObjectHandler) RemoveRelationship(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	q := r.URL.Query()
	ended, err := h.svc.RemoveRelationship(r.Context(), practice.ID, chi.URLParam(r, "shortName"), id, q.Get("node"), q.Get("target"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"ended": ended})
}

func (h *ObjectHandler) writeObject(w http.ResponseWriter, r *http.Request, status int, o *domain.Object) {
	v, err := newObjectView(h.svc, o)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, status, v)
}
