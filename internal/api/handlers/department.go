package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/vetpms/internal/service"
)

type DepartmentHandler struct {
	svc  *service.DepartmentService
	errs *Errors
}

func NewDepartmentHandler(svc *service.DepartmentService, errs *Errors) *DepartmentHandler {
	return &DepartmentHandler{svc: svc, errs: errs}
}

// List handles GET /v1/departments[?location=<uuid>].
func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	location, err := optionalUUIDQuery(r, "location")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	departments, err := h.svc.List(r.Context(), practice.ID, location)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": departments, "count": len(departments)})
}
