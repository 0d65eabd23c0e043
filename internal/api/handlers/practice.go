package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/api/middleware"
	"github.com/Harshitk-cp/vetpms/internal/service"
	"github.com/google/uuid"
)

type PracticeHandler struct {
	svc     *service.PracticeService
	objects *service.ObjectService
	errs    *Errors
}

func NewPracticeHandler(svc *service.PracticeService, objects *service.ObjectService, errs *Errors) *PracticeHandler {
	return &PracticeHandler{svc: svc, objects: objects, errs: errs}
}

type createPracticeRequest struct {
	Name  string         `json:"name"`
	Nodes map[string]any `json:"nodes"`
}

type createPracticeResponse struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	APIKey   string     `json:"api_key"`
	Practice objectView `json:"practice"`
}

type practiceResponse struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	Practice  objectView   `json:"practice"`
	Locations []objectView `json:"locations"`
}

// Create handles POST /v1/practices. It is the unauthenticated bootstrap
// endpoint; the API key is only ever returned here.
func (h *PracticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPracticeRequest
	if err := decode(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	v, err := h.svc.Create(r.Context(), req.Name, middleware.HashAPIKey(apiKey), req.Nodes)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	obj, err := newObjectView(h.objects, v.Object)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createPracticeResponse{
		ID:       v.Practice.ID,
		Name:     v.Practice.Name,
		APIKey:   apiKey,
		Practice: obj,
	})
}

// Get handles GET /v1/practice for the authenticated practice.
func (h *PracticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	v, err := h.svc.Get(r.Context(), practice.ID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	obj, err := newObjectView(h.objects, v.Object)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	locations, err := newObjectViews(h.objects, v.Locations)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, practiceResponse{
		ID:        v.Practice.ID,
		Name:      v.Practice.Name,
		CreatedAt: v.Practice.CreatedAt,
		Practice:  obj,
		Locations: locations,
	})
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "vp_" + hex.EncodeToString(b), nil
}
