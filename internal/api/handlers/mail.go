package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/vetpms/internal/api/middleware"
	"github.com/Harshitk-cp/vetpms/internal/mail"
	"github.com/Harshitk-cp/vetpms/internal/service"
	"github.com/google/uuid"
)

type MailHandler struct {
	svc  *service.MailService
	errs *Errors
}

func NewMailHandler(svc *service.MailService, errs *Errors) *MailHandler {
	return &MailHandler{svc: svc, errs: errs}
}

type sendMailRequest struct {
	Location *uuid.UUID `json:"location"`
	To       []string   `json:"to"`
	Subject  string     `json:"subject"`
	Body     string     `json:"body"`
}

// Send handles POST /v1/mail.
func (h *MailHandler) Send(w http.ResponseWriter, r *http.Request) {
	practice, err := requirePractice(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	var req sendMailRequest
	if err := decode(r, &req); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	err = h.svc.Send(r.Context(), practice.ID, req.Location, middleware.LocaleFromContext(r.Context()), mail.Message{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
