package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/vetpms/internal/api/middleware"
	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Errors renders application errors as localized JSON.
type Errors struct {
	messages apperr.Messages
	logger   *zap.Logger
}

func NewErrors(messages apperr.Messages, logger *zap.Logger) *Errors {
	return &Errors{messages: messages, logger: logger}
}

// Write maps err to a status via its code and writes {"error", "code"} with the
// message in the request's negotiated locale.
func (e *Errors) Write(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.GetCode(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		e.logger.Error("request failed",
			zap.String("code", string(code)),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
	}
	msg := apperr.Message(e.messages, middleware.LocaleFromContext(r.Context()), err)
	writeJSON(w, status, errorResponse{Error: msg, Code: string(code)})
}

// decode reads a JSON body. Numbers decode as json.Number so node values keep
// their precision.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return apperr.Wrap(err, apperr.CodeEditorInvalidBody, "Reason", err.Error())
	}
	return nil
}

func requirePractice(r *http.Request) (*domain.Practice, error) {
	p := middleware.PracticeFromContext(r.Context())
	if p == nil {
		return nil, apperr.New(apperr.CodePracticeNotFound)
	}
	return p, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Wrap(err, apperr.CodeReferenceInvalid, "Reference", raw)
	}
	return id, nil
}

func optionalUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeReferenceInvalid, "Reference", raw)
	}
	return &id, nil
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.New(apperr.CodeEditorInvalidBody, "Reason", fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
