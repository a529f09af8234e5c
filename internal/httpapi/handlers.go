package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ghalamif/ScanFlow/internal/app/capture"
	"github.com/ghalamif/ScanFlow/internal/app/workflow"
	"github.com/ghalamif/ScanFlow/internal/domain"
)

// Service is the slice of the scan workflow exposed over HTTP.
type Service interface {
	Scan(ctx context.Context) (workflow.Outcome, error)
	Manual(ctx context.Context, value string) (workflow.Outcome, error)
	Cancel() error
	History() []domain.ScanRecord
	Last() (workflow.Outcome, bool)
	State() workflow.AttemptState
	CaptureState() capture.State
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type manualRequest struct {
	Value string `json:"value"`
}

type stateResponse struct {
	Attempt workflow.AttemptState `json:"attempt"`
	Capture capture.State         `json:"capture"`
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Scan(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeOutcome(w, out)
}

func (h *Handler) cancel(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.Cancel(); err != nil {
		log.Printf("cancel scan: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) manual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := h.svc.Manual(r.Context(), req.Value)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeOutcome(w, out)
}

func (h *Handler) history(w http.ResponseWriter, _ *http.Request) {
	records := h.svc.History()
	if records == nil {
		records = []domain.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) last(w http.ResponseWriter, _ *http.Request) {
	out, ok := h.svc.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no scan has settled yet")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Attempt: h.svc.State(),
		Capture: h.svc.CaptureState(),
	})
}

// writeOutcome reports 502 when the attempt settled as Failed.
func writeOutcome(w http.ResponseWriter, out workflow.Outcome) {
	status := http.StatusOK
	if !out.OK() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSessionAlreadyActive), errors.Is(err, domain.ErrScanCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMalformedDecode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrScanTimedOut):
		return http.StatusRequestTimeout
	case errors.Is(err, domain.ErrNoDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
