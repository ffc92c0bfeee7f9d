// ABOUTME: HTTP handlers for the curation and chat API
// ABOUTME: Validates input at the boundary, maps store/router errors to status codes

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daxcurate/curation-gateway/internal/gateway"
	"github.com/daxcurate/curation-gateway/internal/store"
)

// AddExampleRequest is the JSON request body for POST /api/v1/examples/add.
type AddExampleRequest struct {
	ModelType string        `json:"modelType"`
	Example   store.Example `json:"example"`
}

// UpdateCorrectionRequest is the JSON request body for
// POST /api/v1/examples/update-correction.
type UpdateCorrectionRequest struct {
	ModelType           string `json:"modelType"`
	ExampleID           string `json:"exampleId"`
	CorrectedDaxFormula string `json:"correctedDaxFormula"`
}

// ChatAPIRequest is the JSON request body for POST /api/v1/chat.
type ChatAPIRequest struct {
	ModelType string             `json:"model_type"`
	Messages  []gateway.ChatTurn `json:"messages"`
}

// ChatAPIResponse is the JSON response for POST /api/v1/chat.
type ChatAPIResponse struct {
	Reply gateway.ChatTurn `json:"reply"`
}

// ackResponse is the JSON response for successful mutations.
type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseDomain validates the path's model type against the closed enumeration
// before any side effect is attempted.
func (s *Server) parseDomain(w http.ResponseWriter, raw string) (store.DomainKey, bool) {
	domain, err := store.ParseDomainKey(raw)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid model type")
		return "", false
	}
	return domain, true
}

// recordAudit logs a successful mutation to the audit trail. Audit failures
// are logged and never surfaced to the client.
func (s *Server) recordAudit(r *http.Request, action store.AuditAction, domain store.DomainKey, exampleID string) {
	if s.audit == nil {
		return
	}
	entry := &store.AuditEntry{Action: action, Domain: domain, ExampleID: exampleID}
	if err := s.audit.Append(r.Context(), entry); err != nil {
		s.logger.Error("failed to record audit entry", "action", action, "error", err)
	}
}

func (s *Server) handleGetExamples(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.parseDomain(w, chi.URLParam(r, "modelType"))
	if !ok {
		return
	}

	examples, err := s.examples.Load(domain)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			s.logger.Error("collection unreadable", "domain", domain, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "example collection is unreadable")
			return
		}
		s.logger.Error("failed to load examples", "domain", domain, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to load examples")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]store.Example{"examples": examples})
}

func (s *Server) handleAddExample(w http.ResponseWriter, r *http.Request) {
	var req AddExampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	domain, ok := s.parseDomain(w, req.ModelType)
	if !ok {
		return
	}

	if err := s.examples.Append(r.Context(), domain, req.Example); err != nil {
		s.logger.Error("failed to add example", "domain", domain, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to save example")
		return
	}

	s.recordAudit(r, store.AuditAddExample, domain, req.Example.ID)
	s.writeJSON(w, http.StatusOK, ackResponse{Success: true, Message: "Example added successfully"})
}

func (s *Server) handleUpdateCorrection(w http.ResponseWriter, r *http.Request) {
	var req UpdateCorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	domain, ok := s.parseDomain(w, req.ModelType)
	if !ok {
		return
	}

	err := s.examples.UpdateCorrection(r.Context(), domain, req.ExampleID, req.CorrectedDaxFormula)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "example not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to update correction", "domain", domain, "example_id", req.ExampleID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to save correction")
		return
	}

	s.recordAudit(r, store.AuditUpdateCorrection, domain, req.ExampleID)
	s.writeJSON(w, http.StatusOK, ackResponse{Success: true, Message: "Correction updated successfully"})
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.parseDomain(w, chi.URLParam(r, "modelType"))
	if !ok {
		return
	}

	backups, err := s.catalog.List(domain)
	if err != nil {
		s.logger.Error("failed to list backups", "domain", domain, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}

	names := make([]string, 0, len(backups))
	for _, b := range backups {
		names = append(names, b.Name)
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"backups": names})
}

func (s *Server) handleResetExamples(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.parseDomain(w, chi.URLParam(r, "modelType"))
	if !ok {
		return
	}

	if err := s.examples.Reset(r.Context(), domain); err != nil {
		s.logger.Error("failed to reset examples", "domain", domain, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to reset examples")
		return
	}

	s.recordAudit(r, store.AuditResetExamples, domain, "")
	s.writeJSON(w, http.StatusOK, ackResponse{Success: true, Message: "Reset " + string(domain) + " examples successfully"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	domain, ok := s.parseDomain(w, req.ModelType)
	if !ok {
		return
	}

	reply, err := s.router.Route(r.Context(), gateway.ChatRequest{Domain: domain, Turns: req.Messages})
	if err != nil {
		var backendErr *gateway.BackendError
		switch {
		case errors.Is(err, gateway.ErrNoUserMessage):
			s.sendJSONError(w, http.StatusBadRequest, "no user message found")
		case errors.Is(err, gateway.ErrBackendTimeout):
			s.sendJSONError(w, http.StatusGatewayTimeout, "model backend timeout")
		case errors.As(err, &backendErr):
			// Forward the backend's status and body for diagnosability.
			s.writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":          "model backend error",
				"backend_status": backendErr.StatusCode,
				"backend_body":   backendErr.Body,
			})
		case errors.Is(err, gateway.ErrNoBackend):
			s.sendJSONError(w, http.StatusServiceUnavailable, "no backend configured for model type")
		default:
			s.logger.Error("chat routing failed", "domain", domain, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "chat routing failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, ChatAPIResponse{Reply: reply})
}

// AuditEntryResponse is one row of GET /api/v1/audit.
type AuditEntryResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	ModelType string `json:"modelType"`
	ExampleID string `json:"exampleId,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.sendJSONError(w, http.StatusNotFound, "audit trail is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.sendJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.audit.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID,
			Action:    string(e.Action),
			ModelType: string(e.Domain),
			ExampleID: e.ExampleID,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string][]AuditEntryResponse{"entries": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	models := make([]string, 0, 3)
	for _, k := range store.DomainKeys() {
		models = append(models, string(k))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"timestamp":        time.Now().Format(time.RFC3339),
		"available_models": models,
	})
}
