package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/store"
)

type CandidateHandler struct {
	candidateStore  *store.CandidateStore
	disclosureStore *store.DisclosureStore
	logger          *slog.Logger
}

func NewCandidateHandler(cs *store.CandidateStore, ds *store.DisclosureStore, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{candidateStore: cs, disclosureStore: ds, logger: logger}
}

type candidateRequest struct {
	Name         string `json:"name"`
	Headline     string `json:"headline"`
	AgentSummary string `json:"agent_summary"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	candidate, err := h.candidateStore.Create(r.Context(), req.Name, req.Headline, req.AgentSummary, req.ContactEmail, req.ContactPhone)
	if err != nil {
		h.logger.Error("create candidate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create candidate")
		return
	}

	writeJSON(w, http.StatusCreated, *candidate)
}

// List returns active candidates with contact details stripped. Unlocking
// contact info goes through the disclosure endpoint.
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.candidateStore.List(r.Context())
	if err != nil {
		h.logger.Error("list candidates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list candidates")
		return
	}

	masked := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		masked = append(masked, c.Masked())
	}
	writeJSON(w, http.StatusOK, masked)
}

// Get returns one candidate. Contact fields are only included when the
// requesting account (account_id query param) has a completed disclosure.
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	candidate, err := h.candidateStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get candidate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get candidate")
		return
	}
	if candidate == nil {
		writeError(w, http.StatusNotFound, "candidate not found")
		return
	}

	if accountParam := r.URL.Query().Get("account_id"); accountParam != "" {
		accountID, err := strconv.ParseInt(accountParam, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid account_id")
			return
		}
		disclosed, err := h.disclosureStore.HasDisclosed(r.Context(), accountID, id)
		if err != nil {
			h.logger.Error("check disclosure", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get candidate")
			return
		}
		if disclosed {
			writeJSON(w, http.StatusOK, *candidate)
			return
		}
	}

	writeJSON(w, http.StatusOK, candidate.Masked())
}
