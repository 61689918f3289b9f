package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/scoutpoint/scoutpoint/internal/ledger"
	"github.com/scoutpoint/scoutpoint/internal/metrics"
	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/plan"
	"github.com/scoutpoint/scoutpoint/internal/store"
	"github.com/scoutpoint/scoutpoint/internal/websocket"
)

// DisclosureHandler runs the platform's flagship gated action: paying points
// to unlock a candidate's contact details.
type DisclosureHandler struct {
	engine          *ledger.Engine
	candidateStore  *store.CandidateStore
	disclosureStore *store.DisclosureStore
	hub             *websocket.Hub
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewDisclosureHandler(engine *ledger.Engine, cs *store.CandidateStore, ds *store.DisclosureStore, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger) *DisclosureHandler {
	return &DisclosureHandler{
		engine:          engine,
		candidateStore:  cs,
		disclosureStore: ds,
		hub:             hub,
		metrics:         m,
		logger:          logger,
	}
}

type discloseRequest struct {
	AccountID int64 `json:"account_id"`
}

type discloseResponse struct {
	Disclosure    model.Disclosure `json:"disclosure"`
	Candidate     model.Candidate  `json:"candidate"`
	NewBalance    int64            `json:"new_balance"`
	TransactionID int64            `json:"transaction_id,omitempty"`
}

// Disclose unlocks a candidate's contact details for an account.
//
// The disclosure's status field, not the ledger, is the idempotency gate: a
// repeat call for an already-disclosed candidate returns the existing record
// without debiting again. The debit and the status flip commit in one atomic
// unit via the consumption engine.
func (h *DisclosureHandler) Disclose(w http.ResponseWriter, r *http.Request) {
	candidateID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req discloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AccountID <= 0 {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	candidate, err := h.candidateStore.GetByID(r.Context(), candidateID)
	if err != nil {
		h.logger.Error("get candidate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get candidate")
		return
	}
	if candidate == nil || candidate.Status != "active" {
		writeError(w, http.StatusNotFound, "candidate not found")
		return
	}

	// Domain pre-check: already disclosed means already paid for.
	disclosure, err := h.disclosureStore.GetByAccountAndCandidate(r.Context(), req.AccountID, candidateID)
	if err != nil {
		h.logger.Error("get disclosure", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get disclosure")
		return
	}
	if disclosure != nil && disclosure.Status == model.DisclosureDisclosed {
		writeJSON(w, http.StatusOK, discloseResponse{
			Disclosure: *disclosure,
			Candidate:  *candidate,
		})
		return
	}
	if disclosure == nil {
		disclosure, err = h.disclosureStore.Create(r.Context(), req.AccountID, candidateID, uuid.NewString())
		if err != nil {
			h.logger.Error("create disclosure", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create disclosure")
			return
		}
	}

	desc := fmt.Sprintf("Contact disclosure: %s", candidate.Name)
	result, err := h.engine.Consume(r.Context(), req.AccountID, plan.ActionContactDisclosure, disclosure.ReferenceID, desc,
		func(tx *sql.Tx) error {
			return h.disclosureStore.MarkDisclosedTx(tx, disclosure.ID)
		})
	if err != nil {
		h.metrics.Consumes.WithLabelValues(string(plan.ActionContactDisclosure), "failed").Inc()
		writeDomainError(w, err)
		return
	}

	h.metrics.Consumes.WithLabelValues(string(plan.ActionContactDisclosure), "ok").Inc()
	h.metrics.PointsSpent.Add(float64(result.Cost))

	disclosure, err = h.disclosureStore.GetByID(r.Context(), disclosure.ID)
	if err != nil || disclosure == nil {
		h.logger.Error("reload disclosure", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load disclosure")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.LedgerEvent("consumed", req.AccountID, result.NewBalance, result.TransactionID))
		h.hub.Broadcast(websocket.DisclosureEvent(req.AccountID, candidateID))
	}

	writeJSON(w, http.StatusOK, discloseResponse{
		Disclosure:    *disclosure,
		Candidate:     *candidate,
		NewBalance:    result.NewBalance,
		TransactionID: result.TransactionID,
	})
}

// List returns the account's disclosures, newest first.
func (h *DisclosureHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	disclosures, err := h.disclosureStore.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.logger.Error("list disclosures", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list disclosures")
		return
	}
	if disclosures == nil {
		disclosures = []model.Disclosure{}
	}
	writeJSON(w, http.StatusOK, disclosures)
}
