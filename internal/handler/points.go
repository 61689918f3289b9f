package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/scoutpoint/scoutpoint/internal/ledger"
	"github.com/scoutpoint/scoutpoint/internal/metrics"
	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/plan"
	"github.com/scoutpoint/scoutpoint/internal/points"
	"github.com/scoutpoint/scoutpoint/internal/websocket"
)

// PointsHandler serves subscription lifecycle, balance, purchase, and
// transaction history endpoints.
type PointsHandler struct {
	service     *points.Service
	ledgerStore *ledger.Store
	engine      *ledger.Engine
	catalog     *plan.Catalog
	hub         *websocket.Hub
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewPointsHandler(svc *points.Service, ls *ledger.Store, engine *ledger.Engine, catalog *plan.Catalog, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{
		service:     svc,
		ledgerStore: ls,
		engine:      engine,
		catalog:     catalog,
		hub:         hub,
		metrics:     m,
		logger:      logger,
	}
}

func (h *PointsHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *PointsHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

type subscriptionRequest struct {
	PlanID string `json:"plan_id"`
}

// CreateSubscription starts the account's subscription and grants the plan's
// included points.
func (h *PointsHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sub, err := h.service.GrantInitial(r.Context(), accountID, req.PlanID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.Grants.WithLabelValues(string(model.TransactionGrant)).Inc()
	h.metrics.PointsIssued.Add(float64(sub.PointBalance))
	h.broadcast(websocket.LedgerEvent("granted", accountID, sub.PointBalance, 0))

	writeJSON(w, http.StatusCreated, sub)
}

// ChangePlan switches plans without touching the balance.
func (h *PointsHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sub, err := h.service.ChangePlan(r.Context(), accountID, req.PlanID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (h *PointsHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sub, err := h.ledgerStore.GetSubscription(r.Context(), accountID)
	if err != nil {
		h.logger.Error("get subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "no subscription")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	balance, err := h.ledgerStore.GetBalance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// CheckBalance is the pre-flight affordability check for a gated action.
func (h *PointsHandler) CheckBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	kind := plan.ActionKind(r.URL.Query().Get("action"))
	check, err := h.engine.CheckBalance(r.Context(), accountID, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, check)
}

type purchaseRequest struct {
	Amount int64 `json:"amount"`
}

func (h *PointsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.service.PurchasePoints(r.Context(), accountID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.Grants.WithLabelValues(string(model.TransactionPurchase)).Inc()
	h.metrics.PointsIssued.Add(float64(req.Amount))
	h.broadcast(websocket.LedgerEvent("purchased", accountID, result.NewBalance, 0))

	writeJSON(w, http.StatusOK, result)
}

func (h *PointsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txns, err := h.ledgerStore.ListTransactions(r.Context(), accountID, limit, offset)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txns == nil {
		txns = []model.PointTransaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}
