package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/scoutpoint/scoutpoint/internal/metrics"
	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/points"
	"github.com/scoutpoint/scoutpoint/internal/websocket"
)

// WebhookHandler turns trusted billing-provider events into point grants.
// Payment processing itself (checkout, pricing) happens on the provider's
// side; this endpoint only consumes the resulting "points granted" events.
type WebhookHandler struct {
	webhookSecret string
	service       *points.Service
	hub           *websocket.Hub
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewWebhookHandler(webhookSecret string, svc *points.Service, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookSecret: webhookSecret,
		service:       svc,
		hub:           hub,
		metrics:       m,
		logger:        logger,
	}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(r, event)
	case "invoice.paid":
		h.handleInvoicePaid(r, event)
	}

	w.WriteHeader(http.StatusOK)
}

// handleCheckoutCompleted grants a purchased point pack. The checkout session
// carries account_id and points in its metadata.
func (h *WebhookHandler) handleCheckoutCompleted(r *http.Request, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("webhook: unmarshal checkout session", "error", err)
		return
	}

	accountID, ok := metadataAccountID(sess.Metadata)
	if !ok {
		h.logger.Warn("webhook: checkout session missing account_id", "event", event.ID)
		return
	}
	pts, err := strconv.ParseInt(sess.Metadata["points"], 10, 64)
	if err != nil || pts <= 0 {
		h.logger.Warn("webhook: checkout session missing points", "event", event.ID)
		return
	}

	txn, err := h.service.GrantPoints(r.Context(), accountID, pts, "Point pack purchase", event.ID)
	if err != nil {
		h.logger.Error("webhook: grant point pack", "account_id", accountID, "error", err)
		return
	}

	h.metrics.Grants.WithLabelValues(string(model.TransactionGrant)).Inc()
	h.metrics.PointsIssued.Add(float64(pts))
	if h.hub != nil {
		h.hub.Broadcast(websocket.LedgerEvent("granted", accountID, txn.ResultingBalance, txn.ID))
	}
}

// handleInvoicePaid grants the plan's included points for the new billing
// period.
func (h *WebhookHandler) handleInvoicePaid(r *http.Request, event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("webhook: unmarshal invoice", "error", err)
		return
	}

	accountID, ok := metadataAccountID(invoice.Metadata)
	if !ok {
		h.logger.Warn("webhook: invoice missing account_id", "event", event.ID)
		return
	}

	txn, err := h.service.RenewalGrant(r.Context(), accountID, event.ID)
	if err != nil {
		h.logger.Error("webhook: renewal grant", "account_id", accountID, "error", err)
		return
	}

	h.metrics.Grants.WithLabelValues(string(model.TransactionGrant)).Inc()
	h.metrics.PointsIssued.Add(float64(txn.Amount))
	if h.hub != nil {
		h.hub.Broadcast(websocket.LedgerEvent("granted", accountID, txn.ResultingBalance, txn.ID))
	}
}

func metadataAccountID(metadata map[string]string) (int64, bool) {
	id, err := strconv.ParseInt(metadata["account_id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
