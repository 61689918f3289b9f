package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/scoutpoint/scoutpoint/internal/ledger"
	"github.com/scoutpoint/scoutpoint/internal/plan"
	"github.com/scoutpoint/scoutpoint/internal/points"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeDomainError maps ledger and points errors to HTTP statuses. Balance
// and subscription problems are user-recoverable; unknown plans or action
// kinds are configuration bugs; conflicts are transient.
func writeDomainError(w http.ResponseWriter, err error) {
	var ipe *ledger.InsufficientPointsError
	switch {
	case errors.As(err, &ipe):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient points",
			"required":  ipe.Required,
			"available": ipe.Available,
		})
	case errors.Is(err, ledger.ErrNoSubscription):
		writeError(w, http.StatusConflict, "no subscription: select a plan first")
	case errors.Is(err, points.ErrAlreadySubscribed):
		writeError(w, http.StatusConflict, "account already has a subscription")
	case errors.Is(err, points.ErrPurchaseTooSmall), errors.Is(err, points.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, plan.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, "unknown plan")
	case errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusServiceUnavailable, "ledger busy, try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
