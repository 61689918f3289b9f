package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/store"
)

type AccountHandler struct {
	accountStore *store.AccountStore
	logger       *slog.Logger
}

func NewAccountHandler(as *store.AccountStore, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accountStore: as, logger: logger}
}

type accountRequest struct {
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}

	existing, err := h.accountStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("get account by email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	account, err := h.accountStore.Create(r.Context(), req.Email, strings.TrimSpace(req.CompanyName))
	if err != nil {
		h.logger.Error("create account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	account, err := h.accountStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountStore.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}
