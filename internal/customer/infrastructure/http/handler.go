package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orderflow/order-service/internal/customer/domain"
	"github.com/orderflow/order-service/internal/customer/infrastructure/postgres"
	"github.com/orderflow/order-service/pkg/pagination"
)

type Handler struct {
	log  *slog.Logger
	repo *postgres.Repository
}

func NewHandler(log *slog.Logger, repo *postgres.Repository) *Handler {
	return &Handler{log: log, repo: repo}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createCustomer)
	r.Get("/{id}", h.getCustomer)
	r.Get("/", h.listCustomers)
	return r
}

type createCustomerReq struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("email is invalid"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}

	customer, err := h.repo.Insert(r.Context(), req.Email, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("customer id must be an integer"))
		return
	}
	customer, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromQuery(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	page, err := h.repo.List(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		notFound  *domain.CustomerNotFoundError
		duplicate *domain.DuplicateCustomerError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		h.log.Error("customer request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
