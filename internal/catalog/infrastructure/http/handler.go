package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/orderflow/order-service/internal/catalog/domain"
	"github.com/orderflow/order-service/internal/catalog/infrastructure/postgres"
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
	r.Post("/", h.createProduct)
	r.Get("/{id}", h.getProduct)
	r.Get("/", h.listProducts)
	return r
}

type createProductReq struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}

	product, err := h.repo.Insert(r.Context(), req.Name, req.Price, req.StockQuantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("product id must be an integer"))
		return
	}
	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
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
		notFound      *domain.ProductNotFoundError
		duplicate     *domain.DuplicateProductError
		negativePrice *domain.NegativeProductPriceError
		negativeStock *domain.NegativeProductStockError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.As(err, &negativePrice), errors.As(err, &negativeStock):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.log.Error("product request failed", "err", err)
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
