package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/orderflow/order-service/internal/order/application"
	"github.com/orderflow/order-service/internal/order/domain"
	"github.com/orderflow/order-service/pkg/pagination"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createOrder)
	r.Get("/{id}", h.getOrder)
	r.Get("/", h.listOrders)
	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	order, err := h.service.CreateOrder(ctx, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("order id must be an integer"))
		return
	}

	order, err := h.service.GetOrder(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	p := pagination.FromQuery(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	page, err := h.service.ListOrders(ctx, p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// writeError maps domain error kinds to transport statuses; anything
// unclassified is an opaque server-side failure.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		orderNotFound    *domain.OrderNotFoundError
		customerNotFound *domain.CustomerNotFoundError
		productNotFound  *domain.ProductNotFoundError
		insufficient     *domain.InsufficientStockError
		invalid          *domain.InvalidOrderDataError
	)
	switch {
	case errors.As(err, &orderNotFound), errors.As(err, &customerNotFound), errors.As(err, &productNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.As(err, &insufficient), errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		h.log.Error("order request failed", "err", err)
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
