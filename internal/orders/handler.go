package orders

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sliceline/sliceline/internal/auth"
	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/platform/httpx"
	"github.com/sliceline/sliceline/internal/shared"
)

// Handler wires the /api/order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	fulfiller Fulfiller
	metrics   Metrics
}

// NewHandler constructs a Handler. fulfiller may be nil, in which case placed
// orders are returned without factory verification.
func NewHandler(logger *slog.Logger, service *Service, fulfiller Fulfiller, metrics Metrics) *Handler {
	return &Handler{logger: logger, service: service, fulfiller: fulfiller, metrics: metrics}
}

// MountRoutes registers order routes. The menu is public; orders require
// authentication.
func (h *Handler) MountRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/menu", h.getMenu)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Put("/menu", h.addMenuItem)
		r.Get("/", h.history)
		r.Post("/", h.place)
	})
}

type placedOrderResponse struct {
	Order     Order  `json:"order"`
	JWT       string `json:"jwt,omitempty"`
	ReportURL string `json:"reportUrl,omitempty"`
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.Menu(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, menu)
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || !authz.IsAdmin(claims.Roles) {
		httpx.RespondError(w, fmt.Errorf("%w: unable to add menu item", shared.ErrAuthorization))
		return
	}

	var item MenuItem
	if err := httpx.DecodeJSON(r, &item); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	menu, err := h.service.AddMenuItem(r.Context(), item)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, menu)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	orders, err := h.service.History(r.Context(), claims.UserID, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}

	var req NewOrder
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	order, err := h.service.Place(r.Context(), claims.UserID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if h.fulfiller == nil {
		httpx.JSON(w, http.StatusOK, placedOrderResponse{Order: order})
		return
	}

	diner := Diner{ID: claims.UserID, Name: claims.Name, Email: claims.Email}
	result, err := h.fulfiller.Fulfill(r.Context(), diner, order)
	if err != nil {
		h.logger.Error("factory fulfillment", slog.Int64("orderId", order.ID), slog.Any("error", err))
		if h.metrics != nil {
			h.metrics.Sale(0, 0, false)
		}
		httpx.JSON(w, http.StatusInternalServerError, struct {
			Message   string `json:"message"`
			ReportURL string `json:"reportUrl,omitempty"`
		}{Message: "failed to fulfill order at factory", ReportURL: result.ReportURL})
		return
	}

	if h.metrics != nil {
		revenue := 0.0
		for _, item := range order.Items {
			revenue += item.Price
		}
		h.metrics.Sale(len(order.Items), revenue, true)
	}
	httpx.JSON(w, http.StatusOK, placedOrderResponse{Order: order, JWT: result.JWT, ReportURL: result.ReportURL})
}
