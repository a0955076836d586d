package franchise

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sliceline/sliceline/internal/auth"
	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/platform/httpx"
	"github.com/sliceline/sliceline/internal/shared"
)

// Handler wires the /api/franchise endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers franchise routes. The listing is public (with an
// admin-shaped response for authenticated admins); everything else requires
// authentication.
func (h *Handler) MountRoutes(r chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	r.With(optionalAuth).Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/{userID}", h.listForUser)
		r.Post("/", h.create)
		r.Delete("/{franchiseID}", h.delete)
		r.Post("/{franchiseID}/store", h.createStore)
		r.Delete("/{franchiseID}/store/{storeID}", h.deleteStore)
	})
}

type createFranchiseRequest struct {
	Name   string `json:"name" validate:"required"`
	Admins []struct {
		Email string `json:"email" validate:"required"`
	} `json:"admins"`
}

type createStoreRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var grants []authz.RoleGrant
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		grants = claims.Roles
	}
	listing, err := h.service.List(r.Context(), grants)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid user id"})
		return
	}
	claims := auth.ClaimsFromContext(r.Context())

	// A caller asking about someone else gets an empty list, not an error.
	franchises := []Franchise{}
	if claims != nil && (claims.UserID == userID || authz.IsAdmin(claims.Roles)) {
		franchises, err = h.service.ForUser(r.Context(), userID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, franchises)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || !authz.IsAdmin(claims.Roles) {
		httpx.RespondError(w, fmt.Errorf("%w: unable to create a franchise", shared.ErrAuthorization))
		return
	}

	var req createFranchiseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "franchise name is required"})
		return
	}

	nf := NewFranchise{Name: req.Name}
	for _, admin := range req.Admins {
		nf.AdminEmails = append(nf.AdminEmails, admin.Email)
	}
	created, err := h.service.Create(r.Context(), nf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, created)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || !authz.IsAdmin(claims.Roles) {
		httpx.RespondError(w, fmt.Errorf("%w: unable to delete a franchise", shared.ErrAuthorization))
		return
	}
	franchiseID, err := strconv.ParseInt(chi.URLParam(r, "franchiseID"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid franchise id"})
		return
	}
	if err := h.service.Delete(r.Context(), franchiseID); err != nil {
		h.logger.Error("delete franchise", slog.Int64("franchiseId", franchiseID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "franchise deleted"})
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	franchiseID, ok := h.storeAccess(w, r, "unable to create a store")
	if !ok {
		return
	}

	var req createStoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "store name is required"})
		return
	}

	store, err := h.service.CreateStore(r.Context(), franchiseID, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, store)
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	franchiseID, ok := h.storeAccess(w, r, "unable to delete a store")
	if !ok {
		return
	}
	storeID, err := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid store id"})
		return
	}
	if err := h.service.DeleteStore(r.Context(), franchiseID, storeID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "store deleted"})
}

// storeAccess parses the franchise id and enforces the store-management
// policy: platform admin, or an admin of this specific franchise.
func (h *Handler) storeAccess(w http.ResponseWriter, r *http.Request, denial string) (int64, bool) {
	franchiseID, err := strconv.ParseInt(chi.URLParam(r, "franchiseID"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid franchise id"})
		return 0, false
	}
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.RespondError(w, shared.ErrAuthentication)
		return 0, false
	}

	if !authz.IsAdmin(claims.Roles) {
		detail, err := h.service.Get(r.Context(), franchiseID)
		if err != nil {
			httpx.RespondError(w, err)
			return 0, false
		}
		allowed := false
		for _, admin := range detail.Admins {
			if admin.ID == claims.UserID {
				allowed = true
				break
			}
		}
		if !allowed {
			httpx.RespondError(w, fmt.Errorf("%w: %s", shared.ErrAuthorization, denial))
			return 0, false
		}
	}
	return franchiseID, true
}
