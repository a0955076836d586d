package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/platform/httpx"
	"github.com/sliceline/sliceline/internal/shared"
	"github.com/sliceline/sliceline/internal/users"
)

// Handler wires the /api/auth endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	userService *users.Service
	validator   *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, userService *users.Service) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		userService: userService,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes. requireAuth guards the authenticated
// endpoints.
func (h *Handler) MountRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/", h.register)
	r.Put("/", h.login)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Delete("/", h.logout)
		r.Put("/{userID}", h.updateUser)
	})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	User  users.User `json:"user"`
	Token string     `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "name, email, and password are required"})
		return
	}

	user, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{User: user, Token: token.Raw()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "email and password are required"})
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{User: user, Token: token.Raw()})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := FromBearerHeader(r.Header.Get("Authorization"))
	if !ok {
		// RequireAuth already vetted the header; this is unreachable in
		// practice but kept total.
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "logout successful"})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid user id"})
		return
	}
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.RespondError(w, shared.ErrAuthentication)
		return
	}
	if !authz.CanUpdateUser(claims.UserID, claims.Roles, userID) {
		httpx.RespondError(w, fmt.Errorf("%w: unable to update user", shared.ErrAuthorization))
		return
	}

	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.Message{Message: "invalid request body"})
		return
	}
	user, err := h.userService.Update(r.Context(), userID, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
