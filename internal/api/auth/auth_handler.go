package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/go-secondhand-market/internal/api"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Signup(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new auth HandlerImpl instance.
func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

const maxSignupFormBytes = 12 << 20

// Signup godoc
// @Summary      Register a new account
// @Description  Creates a user from a multipart form (username, email, password, newsletter, optional avatar file) and returns its bearer token.
// @Tags         User
// @Accept       multipart/form-data
// @Produce      json
// @Success      200 {object} types.PublicUser "Created user"
// @Failure      400 {object} types.Response "Missing required fields"
// @Failure      409 {object} types.Response "Email already registered"
// @Router       /user/signup [post]
func (h *HandlerImpl) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Signup"))

	if err := r.ParseMultipartForm(maxSignupFormBytes); err != nil {
		l.WarnContext(ctx, "Failed to parse multipart form", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	newsletter, _ := strconv.ParseBool(r.FormValue("newsletter"))
	params := types.SignupParams{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		Newsletter: newsletter,
	}

	avatar, _, err := api.ReadFormImage(r, "avatar")
	if err != nil {
		l.WarnContext(ctx, "Failed to read avatar upload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid avatar upload")
		return
	}
	params.Avatar = avatar

	user, err := h.authService.Signup(ctx, params)
	if err != nil {
		l.WarnContext(ctx, "Signup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// Login godoc
// @Summary      Authenticate an account
// @Description  Verifies email/password and returns the account's bearer token.
// @Tags         User
// @Accept       json
// @Produce      json
// @Success      200 {object} types.PublicUser "Authenticated user"
// @Failure      401 {object} types.Response "Invalid credentials"
// @Failure      404 {object} types.Response "Unknown email"
// @Router       /user/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		l.WarnContext(ctx, "Login failed", slog.Any("error", err))
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, user)
}
