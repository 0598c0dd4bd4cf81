package auth

import (
	"context"
	"net/http"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
)

type authService interface {
	SendCode(ctx context.Context, email, displayName string) error
	Verify(ctx context.Context, email, code string) (string, dto.Principal, error)
	SignOut(ctx context.Context, token string) error
}

type roleService interface {
	Session(ctx context.Context, principal dto.Principal) dto.Session
}

type Handler struct {
	logger      *types.Logger
	authService authService
	roleService roleService
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:      a.Logger,
		authService: a.Services.Auth,
		roleService: a.Services.Roles,
	}
}

type codeRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyResponse struct {
	Token   string      `json:"token"`
	Session dto.Session `json:"session"`
}

func (h Handler) sendCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if err := h.authService.SendCode(r.Context(), req.Email, req.DisplayName); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	token, principal, err := h.authService.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	session := h.roleService.Session(r.Context(), principal)
	h.logger.Infof("(user: %s) signed in as %s", principal.UserID, session.Role)
	response.JSON(w, http.StatusOK, verifyResponse{Token: token, Session: session})
}

func (h Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(r.Context(), middlewares.Token(r)); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.NoContent(w)
}

// AuthSetup mounts the public sign-in routes. Sign-out goes through authorized.
func (h Handler) AuthSetup(public chi.Router, authorized chi.Router) {
	public.Post("/auth/code", h.sendCode)
	public.Post("/auth/verify", h.verify)
	authorized.Post("/auth/sign-out", h.signOut)
}
