package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
)

type roleService interface {
	BootstrapAdmin(ctx context.Context, principal dto.Principal, suppliedKey string) (*entity.User, error)
	AdminCount(ctx context.Context) (int64, error)
	Session(ctx context.Context, principal dto.Principal) dto.Session
}

type applicationService interface {
	Submit(ctx context.Context, session dto.Session, reason string) (*entity.RoleApplication, error)
	List(ctx context.Context, session dto.Session) ([]entity.RoleApplication, error)
	Approve(ctx context.Context, session dto.Session, applicationID string) (*entity.RoleApplication, error)
	Reject(ctx context.Context, session dto.Session, applicationID string) (*entity.RoleApplication, error)
}

type eventService interface {
	ResyncHostNames(ctx context.Context, session dto.Session, dryRun bool) (dto.ResyncReport, error)
}

type Handler struct {
	logger             *types.Logger
	roleService        roleService
	applicationService applicationService
	eventService       eventService
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:             a.Logger,
		roleService:        a.Services.Roles,
		applicationService: a.Services.Applications,
		eventService:       a.Services.Events,
	}
}

type systemStatus struct {
	Admins        int64 `json:"admins"`
	SetupRequired bool  `json:"setup_required"`
}

func (h Handler) system(w http.ResponseWriter, r *http.Request) {
	count, err := h.roleService.AdminCount(r.Context())
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, systemStatus{Admins: count, SetupRequired: count == 0})
}

func (h Handler) bootstrap(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	var req struct {
		SetupKey string `json:"setup_key"`
	}
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if _, err := h.roleService.BootstrapAdmin(r.Context(), session.Principal, req.SetupKey); err != nil {
		h.logger.Infof("(user: %s) admin bootstrap refused: %v", session.UserID, err)
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, h.roleService.Session(r.Context(), session.Principal))
}

func (h Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	application, err := h.applicationService.Submit(r.Context(), middlewares.Session(r.Context()), req.Reason)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, application)
}

func (h Handler) applications(w http.ResponseWriter, r *http.Request) {
	applications, err := h.applicationService.List(r.Context(), middlewares.Session(r.Context()))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if applications == nil {
		applications = []entity.RoleApplication{}
	}
	response.JSON(w, http.StatusOK, applications)
}

func (h Handler) approve(w http.ResponseWriter, r *http.Request) {
	application, err := h.applicationService.Approve(r.Context(), middlewares.Session(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, application)
}

func (h Handler) reject(w http.ResponseWriter, r *http.Request) {
	application, err := h.applicationService.Reject(r.Context(), middlewares.Session(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, application)
}

func (h Handler) resync(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, h.logger, r, errorz.Validation("dry_run must be a boolean"))
			return
		}
		dryRun = parsed
	}
	report, err := h.eventService.ResyncHostNames(r.Context(), middlewares.Session(r.Context()), dryRun)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// AdminSetup mounts the system status publicly and the rest behind authorized.
func (h Handler) AdminSetup(public chi.Router, authorized chi.Router) {
	public.Get("/system", h.system)

	authorized.Post("/admin/bootstrap", h.bootstrap)
	authorized.Post("/admin/resync-host-names", h.resync)
	authorized.Route("/applications", func(r chi.Router) {
		r.Post("/", h.submit)
		r.Get("/", h.applications)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
}
