package user

import (
	"context"
	"net/http"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
)

type userService interface {
	Get(ctx context.Context, session dto.Session) (*entity.User, error)
	UpdateDisplayName(ctx context.Context, session dto.Session, name string) (*entity.User, error)
	Subscribe(ctx context.Context, session dto.Session, channel entity.PushChannel, token string) (*entity.PushSubscription, error)
	Unsubscribe(ctx context.Context, session dto.Session, channel entity.PushChannel) error
	Subscriptions(ctx context.Context, session dto.Session) ([]entity.PushSubscription, error)
}

type reservationService interface {
	ListMine(ctx context.Context, session dto.Session) ([]entity.Reservation, error)
}

type applicationService interface {
	ListMine(ctx context.Context, session dto.Session) ([]entity.RoleApplication, error)
}

type Handler struct {
	logger             *types.Logger
	userService        userService
	reservationService reservationService
	applicationService applicationService
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:             a.Logger,
		userService:        a.Services.Users,
		reservationService: a.Services.Reservations,
		applicationService: a.Services.Applications,
	}
}

type meResponse struct {
	Session dto.Session  `json:"session"`
	User    *entity.User `json:"user"`
}

func (h Handler) me(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	user, err := h.userService.Get(r.Context(), session)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, meResponse{Session: session, User: user})
}

func (h Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	user, err := h.userService.UpdateDisplayName(r.Context(), session, req.DisplayName)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	h.logger.Infof("(user: %s) display name updated", session.UserID)
	response.JSON(w, http.StatusOK, user)
}

func (h Handler) subscriptions(w http.ResponseWriter, r *http.Request) {
	subscriptions, err := h.userService.Subscriptions(r.Context(), middlewares.Session(r.Context()))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if subscriptions == nil {
		subscriptions = []entity.PushSubscription{}
	}
	response.JSON(w, http.StatusOK, subscriptions)
}

func (h Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	var req struct {
		Channel entity.PushChannel `json:"channel"`
		Token   string             `json:"token"`
	}
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	subscription, err := h.userService.Subscribe(r.Context(), session, req.Channel, req.Token)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	h.logger.Infof("(user: %s) subscribed to %s notifications", session.UserID, req.Channel)
	response.JSON(w, http.StatusCreated, subscription)
}

func (h Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	channel := entity.PushChannel(chi.URLParam(r, "channel"))
	if err := h.userService.Unsubscribe(r.Context(), session, channel); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.NoContent(w)
}

func (h Handler) myReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.reservationService.ListMine(r.Context(), middlewares.Session(r.Context()))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if reservations == nil {
		reservations = []entity.Reservation{}
	}
	response.JSON(w, http.StatusOK, reservations)
}

func (h Handler) myApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := h.applicationService.ListMine(r.Context(), middlewares.Session(r.Context()))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if applications == nil {
		applications = []entity.RoleApplication{}
	}
	response.JSON(w, http.StatusOK, applications)
}

func (h Handler) UserSetup(r chi.Router) {
	r.Route("/me", func(r chi.Router) {
		r.Get("/", h.me)
		r.Patch("/", h.updateMe)
		r.Get("/push-subscriptions", h.subscriptions)
		r.Post("/push-subscriptions", h.subscribe)
		r.Delete("/push-subscriptions/{channel}", h.unsubscribe)
		r.Get("/reservations", h.myReservations)
		r.Get("/applications", h.myApplications)
	})
}
