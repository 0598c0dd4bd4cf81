package host

import (
	"context"
	"net/http"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
)

type reservationService interface {
	ListForHost(ctx context.Context, session dto.Session, filter dto.AttendanceFilter) ([]dto.HostReservation, error)
	AggregateByEvent(ctx context.Context, session dto.Session) (map[string]dto.EventTotals, error)
	ToggleAttendance(ctx context.Context, session dto.Session, reservationID string) (*entity.Reservation, error)
	Pass(ctx context.Context, session dto.Session, reservationID string) ([]byte, error)
}

type eventService interface {
	ListForHost(ctx context.Context, session dto.Session) ([]entity.ClassEvent, error)
}

type Handler struct {
	logger             *types.Logger
	reservationService reservationService
	eventService       eventService
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:             a.Logger,
		reservationService: a.Services.Reservations,
		eventService:       a.Services.Events,
	}
}

// ParseFilter accepts an empty value as "all".
func ParseFilter(raw string) (dto.AttendanceFilter, error) {
	switch filter := dto.AttendanceFilter(raw); filter {
	case "":
		return dto.FilterAll, nil
	case dto.FilterAll, dto.FilterAttended, dto.FilterNotAttended:
		return filter, nil
	default:
		return "", errorz.Validation("filter must be one of all, attended, not_attended")
	}
}

func (h Handler) events(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListForHost(r.Context(), middlewares.Session(r.Context()))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if events == nil {
		events = []entity.ClassEvent{}
	}
	response.JSON(w, http.StatusOK, events)
}

func (h Handler) reservations(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	reservations, err := h.reservationService.ListForHost(r.Context(), middlewares.Session(r.Context()), filter)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if reservations == nil {
		reservations = []dto.HostReservation{}
	}
	response.JSON(w, http.StatusOK, reservations)
}

func (h Handler) aggregates(w http.ResponseWriter, r *http.Request) {
	totals, err := h.reservationService.AggregateByEvent(r.Context(), middlewares.Session(r.Context()))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if totals == nil {
		totals = map[string]dto.EventTotals{}
	}
	response.JSON(w, http.StatusOK, totals)
}

func (h Handler) toggleAttendance(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	reservation, err := h.reservationService.ToggleAttendance(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	h.logger.Infof("(user: %s) reservation %s attended=%t", session.UserID, reservation.ID, reservation.HasAttended())
	response.JSON(w, http.StatusOK, reservation)
}

func (h Handler) pass(w http.ResponseWriter, r *http.Request) {
	png, err := h.reservationService.Pass(r.Context(), middlewares.Session(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h Handler) HostSetup(r chi.Router) {
	r.Get("/host/events", h.events)
	r.Get("/host/reservations", h.reservations)
	r.Get("/host/aggregates", h.aggregates)
	r.Post("/reservations/{id}/attendance", h.toggleAttendance)
	r.Get("/reservations/{id}/pass.png", h.pass)
}
