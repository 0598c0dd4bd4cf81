package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/adapters/imagehost"
	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/internal/domain/utils/calendar"
	"github.com/Badsnus/festival-booking/internal/domain/utils/location"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
)

type eventService interface {
	CreateEvent(ctx context.Context, session dto.Session, input dto.EventInput) (*entity.ClassEvent, error)
	ListEvents(ctx context.Context) ([]entity.ClassEvent, error)
	Get(ctx context.Context, id string) (*entity.ClassEvent, error)
	UpdateNotificationThreshold(ctx context.Context, session dto.Session, eventID string, threshold uint) (*entity.ClassEvent, error)
	TimeSlots(ctx context.Context, eventID string, day time.Time) ([]entity.TimeSlot, error)
}

type reservationService interface {
	QuoteAvailability(ctx context.Context, eventID string) (dto.Availability, error)
	CreateReservation(ctx context.Context, session dto.Session, eventID string, input dto.ReservationInput) (*entity.Reservation, error)
	Export(ctx context.Context, session dto.Session, eventID string) (*bytes.Buffer, error)
}

type notifyService interface {
	CheckThreshold(ctx context.Context, eventID string) (dto.Threshold, error)
	NotifyApproachingCapacity(ctx context.Context, session dto.Session, eventID string) (dto.NotifyReport, error)
}

type Handler struct {
	logger             *types.Logger
	eventService       eventService
	reservationService reservationService
	notifyService      notifyService
	location           *time.Location
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:             a.Logger,
		eventService:       a.Services.Events,
		reservationService: a.Services.Reservations,
		notifyService:      a.Services.Notify,
		location:           location.Location(),
	}
}

func (h Handler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if events == nil {
		events = []entity.ClassEvent{}
	}
	response.JSON(w, http.StatusOK, events)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, event)
}

// create accepts either a JSON body or a multipart form with the event JSON
// in the "event" field and an optional "image" file.
func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())

	var (
		input dto.EventInput
		err   error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		input, err = decodeMultipart(w, r)
	} else {
		err = response.Decode(w, r, &input)
	}
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), session, input)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, event)
}

func decodeMultipart(w http.ResponseWriter, r *http.Request) (dto.EventInput, error) {
	var input dto.EventInput
	r.Body = http.MaxBytesReader(w, r.Body, imagehost.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return input, errorz.Validation(fmt.Sprintf("invalid form: %v", err))
	}
	if err := json.Unmarshal([]byte(r.FormValue("event")), &input); err != nil {
		return input, errorz.Validation(fmt.Sprintf("invalid event field: %v", err))
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return input, nil
	}
	if err != nil {
		return input, errorz.Validation(fmt.Sprintf("invalid image field: %v", err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return input, errorz.Validation(fmt.Sprintf("read image: %v", err))
	}
	input.Image = &dto.Upload{Data: data, ContentType: header.Header.Get("Content-Type")}
	return input, nil
}

func (h Handler) availability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.reservationService.QuoteAvailability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, availability)
}

func (h Handler) threshold(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.notifyService.CheckThreshold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, threshold)
}

func (h Handler) updateThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Threshold *uint `json:"threshold"`
	}
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if req.Threshold == nil {
		response.Error(w, h.logger, r, errorz.Validation("threshold is required"))
		return
	}
	event, err := h.eventService.UpdateNotificationThreshold(r.Context(), middlewares.Session(r.Context()), chi.URLParam(r, "id"), *req.Threshold)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, event)
}

// day reads the date query parameter, defaulting to today in the festival's time zone.
func (h Handler) day(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now().In(h.location), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, h.location)
	if err != nil {
		return time.Time{}, errorz.Validation("date must be YYYY-MM-DD")
	}
	return day, nil
}

func (h Handler) slots(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	slots, err := h.eventService.TimeSlots(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	if slots == nil {
		slots = []entity.TimeSlot{}
	}
	response.JSON(w, http.StatusOK, slots)
}

func (h Handler) slotsCalendar(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	day, err := h.day(r)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	event, err := h.eventService.Get(r.Context(), eventID)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	slots, err := h.eventService.TimeSlots(r.Context(), eventID, day)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	data, err := calendar.ExportSlotsToICS(event, slots, time.Now())
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h Handler) notify(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	report, err := h.notifyService.NotifyApproachingCapacity(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

func (h Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var input dto.ReservationInput
	if err := response.Decode(w, r, &input); err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	reservation, err := h.reservationService.CreateReservation(r.Context(), middlewares.Session(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, reservation)
}

func (h Handler) export(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	buf, err := h.reservationService.Export(r.Context(), middlewares.Session(r.Context()), eventID)
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reservations-%s.xlsx"`, eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h Handler) EventsSetup(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Get("/availability", h.availability)
			r.Get("/threshold", h.threshold)
			r.Patch("/threshold", h.updateThreshold)
			r.Get("/slots", h.slots)
			r.Get("/slots.ics", h.slotsCalendar)
			r.Post("/notify", h.notify)
			r.Post("/reservations", h.reserve)
			r.Get("/reservations.xlsx", h.export)
		})
	})
}
