package live

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/host"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	livequery "github.com/Badsnus/festival-booking/pkg/live"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
)

const (
	writeWait = 10 * time.Second
	// pongWait is how long a silent client keeps its socket. Pings go out
	// twice within it.
	pongWait = 60 * time.Second
)

const (
	TopicEvents           = "events"
	TopicHostEvents       = "host-events"
	TopicHostReservations = "host-reservations"
	TopicMyReservations   = "my-reservations"
	TopicApplications     = "applications"
	TopicAdmins           = "admins"
)

type eventService interface {
	ListEvents(ctx context.Context) ([]entity.ClassEvent, error)
	ListForHost(ctx context.Context, session dto.Session) ([]entity.ClassEvent, error)
}

type reservationService interface {
	ListForHost(ctx context.Context, session dto.Session, filter dto.AttendanceFilter) ([]dto.HostReservation, error)
	ListMine(ctx context.Context, session dto.Session) ([]entity.Reservation, error)
}

type applicationService interface {
	List(ctx context.Context, session dto.Session) ([]entity.RoleApplication, error)
}

type roleService interface {
	AdminCount(ctx context.Context) (int64, error)
}

type Handler struct {
	logger             *types.Logger
	feed               livequery.Feed
	upgrader           websocket.Upgrader
	eventService       eventService
	reservationService reservationService
	applicationService applicationService
	roleService        roleService
	pongWait           time.Duration
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:             a.Logger,
		feed:               a.Redis.Changes,
		upgrader:           NewUpgrader(viper.GetStringSlice("service.http.allowed-origins")),
		eventService:       a.Services.Events,
		reservationService: a.Services.Reservations,
		applicationService: a.Services.Applications,
		roleService:        a.Services.Roles,
		pongWait:           pongWait,
	}
}

// keepalive returns the read deadline and the ping interval.
func (h Handler) keepalive() (time.Duration, time.Duration) {
	wait := h.pongWait
	if wait <= 0 {
		wait = pongWait
	}
	return wait, wait / 2
}

// NewUpgrader accepts connections from the listed origins, or from any
// origin when the list holds "*".
func NewUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
}

type Message struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

func (h Handler) live(w http.ResponseWriter, r *http.Request) {
	session := middlewares.Session(r.Context())
	topic := chi.URLParam(r, "topic")

	switch topic {
	case TopicEvents:
		serve(h, w, r, topic, func(ctx context.Context) ([]entity.ClassEvent, error) {
			return h.eventService.ListEvents(ctx)
		}, entity.CollectionEvents)

	case TopicHostEvents:
		if !session.Can(entity.RoleHost) {
			response.Error(w, h.logger, r, errorz.Forbidden("only hosts can watch hosted events"))
			return
		}
		serve(h, w, r, topic, func(ctx context.Context) ([]entity.ClassEvent, error) {
			return h.eventService.ListForHost(ctx, session)
		}, entity.CollectionEvents)

	case TopicHostReservations:
		filter, err := host.ParseFilter(r.URL.Query().Get("filter"))
		if err != nil {
			response.Error(w, h.logger, r, err)
			return
		}
		if !session.Can(entity.RoleHost) {
			response.Error(w, h.logger, r, errorz.Forbidden("only hosts can watch host reservations"))
			return
		}
		serve(h, w, r, topic, func(ctx context.Context) ([]dto.HostReservation, error) {
			return h.reservationService.ListForHost(ctx, session, filter)
		}, entity.CollectionReservations, entity.CollectionEvents)

	case TopicMyReservations:
		serve(h, w, r, topic, func(ctx context.Context) ([]entity.Reservation, error) {
			return h.reservationService.ListMine(ctx, session)
		}, entity.CollectionReservations)

	case TopicApplications:
		if !session.Is(entity.RoleAdmin) {
			response.Error(w, h.logger, r, errorz.Forbidden("only admins can watch applications"))
			return
		}
		serve(h, w, r, topic, func(ctx context.Context) ([]entity.RoleApplication, error) {
			return h.applicationService.List(ctx, session)
		}, entity.CollectionApplications)

	case TopicAdmins:
		serve(h, w, r, topic, func(ctx context.Context) (int64, error) {
			return h.roleService.AdminCount(ctx)
		}, entity.CollectionUsers)

	default:
		response.Error(w, h.logger, r, errorz.NotFound("live topic "+topic))
	}
}

// serve upgrades the connection and writes a fresh snapshot of query after
// every change on collections, until the client goes away or stops answering
// pings.
func serve[T any](h Handler, w http.ResponseWriter, r *http.Request, topic string, query livequery.Query[T], collections ...string) {
	session := middlewares.Session(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("(user: %s) websocket upgrade failed: %v", session.UserID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream, err := livequery.Watch(ctx, h.feed, query, func(err error) {
		h.logger.Errorf("(user: %s) live query %s failed: %v", session.UserID, topic, err)
	}, collections...)
	if err != nil {
		h.logger.Errorf("(user: %s) failed to watch %s: %v", session.UserID, topic, err)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"))
		return
	}
	defer stream.Unsubscribe()

	wait, pingPeriod := h.keepalive()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	// Reads only detect the client closing the socket or going silent.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	h.logger.Infof("(user: %s) watching %s", session.UserID, topic)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case value, ok := <-stream.Updates():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(Message{Topic: topic, Data: value}); err != nil {
				return
			}
		}
	}
}

func (h Handler) LiveSetup(r chi.Router) {
	r.Get("/live/{topic}", h.live)
}
