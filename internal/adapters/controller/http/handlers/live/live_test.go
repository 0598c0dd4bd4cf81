package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/middlewares"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu   sync.Mutex
	subs map[chan string][]string
}

func (f *fakeFeed) Subscribe(ctx context.Context, topics ...string) (<-chan string, error) {
	ch := make(chan string, 16)
	f.mu.Lock()
	f.subs[ch] = topics
	f.mu.Unlock()
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeFeed) announce(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch, topics := range f.subs {
		for _, t := range topics {
			if t == topic {
				ch <- topic
			}
		}
	}
}

func (f *fakeFeed) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakeEvents struct {
	count atomic.Int32
}

func (f *fakeEvents) ListEvents(context.Context) ([]entity.ClassEvent, error) {
	n := int(f.count.Load())
	events := make([]entity.ClassEvent, n)
	for i := range events {
		events[i] = entity.ClassEvent{ID: strings.Repeat("e", i+1)}
	}
	return events, nil
}

func (f *fakeEvents) ListForHost(_ context.Context, session dto.Session) ([]entity.ClassEvent, error) {
	return []entity.ClassEvent{{ID: "hosted", HostUserID: session.UserID}}, nil
}

type fakeReservations struct{}

func (fakeReservations) ListForHost(context.Context, dto.Session, dto.AttendanceFilter) ([]dto.HostReservation, error) {
	return nil, nil
}

func (fakeReservations) ListMine(context.Context, dto.Session) ([]entity.Reservation, error) {
	return nil, nil
}

type fakeApplications struct{}

func (fakeApplications) List(context.Context, dto.Session) ([]entity.RoleApplication, error) {
	return nil, nil
}

type fakeRoles struct{}

func (fakeRoles) AdminCount(context.Context) (int64, error) {
	return 1, nil
}

func newHandler(feed *fakeFeed, events *fakeEvents) Handler {
	return Handler{
		logger:             logger.Nop(),
		feed:               feed,
		upgrader:           NewUpgrader([]string{"*"}),
		eventService:       events,
		reservationService: fakeReservations{},
		applicationService: fakeApplications{},
		roleService:        fakeRoles{},
	}
}

func newServer(t *testing.T, feed *fakeFeed, events *fakeEvents, session dto.Session) *httptest.Server {
	return mount(t, newHandler(feed, events), session)
}

func mount(t *testing.T, h Handler, session dto.Session) *httptest.Server {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middlewares.WithSession(req.Context(), session)))
		})
	})
	h.LiveSetup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return conn
}

type eventsMessage struct {
	Topic string              `json:"topic"`
	Data  []entity.ClassEvent `json:"data"`
}

func readEvents(t *testing.T, conn *websocket.Conn) eventsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg eventsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestEventsTopic_PushesSnapshotOnChange(t *testing.T) {
	feed := &fakeFeed{subs: map[chan string][]string{}}
	events := &fakeEvents{}
	events.count.Store(1)
	srv := newServer(t, feed, events, dto.Session{Principal: dto.Principal{UserID: "v1"}, Role: entity.RoleVisitor})

	conn := dial(t, srv, "/live/events")

	first := readEvents(t, conn)
	assert.Equal(t, TopicEvents, first.Topic)
	assert.Len(t, first.Data, 1)

	events.count.Store(2)
	feed.announce(entity.CollectionEvents)

	second := readEvents(t, conn)
	assert.Len(t, second.Data, 2)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return feed.subscribers() == 0 }, 2*time.Second, 10*time.Millisecond,
		"closing the socket unsubscribes from the feed")
}

func TestTopicAccess(t *testing.T) {
	feed := &fakeFeed{subs: map[chan string][]string{}}
	visitor := newServer(t, feed, &fakeEvents{}, dto.Session{Principal: dto.Principal{UserID: "v1"}, Role: entity.RoleVisitor})

	for path, want := range map[string]int{
		"/live/host-reservations":          http.StatusForbidden,
		"/live/host-events":                http.StatusForbidden,
		"/live/applications":               http.StatusForbidden,
		"/live/unknown":                    http.StatusNotFound,
		"/live/host-reservations?filter=x": http.StatusBadRequest,
	} {
		resp, err := http.Get(visitor.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
	assert.Zero(t, feed.subscribers())
}

func TestHostEventsTopic(t *testing.T) {
	feed := &fakeFeed{subs: map[chan string][]string{}}
	srv := newServer(t, feed, &fakeEvents{}, dto.Session{Principal: dto.Principal{UserID: "h1"}, Role: entity.RoleHost})

	conn := dial(t, srv, "/live/host-events")
	defer conn.Close()

	msg := readEvents(t, conn)
	assert.Equal(t, TopicHostEvents, msg.Topic)
	require.Len(t, msg.Data, 1)
	assert.Equal(t, "h1", msg.Data[0].HostUserID)
}

func TestKeepalive(t *testing.T) {
	session := dto.Session{Principal: dto.Principal{UserID: "v1"}, Role: entity.RoleVisitor}

	t.Run("answering client stays subscribed", func(t *testing.T) {
		feed := &fakeFeed{subs: map[chan string][]string{}}
		h := newHandler(feed, &fakeEvents{})
		h.pongWait = 200 * time.Millisecond
		conn := dial(t, mount(t, h, session), "/live/events")
		defer conn.Close()

		var pings atomic.Int32
		conn.SetPingHandler(func(data string) error {
			pings.Add(1)
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		time.Sleep(3 * h.pongWait)
		assert.GreaterOrEqual(t, pings.Load(), int32(2))
		assert.Equal(t, 1, feed.subscribers())
	})

	t.Run("silent client is dropped", func(t *testing.T) {
		feed := &fakeFeed{subs: map[chan string][]string{}}
		h := newHandler(feed, &fakeEvents{})
		h.pongWait = 200 * time.Millisecond
		conn := dial(t, mount(t, h, session), "/live/events")
		defer conn.Close()

		readEvents(t, conn)
		assert.Equal(t, 1, feed.subscribers())
		require.Eventually(t, func() bool { return feed.subscribers() == 0 }, 2*time.Second, 10*time.Millisecond,
			"a client that never answers pings is disconnected")
	})

	t.Run("defaults", func(t *testing.T) {
		wait, period := Handler{}.keepalive()
		assert.Equal(t, pongWait, wait)
		assert.Less(t, period, wait)
	})
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"https://festival.example"})

	req := httptest.NewRequest(http.MethodGet, "/live/events", nil)
	req.Header.Set("Origin", "https://festival.example")
	assert.True(t, upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, upgrader.CheckOrigin(req))
}
