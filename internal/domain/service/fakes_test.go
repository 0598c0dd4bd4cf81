package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
)

var errStoreDown = errors.New("connection refused")

type fakeUsers struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	events *fakeEvents
	fail   bool
	// promotions counts Promote calls that changed a role.
	promotions int
	seq        int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*entity.User)}
}

func (f *fakeUsers) put(id, name string, role entity.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.users[id] = &entity.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: name,
		Role:        role,
		CreatedAt:   time.Date(2024, 9, 1, 0, f.seq, 0, 0, time.UTC),
	}
}

func (f *fakeUsers) role(id string) entity.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u.Role
	}
	return ""
}

func (f *fakeUsers) GetOrCreate(_ context.Context, user *entity.User) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errorz.Store(errStoreDown)
	}
	if u, ok := f.users[user.ID]; ok {
		c := *u
		return &c, nil
	}
	c := *user
	f.users[user.ID] = &c
	return user, nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) BootstrapAdmin(_ context.Context, user *entity.User) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Role == entity.RoleAdmin {
			return nil, errorz.Forbidden("an admin already exists")
		}
	}
	if u, ok := f.users[user.ID]; ok {
		u.Role = entity.RoleAdmin
		c := *u
		return &c, nil
	}
	c := *user
	f.users[user.ID] = &c
	return user, nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errorz.NotFound("user")
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) FirstByRole(_ context.Context, role entity.Role) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var first *entity.User
	for _, u := range f.users {
		if u.Role == role && (first == nil || u.CreatedAt.Before(first.CreatedAt)) {
			first = u
		}
	}
	if first == nil {
		return nil, errorz.NotFound("user")
	}
	c := *first
	return &c, nil
}

func (f *fakeUsers) GetMany(_ context.Context, ids []string) ([]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Promote(_ context.Context, userID string, role entity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errorz.Store(errStoreDown)
	}
	u, ok := f.users[userID]
	if !ok {
		u = &entity.User{ID: userID, Role: entity.RoleVisitor}
		f.users[userID] = u
	}
	if u.Role.Rank() < role.Rank() {
		u.Role = role
		f.promotions++
	}
	return nil
}

func (f *fakeUsers) UpdateDisplayName(ctx context.Context, userID, name string) (*entity.User, error) {
	f.mu.Lock()
	u, ok := f.users[userID]
	if !ok {
		f.mu.Unlock()
		return nil, errorz.NotFound("user")
	}
	u.DisplayName = name
	c := *u
	f.mu.Unlock()

	if f.events != nil {
		f.events.mu.Lock()
		for _, e := range f.events.events {
			if e.HostUserID == userID {
				e.HostUserName = name
			}
		}
		f.events.mu.Unlock()
	}
	return &c, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[string]*entity.ClassEvent
	clock  time.Time
	// hostUpdates counts UpdateHost writes.
	hostUpdates int
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[string]*entity.ClassEvent), clock: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeEvents) Create(_ context.Context, event *entity.ClassEvent) (*entity.ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	event.CreatedAt = f.clock
	event.UpdatedAt = f.clock
	c := *event
	f.events[event.ID] = &c
	return event, nil
}

func (f *fakeEvents) Get(_ context.Context, id string) (*entity.ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, errorz.NotFound("event")
	}
	c := *e
	return &c, nil
}

func (f *fakeEvents) GetAll(_ context.Context) ([]entity.ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.ClassEvent, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEvents) GetByHostID(ctx context.Context, hostUserID string) ([]entity.ClassEvent, error) {
	all, _ := f.GetAll(ctx)
	var out []entity.ClassEvent
	for _, e := range all {
		if e.HostUserID == hostUserID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.events)), nil
}

func (f *fakeEvents) UpdateHost(_ context.Context, id, hostName, hostEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return errorz.NotFound("event")
	}
	e.HostUserName = hostName
	e.HostUserEmail = hostEmail
	f.hostUpdates++
	return nil
}

func (f *fakeEvents) UpdateThreshold(_ context.Context, id string, threshold uint) (*entity.ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, errorz.NotFound("event")
	}
	e.NotificationThreshold = threshold
	c := *e
	return &c, nil
}

func (f *fakeEvents) add(id, hostID, hostName string, capacity, threshold uint) *entity.ClassEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	e := &entity.ClassEvent{
		ID:                    id,
		CreatedAt:             f.clock,
		ClassName:             "1-A",
		EventName:             "Escape room " + id,
		Location:              "Room 1A",
		MaxCapacity:           capacity,
		DurationMinutes:       30,
		HostUserID:            hostID,
		HostUserName:          hostName,
		NotificationThreshold: threshold,
	}
	f.events[id] = e
	c := *e
	return &c
}

type fakeReservations struct {
	mu           sync.Mutex
	reservations []*entity.Reservation
	clock        time.Time
	codes        map[string]bool
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{clock: time.Date(2024, 10, 2, 9, 0, 0, 0, time.UTC), codes: make(map[string]bool)}
}

func (f *fakeReservations) Create(_ context.Context, r *entity.Reservation) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	r.CreatedAt = f.clock
	r.UpdatedAt = f.clock
	c := *r
	f.reservations = append(f.reservations, &c)
	f.codes[r.ReservationCode] = true
	return r, nil
}

func (f *fakeReservations) Get(_ context.Context, id string) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.ID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, errorz.NotFound("reservation")
}

func (f *fakeReservations) filter(match func(*entity.Reservation) bool) []entity.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Reservation
	for i := len(f.reservations) - 1; i >= 0; i-- {
		if match(f.reservations[i]) {
			out = append(out, *f.reservations[i])
		}
	}
	return out
}

func (f *fakeReservations) GetByEventID(_ context.Context, eventID string) ([]entity.Reservation, error) {
	return f.filter(func(r *entity.Reservation) bool { return r.ClassEventID == eventID }), nil
}

func (f *fakeReservations) GetByEventIDs(_ context.Context, eventIDs []string) ([]entity.Reservation, error) {
	ids := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = true
	}
	return f.filter(func(r *entity.Reservation) bool { return ids[r.ClassEventID] }), nil
}

func (f *fakeReservations) GetByUserID(_ context.Context, userID string) ([]entity.Reservation, error) {
	return f.filter(func(r *entity.Reservation) bool { return r.UserID == userID }), nil
}

func (f *fakeReservations) GetAll(_ context.Context) ([]entity.Reservation, error) {
	return f.filter(func(*entity.Reservation) bool { return true }), nil
}

func (f *fakeReservations) SumPeopleByEventID(_ context.Context, eventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, r := range f.reservations {
		if r.ClassEventID == eventID {
			sum += int64(r.NumberOfPeople)
		}
	}
	return sum, nil
}

func (f *fakeReservations) ExistsCode(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[code], nil
}

func (f *fakeReservations) SetAttended(_ context.Context, id string, attended bool) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.ID == id {
			r.Attended = &attended
			f.clock = f.clock.Add(time.Second)
			r.UpdatedAt = f.clock
			c := *r
			return &c, nil
		}
	}
	return nil, errorz.NotFound("reservation")
}

type fakeApplications struct {
	mu           sync.Mutex
	applications map[string]*entity.RoleApplication
}

func newFakeApplications() *fakeApplications {
	return &fakeApplications{applications: make(map[string]*entity.RoleApplication)}
}

func (f *fakeApplications) Create(_ context.Context, a *entity.RoleApplication) (*entity.RoleApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *a
	f.applications[a.ID] = &c
	return a, nil
}

func (f *fakeApplications) Get(_ context.Context, id string) (*entity.RoleApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return nil, errorz.NotFound("application")
	}
	c := *a
	return &c, nil
}

func (f *fakeApplications) GetAll(_ context.Context) ([]entity.RoleApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.RoleApplication
	for _, a := range f.applications {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeApplications) GetByUserID(ctx context.Context, userID string) ([]entity.RoleApplication, error) {
	all, _ := f.GetAll(ctx)
	var out []entity.RoleApplication
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplications) Transition(_ context.Context, id string, from, to entity.ApplicationStatus, reviewedBy string, reviewedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.ReviewedBy = reviewedBy
	a.ReviewedAt = &reviewedAt
	return true, nil
}

type fakeSubscriptions struct {
	mu   sync.Mutex
	subs map[string]entity.PushSubscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{subs: make(map[string]entity.PushSubscription)}
}

func (f *fakeSubscriptions) Upsert(_ context.Context, s *entity.PushSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[s.UserID+"/"+string(s.Channel)] = *s
	return nil
}

func (f *fakeSubscriptions) Delete(_ context.Context, userID string, channel entity.PushChannel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, userID+"/"+string(channel))
	return nil
}

func (f *fakeSubscriptions) GetByUserID(ctx context.Context, userID string) ([]entity.PushSubscription, error) {
	return f.GetByUserIDs(ctx, []string{userID})
}

func (f *fakeSubscriptions) GetByUserIDs(_ context.Context, userIDs []string) ([]entity.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}
	var out []entity.PushSubscription
	for _, s := range f.subs {
		if ids[s.UserID] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID+string(out[i].Channel) < out[j].UserID+string(out[j].Channel) })
	return out, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	saved []entity.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *n)
	return nil
}

type sentMessage struct {
	Subscription entity.PushSubscription
	Message      dto.PushMessage
}

// fakeSender fails every delivery to a user id key, or to one channel of a
// user with a "user/channel" key.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
}

func (f *fakeSender) Send(_ context.Context, s entity.PushSubscription, m dto.PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[s.UserID] || f.failFor[s.UserID+"/"+string(s.Channel)] {
		return errors.New("push endpoint gone")
	}
	f.sent = append(f.sent, sentMessage{Subscription: s, Message: m})
	return nil
}

type fakeChanges struct {
	mu        sync.Mutex
	published []string
}

func (f *fakeChanges) Publish(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, collection)
	return nil
}

func (f *fakeChanges) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

type fakeImages struct {
	uploads int
	fail    bool
}

func (f *fakeImages) Upload(_ context.Context, data []byte, contentType string) (string, error) {
	if f.fail {
		return "", errorz.Validation("unsupported image")
	}
	f.uploads++
	return "https://festival.example/images/1", nil
}

func sessionAs(userID string, role entity.Role) dto.Session {
	return dto.Session{
		Principal: dto.Principal{UserID: userID, Email: userID + "@example.com", DisplayName: "User " + userID},
		Role:      role,
	}
}
