package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupTestDB connects using the PG* environment variables and skips the test
// when no database is reachable.
func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("PGHOST", "localhost"),
		env("PGPORT", "5432"),
		env("PGUSER", "user"),
		env("PGPASSWORD", "password"),
		env("PGDATABASE", "testdb"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.Ping() != nil {
		t.Skip("postgres unavailable")
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Migrations...))
	require.NoError(t, db.Exec("TRUNCATE users, class_events, reservations, role_applications, push_subscriptions, notifications, images").Error)
	return db
}

func newEvent(hostID, hostName string, capacity uint) *entity.ClassEvent {
	return &entity.ClassEvent{
		ID:                    uuid.New().String(),
		ClassName:             "1-A",
		EventName:             "Escape room",
		Location:              "Room 1A",
		Tags:                  []string{"puzzle", "team"},
		MaxCapacity:           capacity,
		DurationMinutes:       30,
		HostUserID:            hostID,
		HostUserName:          hostName,
		NotificationThreshold: 2,
	}
}

func TestUserStorageGetOrCreateKeepsExistingRole(t *testing.T) {
	db := setupTestDB(t)
	s := NewUserStorage(db)
	ctx := context.Background()

	created, err := s.GetOrCreate(ctx, &entity.User{ID: "u1", Email: "u1@example.com", Role: entity.RoleVisitor})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVisitor, created.Role)

	require.NoError(t, s.Promote(ctx, "u1", entity.RoleHost))
	again, err := s.GetOrCreate(ctx, &entity.User{ID: "u1", Role: entity.RoleVisitor})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleHost, again.Role)

	_, err = s.Get(ctx, "nobody")
	require.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestUserStorageBootstrapAdminElectsOne(t *testing.T) {
	db := setupTestDB(t)
	s := NewUserStorage(db)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.BootstrapAdmin(context.Background(), &entity.User{ID: fmt.Sprintf("u%d", i)})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, errorz.ErrPermissionDenied)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	count, err := s.CountByRole(context.Background(), entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserStoragePromoteNeverDemotes(t *testing.T) {
	db := setupTestDB(t)
	s := NewUserStorage(db)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, &entity.User{ID: "a1", Role: entity.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, s.Promote(ctx, "a1", entity.RoleHost))

	user, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, user.Role)
}

func TestUserStorageFirstByRole(t *testing.T) {
	db := setupTestDB(t)
	s := NewUserStorage(db)
	ctx := context.Background()

	_, err := s.FirstByRole(ctx, entity.RoleAdmin)
	require.ErrorIs(t, err, errorz.ErrNotFound)

	for _, u := range []entity.User{
		{ID: "v1", Role: entity.RoleVisitor},
		{ID: "a2", Role: entity.RoleAdmin},
		{ID: "a1", Role: entity.RoleAdmin},
	} {
		u := u
		_, err = s.GetOrCreate(ctx, &u)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	first, err := s.FirstByRole(ctx, entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "a2", first.ID)
}

func TestUpdateDisplayNameRenamesHostedEvents(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserStorage(db)
	events := NewEventStorage(db)
	ctx := context.Background()

	_, err := users.GetOrCreate(ctx, &entity.User{ID: "h1", DisplayName: "Hana", Role: entity.RoleHost})
	require.NoError(t, err)
	event, err := events.Create(ctx, newEvent("h1", "Hana", 6))
	require.NoError(t, err)

	_, err = users.UpdateDisplayName(ctx, "h1", "Hana S.")
	require.NoError(t, err)

	stored, err := events.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hana S.", stored.HostUserName)
	assert.Equal(t, []string{"puzzle", "team"}, []string(stored.Tags))

	_, err = users.UpdateDisplayName(ctx, "nobody", "x")
	require.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestReservationStorageLedger(t *testing.T) {
	db := setupTestDB(t)
	events := NewEventStorage(db)
	s := NewReservationStorage(db)
	ctx := context.Background()

	event, err := events.Create(ctx, newEvent("h1", "Hana", 4))
	require.NoError(t, err)

	sum, err := s.SumPeopleByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	var first *entity.Reservation
	for i, people := range []uint{3, 1, 1} {
		r, err := s.Create(ctx, &entity.Reservation{
			ID:              uuid.New().String(),
			UserID:          fmt.Sprintf("v%d", i),
			ClassEventID:    event.ID,
			NumberOfPeople:  people,
			Status:          entity.ReservationConfirmed,
			ReservationCode: fmt.Sprintf("CODE0%d", i),
		})
		require.NoError(t, err)
		if first == nil {
			first = r
		}
	}

	sum, err = s.SumPeopleByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum)

	exists, err := s.ExistsCode(ctx, "CODE01")
	require.NoError(t, err)
	assert.True(t, exists)

	updated, err := s.SetAttended(ctx, first.ID, false)
	require.NoError(t, err)
	require.NotNil(t, updated.Attended)
	assert.False(t, *updated.Attended)
	assert.Equal(t, uint(3), updated.NumberOfPeople)

	_, err = s.Get(ctx, "not-a-uuid")
	require.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestApplicationStorageTransitionIsConditional(t *testing.T) {
	db := setupTestDB(t)
	s := NewApplicationStorage(db)
	ctx := context.Background()

	application, err := s.Create(ctx, &entity.RoleApplication{
		ID:            uuid.New().String(),
		UserID:        "v1",
		RequestedRole: entity.RoleHost,
		Reason:        "I host the 2-B workshop",
		Status:        entity.ApplicationPending,
	})
	require.NoError(t, err)

	changed, err := s.Transition(ctx, application.ID, entity.ApplicationPending, entity.ApplicationApproved, "a1", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Transition(ctx, application.ID, entity.ApplicationPending, entity.ApplicationRejected, "a1", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := s.Get(ctx, application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationApproved, stored.Status)
	assert.Equal(t, "a1", stored.ReviewedBy)
}

func TestSubscriptionStorageUpsert(t *testing.T) {
	db := setupTestDB(t)
	s := NewSubscriptionStorage(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &entity.PushSubscription{UserID: "v1", Channel: entity.PushChannelTelegram, Token: "1"}))
	require.NoError(t, s.Upsert(ctx, &entity.PushSubscription{UserID: "v1", Channel: entity.PushChannelTelegram, Token: "2"}))

	subs, err := s.GetByUserIDs(ctx, []string{"v1"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "2", subs[0].Token)

	require.NoError(t, s.Delete(ctx, "v1", entity.PushChannelTelegram))
	subs, err = s.GetByUserID(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}
