package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workflowFixture struct {
	service      *ApplicationService
	users        *fakeUsers
	applications *fakeApplications
}

func newWorkflowFixture() workflowFixture {
	f := workflowFixture{users: newFakeUsers(), applications: newFakeApplications()}
	f.service = NewApplicationService(f.applications, f.users, &fakeChanges{}, logger.Nop())
	return f
}

func (f workflowFixture) submit(t *testing.T, userID string) *entity.RoleApplication {
	t.Helper()
	f.users.put(userID, "User "+userID, entity.RoleVisitor)
	application, err := f.service.Submit(context.Background(), sessionAs(userID, entity.RoleVisitor), "I run the 2-B programming workshop.")
	require.NoError(t, err)
	return application
}

func TestSubmitApplication(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture()

	_, err := f.service.Submit(ctx, sessionAs("v1", entity.RoleVisitor), "   ")
	require.ErrorIs(t, err, errorz.ErrValidation)

	_, err = f.service.Submit(ctx, sessionAs("h1", entity.RoleHost), "more events")
	require.ErrorIs(t, err, errorz.ErrPermissionDenied)

	first := f.submit(t, "v1")
	second := f.submit(t, "v1")
	assert.Equal(t, entity.ApplicationPending, first.Status)
	assert.Equal(t, entity.RoleHost, first.RequestedRole)
	assert.NotEqual(t, first.ID, second.ID)

	mine, err := f.service.ListMine(ctx, sessionAs("v1", entity.RoleVisitor))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestOnlyAdminsReview(t *testing.T) {
	f := newWorkflowFixture()
	application := f.submit(t, "v1")

	for _, role := range []entity.Role{entity.RoleVisitor, entity.RoleHost} {
		_, err := f.service.Approve(context.Background(), sessionAs("x", role), application.ID)
		require.ErrorIs(t, err, errorz.ErrPermissionDenied)
		_, err = f.service.List(context.Background(), sessionAs("x", role))
		require.ErrorIs(t, err, errorz.ErrPermissionDenied)
	}
	assert.Equal(t, entity.RoleVisitor, f.users.role("v1"))
}

func TestApproveTwicePromotesOnce(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture()
	application := f.submit(t, "v1")
	admin := sessionAs("a1", entity.RoleAdmin)

	approved, err := f.service.Approve(ctx, admin, application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationApproved, approved.Status)
	assert.Equal(t, "a1", approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, entity.RoleHost, f.users.role("v1"))
	assert.Equal(t, 1, f.users.promotions)

	_, err = f.service.Approve(ctx, admin, application.ID)
	require.ErrorIs(t, err, errorz.ErrInvalidTransition)
	assert.Equal(t, 1, f.users.promotions)

	stored, err := f.applications.Get(ctx, application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationApproved, stored.Status)
}

func TestConcurrentApprovalsPromoteOnce(t *testing.T) {
	f := newWorkflowFixture()
	application := f.submit(t, "v1")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Approve(context.Background(), sessionAs("a1", entity.RoleAdmin), application.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, errorz.ErrInvalidTransition) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, rejected)
	assert.Equal(t, 1, f.users.promotions)
}

func TestRejectIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture()
	application := f.submit(t, "v1")
	admin := sessionAs("a1", entity.RoleAdmin)

	rejected, err := f.service.Reject(ctx, admin, application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationRejected, rejected.Status)
	assert.Equal(t, entity.RoleVisitor, f.users.role("v1"))

	_, err = f.service.Approve(ctx, admin, application.ID)
	require.ErrorIs(t, err, errorz.ErrInvalidTransition)
	_, err = f.service.Reject(ctx, admin, application.ID)
	require.ErrorIs(t, err, errorz.ErrInvalidTransition)

	_, err = f.service.Reject(ctx, admin, "missing")
	require.ErrorIs(t, err, errorz.ErrNotFound)
}

func TestApprovalNeverDemotes(t *testing.T) {
	f := newWorkflowFixture()
	application := f.submit(t, "v1")
	f.users.put("v1", "Promoted elsewhere", entity.RoleAdmin)

	_, err := f.service.Approve(context.Background(), sessionAs("a1", entity.RoleAdmin), application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, f.users.role("v1"))
}

func TestPromotionFailureSurfacesAfterTransition(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture()
	application := f.submit(t, "v1")
	f.users.fail = true

	_, err := f.service.Approve(ctx, sessionAs("a1", entity.RoleAdmin), application.ID)
	require.ErrorIs(t, err, errorz.ErrBackingStore)

	stored, err := f.applications.Get(ctx, application.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationApproved, stored.Status)
}
