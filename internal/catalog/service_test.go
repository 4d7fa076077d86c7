package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
)

func newTestService(target *fakeTarget, source Source, tenants TenantResolver, locks RunLocker) (*Service, *fakeHistory) {
	history := &fakeHistory{}
	log := logger.NewNop()
	svc := NewService(ServiceDeps{
		Engine:     newTestEngine(source, history, Options{}),
		Rollbacker: NewRollbacker(history, log),
		Matcher:    NewMatcher(log),
		Targets:    func(string, string) Target { return target },
		Tenants:    tenants,
		Locks:      locks,
	}, log)
	return svc, history
}

func TestServiceSync(t *testing.T) {
	target := newFakeTarget()
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}
	svc, _ := newTestService(target, source, fakeTenants{code: "B1"}, &fakeLocks{})

	report, err := svc.Sync(context.Background(), "demo.myshopify.com", "token")
	require.NoError(t, err)
	assert.Equal(t, "B1", report.BusinessCode)
	assert.Len(t, report.Products, 1)
}

func TestServiceSyncLocked(t *testing.T) {
	locks := &fakeLocks{}
	release, err := locks.Acquire(context.Background(), "B1", 0)
	require.NoError(t, err)
	defer release()

	svc, _ := newTestService(newFakeTarget(), &fakeSource{}, fakeTenants{code: "B1"}, locks)
	_, err = svc.Sync(context.Background(), "demo.myshopify.com", "token")
	assert.True(t, errors.Is(err, domain.ErrRunInProgress))

	_, err = svc.Rollback(context.Background(), "demo.myshopify.com", "token", nil)
	assert.True(t, errors.Is(err, domain.ErrRunInProgress))
}

func TestServiceSyncReleasesLock(t *testing.T) {
	locks := &fakeLocks{}
	svc, _ := newTestService(newFakeTarget(), &fakeSource{}, fakeTenants{code: "B1"}, locks)

	_, err := svc.Sync(context.Background(), "demo.myshopify.com", "token")
	require.NoError(t, err)
	_, err = svc.Sync(context.Background(), "demo.myshopify.com", "token")
	require.NoError(t, err)
}

func TestServiceUnknownTenant(t *testing.T) {
	missing := domain.NewOpError(domain.ErrConfigMissing, "resolve business", "shop.example.com", nil)
	svc, _ := newTestService(newFakeTarget(), &fakeSource{}, fakeTenants{err: missing}, &fakeLocks{})

	_, err := svc.Sync(context.Background(), "demo.myshopify.com", "token")
	assert.True(t, errors.Is(err, domain.ErrConfigMissing))

	tenant, err := svc.Tenant(context.Background(), "demo.myshopify.com", "token")
	assert.Error(t, err)
	assert.Empty(t, tenant.BusinessCode)
}
