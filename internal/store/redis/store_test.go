package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, logger.NewNop()), mr
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	in := session.Session{
		Shop:        "demo.myshopify.com",
		AccessToken: "shpat_123",
		Scope:       "write_products",
		InstalledAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveSession(ctx, in))

	got, err := s.GetSession(ctx, in.Shop)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	shops, err := s.ListShops(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{in.Shop}, shops)

	require.NoError(t, s.DeleteSession(ctx, in.Shop))
	_, err = s.GetSession(ctx, in.Shop)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	shops, err = s.ListShops(ctx)
	require.NoError(t, err)
	assert.Empty(t, shops)
}

func TestSaveSessionRejectsIncomplete(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.SaveSession(context.Background(), session.Session{Shop: "demo.myshopify.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestStoreDomainCache(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetCachedStoreDomain(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Empty(t, got, "miss returns empty string")

	require.NoError(t, s.CacheStoreDomain(ctx, "demo.myshopify.com", "demo.com", time.Minute))
	got, err = s.GetCachedStoreDomain(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "demo.com", got)

	mr.FastForward(2 * time.Minute)
	got, err = s.GetCachedStoreDomain(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Empty(t, got, "entry expires")

	require.NoError(t, s.CacheStoreDomain(ctx, "a.myshopify.com", "a.com", 0))
	require.NoError(t, s.FlushCache(ctx))
	got, err = s.GetCachedStoreDomain(ctx, "a.myshopify.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryAppendIsOrdered(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	keys := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		key, err := s.Append(ctx, "B1", domain.SyncSnapshot{
			BusinessCode: "B1",
			RunID:        "run",
			Kind:         domain.SnapshotSync,
			Products:     []domain.TargetProduct{{ID: int64(i + 1), Title: "Shirt"}},
		})
		require.NoError(t, err)
		keys = append(keys, key)
	}

	got, err := s.ReadAll(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, snap := range got {
		assert.Equal(t, keys[i], snap.Key)
		assert.Equal(t, int64(i+1), snap.Products[0].ID)
	}

	other, err := s.ReadAll(ctx, "B2")
	require.NoError(t, err)
	assert.Empty(t, other)
	assert.Equal(t, "redis", s.Backend())
	assert.NoError(t, s.Ping(ctx))
}

func TestRunLock(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	release, err := s.Acquire(ctx, "B1", time.Minute)
	require.NoError(t, err)

	_, err = s.Acquire(ctx, "B1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	// Other businesses are independent
	releaseOther, err := s.Acquire(ctx, "B2", time.Minute)
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, mr.Exists(LockKey("B1")))

	release, err = s.Acquire(ctx, "B1", time.Minute)
	require.NoError(t, err)
	release()
}

func TestRunLockReleaseKeepsForeignLock(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	release, err := s.Acquire(ctx, "B1", time.Second)
	require.NoError(t, err)

	// Lock expired and was taken by someone else
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(LockKey("B1"), "someone-else"))

	release()
	v, err := mr.Get(LockKey("B1"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "upsync:history:B1", HistoryKey("B1"))
	assert.Equal(t, "upsync:session:demo.myshopify.com", SessionKey("demo.myshopify.com"))
	assert.Equal(t, "upsync:lock:B1", LockKey("B1"))

	shop, err := ExtractShop(SessionKey("demo.myshopify.com"))
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", shop)

	_, err = ExtractShop("upsync:cache:x")
	assert.Error(t, err)
}

func TestHistorySkipsAndReportsBadEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zap.WarnLevel)
	s := NewStore(client, logger.FromZap(zap.New(core)))
	ctx := context.Background()

	undecodable := testutil.ToFloat64(metrics.HistorySkipped.WithLabelValues("undecodable payload"))
	missing := testutil.ToFloat64(metrics.HistorySkipped.WithLabelValues("missing payload"))

	_, err := s.Append(ctx, "B1", domain.SyncSnapshot{Kind: domain.SnapshotSync, Products: []domain.TargetProduct{{ID: 1}}})
	require.NoError(t, err)
	badID, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: HistoryKey("B1"),
		Values: map[string]interface{}{historyField: "{not json"},
	}).Result()
	require.NoError(t, err)
	_, err = client.XAdd(ctx, &redis.XAddArgs{
		Stream: HistoryKey("B1"),
		Values: map[string]interface{}{"other": "x"},
	}).Result()
	require.NoError(t, err)
	_, err = s.Append(ctx, "B1", domain.SyncSnapshot{Kind: domain.SnapshotRollback, Products: []domain.TargetProduct{{ID: 2}}})
	require.NoError(t, err)

	got, err := s.ReadAll(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Products[0].ID)
	assert.Equal(t, int64(2), got[1].Products[0].ID)

	assert.Equal(t, undecodable+1, testutil.ToFloat64(metrics.HistorySkipped.WithLabelValues("undecodable payload")))
	assert.Equal(t, missing+1, testutil.ToFloat64(metrics.HistorySkipped.WithLabelValues("missing payload")))

	warned := logs.FilterMessage("skipping history entry").All()
	require.Len(t, warned, 2)
	assert.Equal(t, badID, warned[0].ContextMap()["key"])
	assert.Equal(t, "B1", warned[0].ContextMap()["business_code"])

	// Still in the stream
	n, err := client.XLen(ctx, HistoryKey("B1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
