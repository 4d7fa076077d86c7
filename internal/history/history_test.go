package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/index"
	"github.com/MrSnakeDoc/upsync/internal/logger"
)

type failingLog struct{ *index.MemoryLog }

func (failingLog) Append(context.Context, string, domain.SyncSnapshot) (string, error) {
	return "", errors.New("down")
}

func ts(s string) *time.Time {
	v, _ := time.Parse(time.RFC3339, s)
	return &v
}

func TestAppendIsMonotonic(t *testing.T) {
	svc := NewService(index.NewMemoryLog(), logger.NewNop())
	ctx := context.Background()

	const n = 10
	for i := 0; i < n; i++ {
		_, err := svc.Append(ctx, "B1", domain.SyncSnapshot{Products: []domain.TargetProduct{{ID: int64(i)}}})
		require.NoError(t, err)
	}

	entries, err := svc.List(ctx, "B1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), n)
	for i, e := range entries {
		assert.Equal(t, int64(i), e.Products[0].ID)
		assert.Equal(t, "B1", e.BusinessCode)
		assert.Equal(t, domain.SnapshotSync, e.Kind)
		assert.False(t, e.RecordedAt.IsZero())
	}
}

func TestAppendError(t *testing.T) {
	svc := NewService(failingLog{index.NewMemoryLog()}, logger.NewNop())
	_, err := svc.Append(context.Background(), "B1", domain.SyncSnapshot{})
	assert.Error(t, err)
}

func TestListEmpty(t *testing.T) {
	svc := NewService(index.NewMemoryLog(), logger.NewNop())
	entries, err := svc.List(context.Background(), "none")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestFilter(t *testing.T) {
	entries := []domain.SyncSnapshot{
		{Key: "1", Products: []domain.TargetProduct{{Title: "Red T-Shirt"}, {Title: "Cap"}}},
		{Key: "2", Products: []domain.TargetProduct{{Title: "Hoodie"}}},
		{Key: "3", Products: []domain.TargetProduct{{Title: "blue t-shirt"}}},
	}

	got := Filter(entries, "T-SHIRT")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Key)
	assert.Equal(t, []domain.TargetProduct{{Title: "Red T-Shirt"}}, got[0].Products)
	assert.Equal(t, "3", got[1].Key)

	assert.Len(t, entries[0].Products, 2, "input is not modified")
	assert.Len(t, Filter(entries, "  "), 3)
	assert.Empty(t, Filter(entries, "socks"))
}

func TestSearch(t *testing.T) {
	svc := NewService(index.NewMemoryLog(), logger.NewNop())
	ctx := context.Background()
	_, _ = svc.Append(ctx, "B1", domain.SyncSnapshot{Products: []domain.TargetProduct{{Title: "Tee"}}})
	_, _ = svc.Append(ctx, "B1", domain.SyncSnapshot{Products: []domain.TargetProduct{{Title: "Polo"}}})

	got, err := svc.Search(ctx, "B1", "tee")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tee", got[0].Products[0].Title)
}

func TestSortByUpdatedDesc(t *testing.T) {
	recorded, _ := time.Parse(time.RFC3339, "2024-02-15T00:00:00Z")
	entries := []domain.SyncSnapshot{
		{Key: "old", Products: []domain.TargetProduct{{UpdatedAt: ts("2024-01-01T00:00:00Z")}}},
		{Key: "new", Products: []domain.TargetProduct{{UpdatedAt: ts("2024-01-05T00:00:00Z")}, {UpdatedAt: ts("2024-03-01T00:00:00Z")}}},
		{Key: "recorded", RecordedAt: recorded},
	}

	SortByUpdatedDesc(entries)
	assert.Equal(t, []string{"new", "recorded", "old"}, []string{entries[0].Key, entries[1].Key, entries[2].Key})
}
