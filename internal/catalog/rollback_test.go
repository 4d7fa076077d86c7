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

func rollbackFixture() (*fakeTarget, []domain.TargetProduct) {
	target := newFakeTarget(
		domain.TargetProduct{ID: 1, Title: "Tee v2", Published: domain.Bool(false)},
		domain.TargetProduct{ID: 2, Title: "Polo v2"},
		domain.TargetProduct{ID: 3, Title: "Cap v2"},
	)
	previous := []domain.TargetProduct{
		{ID: 1, Title: "Tee", ProductType: "Shirts", Tags: domain.TagList{"Clothing"}, Variants: []domain.Variant{{ID: 10, Option1: "M", Price: "10.00"}}},
		{ID: 2, Title: "Polo"},
		{ID: 3, Title: "Cap"},
	}
	return target, previous
}

func TestRollbackAppliesAndRecords(t *testing.T) {
	target, previous := rollbackFixture()
	history := &fakeHistory{}

	report, err := NewRollbacker(history, logger.NewNop()).Rollback(context.Background(), target, "B1", previous)
	require.NoError(t, err)

	for _, it := range report.Items {
		assert.Equal(t, domain.RollbackApplied, it.Status)
		assert.NotEmpty(t, it.SnapshotKey)
	}
	assert.Equal(t, "Tee", target.products[0].Title)
	require.NotNil(t, target.products[0].Published)
	assert.True(t, *target.products[0].Published)
	assert.Equal(t, "10.00", target.products[0].Variants[0].Price)

	require.Equal(t, 3, history.count())
	for _, s := range history.snapshots {
		assert.Equal(t, domain.SnapshotRollback, s.Kind)
		assert.Len(t, s.Products, 1)
	}
}

func TestRollbackStopsAtFirstFailure(t *testing.T) {
	target, previous := rollbackFixture()
	target.failUpdate[2] = true
	history := &fakeHistory{}

	report, err := NewRollbacker(history, logger.NewNop()).Rollback(context.Background(), target, "B1", previous)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRollbackFailed))

	assert.Equal(t, domain.RollbackApplied, report.Items[0].Status)
	assert.Equal(t, domain.RollbackFailed, report.Items[1].Status)
	assert.NotEmpty(t, report.Items[1].Error)
	assert.Equal(t, domain.RollbackNotAttempted, report.Items[2].Status)

	assert.Equal(t, 1, history.count())
	assert.Equal(t, "Cap v2", target.products[2].Title)
}

func TestRollbackRejectsMissingID(t *testing.T) {
	target := newFakeTarget()
	report, err := NewRollbacker(&fakeHistory{}, logger.NewNop()).Rollback(context.Background(), target, "B1",
		[]domain.TargetProduct{{Title: "no id"}})
	assert.True(t, errors.Is(err, domain.ErrRollbackFailed))
	assert.True(t, errors.Is(err, domain.ErrInvalidProduct))
	assert.Equal(t, domain.RollbackFailed, report.Items[0].Status)
}

func TestRollbackEmpty(t *testing.T) {
	report, err := NewRollbacker(&fakeHistory{}, logger.NewNop()).Rollback(context.Background(), newFakeTarget(), "B1", nil)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
}
