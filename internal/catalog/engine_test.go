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

func newTestEngine(source Source, history HistoryAppender, opts Options) *Engine {
	e := NewEngine(source, history, opts, logger.NewNop())
	e.newID = func() string { return "run-1" }
	return e
}

func actions(r *domain.RunReport) []domain.Action {
	out := make([]domain.Action, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.Action)
	}
	return out
}

func TestRunCreatesLinksAndRecords(t *testing.T) {
	target := newFakeTarget()
	history := &fakeHistory{}
	source := &fakeSource{pages: [][]domain.ExternalProduct{
		{shirt("P1", "Tee", 10), shirt("P2", "Polo", 20)},
	}}

	report, err := newTestEngine(source, history, Options{}).Run(context.Background(), target, "B1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []domain.Action{domain.ActionCreated, domain.ActionCreated}, actions(report))
	assert.Len(t, report.Products, 2)

	require.Len(t, target.collections, 1)
	assert.Equal(t, "Clothing", target.collections[0].Title)
	assert.Len(t, target.collects, 2)

	for _, p := range report.Products {
		require.Len(t, target.metafields[p.ID], 1)
	}

	require.Equal(t, 2, history.count())
	assert.Len(t, history.snapshots[0].Products, 1)
	assert.Len(t, history.snapshots[1].Products, 2)
	assert.Equal(t, domain.SnapshotSync, history.snapshots[1].Kind)
	assert.Equal(t, "run-1", history.snapshots[1].RunID)
}

func TestRunIsIdempotent(t *testing.T) {
	target := newFakeTarget()
	history := &fakeHistory{}
	withVariants := shirt("P3", "Hoodie", 45.5)
	withVariants.HasVariants = true
	withVariants.Variants = domain.ExternalVariants{
		AllVariants:     []domain.ExternalVariant{{ColorName: "Red", SizeName: "M"}},
		AvailableColors: []string{"Red"},
		AvailableSizes:  []string{"M"},
	}
	source := &fakeSource{pages: [][]domain.ExternalProduct{
		{shirt("P1", "Tee", 19.99)},
		{shirt("P2", "Polo", 20), withVariants},
	}}
	engine := newTestEngine(source, history, Options{})

	_, err := engine.Run(context.Background(), target, "B1")
	require.NoError(t, err)
	writes := target.writeCount()
	snapshots := history.count()

	report, err := engine.Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionSkipped, domain.ActionSkipped, domain.ActionSkipped}, actions(report))
	assert.Equal(t, writes, target.writeCount())
	assert.Equal(t, snapshots, history.count())
	assert.Empty(t, report.Products)
}

func TestRunUpdatesOnChange(t *testing.T) {
	existing := domain.TargetProduct{
		ID:          7,
		Title:       "Tee",
		ProductType: "Shirts",
		BodyHTML:    "<p>old</p>",
		Variants:    []domain.Variant{{ID: 70, Option1: "Default Title", Price: "10.00"}},
	}
	target := newFakeTarget(existing)
	history := &fakeHistory{}
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}

	report, err := newTestEngine(source, history, Options{}).Run(context.Background(), target, "B1")
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, domain.ActionUpdated, report.Items[0].Action)
	assert.Equal(t, int64(7), report.Items[0].ProductID)
	assert.Len(t, target.products, 1)
	assert.Equal(t, "<p>Tee</p>", target.products[0].BodyHTML)
	assert.Equal(t, "10.00", target.products[0].Variants[0].Price, "variants are not touched by update")
	assert.Empty(t, target.metafields[7], "update does not link")
	assert.Equal(t, 1, history.count())
}

func TestRunClearedFieldsUpdateOnce(t *testing.T) {
	existing := domain.TargetProduct{
		ID:          7,
		Title:       "Tee",
		ProductType: "Shirts",
		BodyHTML:    "<p>old</p>",
		Tags:        domain.TagList{"Clothing", "Shirts"},
		Variants:    []domain.Variant{{ID: 70, Option1: "Default Title", Price: "10.00"}},
	}
	target := newFakeTarget(existing)
	ext := shirt("P1", "Tee", 10)
	ext.Description = ""
	ext.CategoryName = ""
	ext.SubcategoryName = ""
	source := &fakeSource{pages: [][]domain.ExternalProduct{{ext}}}
	engine := newTestEngine(source, &fakeHistory{}, Options{})

	report, err := engine.Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionUpdated}, actions(report))
	assert.Empty(t, target.products[0].BodyHTML)
	assert.Empty(t, target.products[0].ProductType)
	assert.Empty(t, target.products[0].Tags)

	report, err = engine.Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionSkipped}, actions(report))
}

func TestRunListFailureAborts(t *testing.T) {
	target := newFakeTarget()
	target.failList = true
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}

	report, err := newTestEngine(source, &fakeHistory{}, Options{}).Run(context.Background(), target, "B1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSyncAborted)
	assert.ErrorIs(t, err, domain.ErrTargetUnavailable)
	assert.Equal(t, domain.ErrSyncAborted, domain.Kind(err))
	require.NotNil(t, report)
	assert.Empty(t, report.Items)
}

func TestRunTitleMismatchCreates(t *testing.T) {
	target := newFakeTarget(domain.TargetProduct{ID: 7, Title: "tee", Variants: []domain.Variant{{Price: "10"}}})
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}

	report, err := newTestEngine(source, &fakeHistory{}, Options{}).Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionCreated}, actions(report))
	assert.Len(t, target.products, 2)
}

func TestRunDuplicateLabelAcrossPagesDoesNotRecreate(t *testing.T) {
	target := newFakeTarget()
	first := shirt("P1", "Tee", 10)
	second := shirt("P1b", "Tee", 10.5)
	source := &fakeSource{pages: [][]domain.ExternalProduct{{first}, {second}}}

	report, err := newTestEngine(source, &fakeHistory{}, Options{}).Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionCreated, domain.ActionSkipped}, actions(report))
	assert.Len(t, target.products, 1)
}

func TestRunContinuesAfterItemFailure(t *testing.T) {
	target := newFakeTarget()
	target.failCreate["Tee"] = true
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10), shirt("P2", "Polo", 10)}}}

	report, err := newTestEngine(source, &fakeHistory{}, Options{}).Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionFailed, domain.ActionCreated}, actions(report))
	assert.Contains(t, report.Items[0].Error, "write failed")
}

func TestRunFailFast(t *testing.T) {
	target := newFakeTarget()
	target.failCreate["Tee"] = true
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P0", "Cap", 5), shirt("P1", "Tee", 10), shirt("P2", "Polo", 10)}}}

	report, err := newTestEngine(source, &fakeHistory{}, Options{FailFast: true}).Run(context.Background(), target, "B1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSyncAborted))
	assert.Equal(t, []domain.Action{domain.ActionCreated, domain.ActionFailed}, actions(report))
	assert.Len(t, report.Products, 1)
}

func TestRunPageFailureAborts(t *testing.T) {
	target := newFakeTarget()
	source := &fakeSource{
		pages:  [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}, {shirt("P2", "Polo", 10)}},
		failAt: 2,
	}

	report, err := newTestEngine(source, &fakeHistory{}, Options{}).Run(context.Background(), target, "B1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSyncAborted))
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
	assert.Equal(t, domain.ErrSyncAborted, domain.Kind(err))
	require.NotNil(t, report)
	assert.Len(t, report.Products, 1)
	assert.Equal(t, 1, report.Pages)
}

func TestRunLinkagePolicy(t *testing.T) {
	source := func() *fakeSource {
		return &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}
	}

	t.Run("recorded on item", func(t *testing.T) {
		target := newFakeTarget()
		target.failMetafields = true
		report, err := newTestEngine(source(), &fakeHistory{}, Options{}).Run(context.Background(), target, "B1")
		require.NoError(t, err)
		assert.Equal(t, domain.ActionCreated, report.Items[0].Action)
		assert.NotEmpty(t, report.Items[0].LinkError)
	})

	t.Run("fatal", func(t *testing.T) {
		target := newFakeTarget()
		target.failMetafields = true
		history := &fakeHistory{}
		report, err := newTestEngine(source(), history, Options{LinkageFatal: true}).Run(context.Background(), target, "B1")
		require.NoError(t, err)
		assert.Equal(t, domain.ActionFailed, report.Items[0].Action)
		assert.Contains(t, report.Items[0].Error, "linkage write failed")

		// The product exists on the shop, so it stays in the written list and the snapshot
		require.Len(t, report.Products, 1)
		assert.Equal(t, report.Items[0].ProductID, report.Products[0].ID)
		require.Equal(t, 1, history.count())
		assert.Equal(t, report.Products[0].ID, history.snapshots[0].Products[0].ID)
	})
}

func TestRunHistoryFailureIsRecorded(t *testing.T) {
	target := newFakeTarget()
	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}

	report, err := newTestEngine(source, &fakeHistory{fail: true}, Options{}).Run(context.Background(), target, "B1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreated, report.Items[0].Action)
	assert.NotEmpty(t, report.Items[0].HistoryError)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{pages: [][]domain.ExternalProduct{{shirt("P1", "Tee", 10)}}}
	target := newFakeTarget()

	report, err := newTestEngine(source, &fakeHistory{}, Options{}).Run(ctx, target, "B1")
	assert.True(t, errors.Is(err, domain.ErrSyncAborted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, report.Items)
	assert.Zero(t, target.writeCount())
}

func TestRunRequiresBusinessCode(t *testing.T) {
	_, err := newTestEngine(&fakeSource{}, &fakeHistory{}, Options{}).Run(context.Background(), newFakeTarget(), "")
	assert.True(t, errors.Is(err, domain.ErrConfigMissing))
}
