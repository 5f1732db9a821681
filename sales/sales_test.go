package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabaispa/backoffice/sales"
	"github.com/sabaispa/backoffice/store"
	"github.com/sabaispa/backoffice/store/memory"
)

func newService(t *testing.T, rep sales.Representation) (*sales.Service, *memory.Gateway) {
	t.Helper()
	gw := memory.New()
	return sales.NewService(gw, rep), gw
}

func sale(at time.Time, income float64) sales.Sale {
	return sales.Sale{
		OccurredAt:      at,
		CustomerCount:   3,
		Income:          decimal.NewFromFloat(income),
		WorkPeriodLabel: "เช้า",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// CRUD
// =============================================================================

func TestCreateGetRoundTrip(t *testing.T) {
	svc, _ := newService(t, sales.RepNative)
	ctx := context.Background()

	created, err := svc.Create(ctx, sale(day(2024, 3, 10).Add(14*time.Hour), 4200.50))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.OccurredAt.Equal(created.OccurredAt))
	assert.True(t, got.Income.Equal(decimal.NewFromFloat(4200.50)))
	assert.Equal(t, "เช้า", got.WorkPeriodLabel)
}

func TestCreate_MissingDate(t *testing.T) {
	svc, _ := newService(t, sales.RepNative)

	_, err := svc.Create(context.Background(), sales.Sale{Income: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newService(t, sales.RepNative)
	ctx := context.Background()

	created, err := svc.Create(ctx, sale(day(2024, 3, 10), 100))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, sale(day(2024, 3, 11), 250))
	require.NoError(t, err)
	assert.True(t, updated.Income.Equal(decimal.NewFromInt(250)))
	assert.True(t, updated.OccurredAt.Equal(day(2024, 3, 11)))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), store.ErrNotFound)
	_, err = svc.Update(ctx, "missing", sale(day(2024, 1, 1), 1))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// RANGE QUERIES
// =============================================================================

func TestFindByDateRange_EndDayInclusive(t *testing.T) {
	// GIVEN: a record late in the evening of the end day
	svc, _ := newService(t, sales.RepNative)
	ctx := context.Background()

	_, err := svc.Create(ctx, sale(day(2024, 1, 15).Add(23*time.Hour+30*time.Minute), 900))
	require.NoError(t, err)

	// WHEN: querying with a date-only end boundary on that day
	got, err := svc.FindByDateRange(ctx, "2024-01-01", "2024-01-15")
	require.NoError(t, err)

	// THEN: the record is included regardless of time-of-day
	require.Len(t, got, 1)
}

func TestFindByDateRange_ExcludesOutside(t *testing.T) {
	svc, _ := newService(t, sales.RepNative)
	ctx := context.Background()

	_, err := svc.Create(ctx, sale(day(2024, 1, 16), 100))
	require.NoError(t, err)
	_, err = svc.Create(ctx, sale(day(2023, 12, 31), 100))
	require.NoError(t, err)
	_, err = svc.Create(ctx, sale(day(2024, 1, 10), 100))
	require.NoError(t, err)

	got, err := svc.FindByDateRange(ctx, "2024-01-01", "2024-01-15")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].OccurredAt.Equal(day(2024, 1, 10)))
}

func TestFindByDateRange_NoBounds_AllAscending(t *testing.T) {
	svc, _ := newService(t, sales.RepNative)
	ctx := context.Background()

	for _, d := range []int{20, 5, 12} {
		_, err := svc.Create(ctx, sale(day(2024, 2, d), 100))
		require.NoError(t, err)
	}

	got, err := svc.FindByDateRange(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].OccurredAt.Before(got[1].OccurredAt))
	assert.True(t, got[1].OccurredAt.Before(got[2].OccurredAt))
}

func TestFindByDateRange_InvalidBoundary(t *testing.T) {
	svc, _ := newService(t, sales.RepNative)

	_, err := svc.FindByDateRange(context.Background(), "not-a-date", "2024-01-01")
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, err = svc.FindByDateRange(context.Background(), "2024-01-01", "31/01/2024")
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

// =============================================================================
// REPRESENTATIONS
// =============================================================================

func TestEpochPairRepresentation_WriteAndRange(t *testing.T) {
	svc, gw := newService(t, sales.RepEpochPair)
	ctx := context.Background()

	created, err := svc.Create(ctx, sale(day(2024, 5, 2).Add(18*time.Hour), 777))
	require.NoError(t, err)

	// Stored shape is the decomposed pair, not a timestamp string.
	doc, err := gw.Collection(sales.CollectionName).FindOne(ctx, store.ByID(created.ID))
	require.NoError(t, err)
	pair, ok := doc["occurredAt"].(map[string]any)
	require.True(t, ok, "occurredAt should be stored as {seconds, nanos}")
	assert.Contains(t, pair, "seconds")

	// Range predicate targets the pair's seconds field.
	got, err := svc.FindByDateRange(ctx, "2024-05-01", "2024-05-02")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].OccurredAt.Equal(created.OccurredAt))
}

func TestNormalization_ReadsLegacyPairUnderNativeConfig(t *testing.T) {
	// GIVEN: a legacy record imported in the epoch-pair shape
	svc, gw := newService(t, sales.RepNative)
	ctx := context.Background()

	at := day(2023, 11, 20).Add(9 * time.Hour)
	_, err := gw.Collection(sales.CollectionName).Insert(ctx, store.Document{
		store.IDField: "legacy-1",
		"occurredAt":  map[string]any{"seconds": at.Unix(), "nanos": int64(0)},
		"income":      "1500",
	})
	require.NoError(t, err)

	// THEN: reads normalize it into the canonical timestamp
	got, err := svc.Get(ctx, "legacy-1")
	require.NoError(t, err)
	assert.True(t, got.OccurredAt.Equal(at))
	assert.True(t, got.Income.Equal(decimal.NewFromInt(1500)))
}

func TestNormalizeOccurredAt_Malformed(t *testing.T) {
	_, err := sales.NormalizeOccurredAt("yesterday")
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, err = sales.NormalizeOccurredAt(42)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, err = sales.NormalizeOccurredAt(map[string]any{"nanos": int64(5)})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}
