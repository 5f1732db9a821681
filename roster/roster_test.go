package roster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabaispa/backoffice/roster"
	"github.com/sabaispa/backoffice/store"
	"github.com/sabaispa/backoffice/store/memory"
)

func newService(t *testing.T, policy roster.Policy) (*roster.Service, *memory.Gateway) {
	t.Helper()
	gw := memory.New()
	svc := roster.NewService(gw, policy)
	require.NoError(t, svc.EnsureIndexes(context.Background()))
	return svc, gw
}

func grid(rows ...string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestUpsert_Validation(t *testing.T) {
	svc, _ := newService(t, roster.PolicyFullReplace)
	ctx := context.Background()

	_, _, err := svc.Upsert(ctx, 0, 5, grid("a"), nil)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, _, err = svc.Upsert(ctx, 2024, 13, grid("a"), nil)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)

	_, _, err = svc.Upsert(ctx, 2024, 5, nil, nil)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newService(t, roster.PolicyFullReplace)

	_, err := svc.Get(context.Background(), 2024, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// UNIQUENESS AND IDEMPOTENCE
// =============================================================================

func TestUpsert_SingleDocumentPerKey(t *testing.T) {
	// GIVEN: several upserts for the same (year, month)
	svc, gw := newService(t, roster.PolicyFullReplace)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := svc.Upsert(ctx, 2024, 5, grid("rev"), nil)
		require.NoError(t, err)
	}

	// THEN: exactly one document exists for the key
	docs, err := gw.Collection(roster.CollectionName).Find(ctx,
		store.Where(store.Eq("year", 2024), store.Eq("month", 5)))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestUpsert_FullReplace_Idempotent(t *testing.T) {
	svc, _ := newService(t, roster.PolicyFullReplace)
	ctx := context.Background()

	first, created, err := svc.Upsert(ctx, 2024, 5, grid("a", "b"), []any{"sum"})
	require.NoError(t, err)
	assert.True(t, created)
	require.False(t, first.CreatedAt.IsZero())

	second, created, err := svc.Upsert(ctx, 2024, 5, grid("a", "b"), []any{"sum"})
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.Grid, second.Grid)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "createdAt must survive re-upserts")
}

func TestUpsert_FullReplace_OverwritesSummaryWhenSupplied(t *testing.T) {
	svc, _ := newService(t, roster.PolicyFullReplace)
	ctx := context.Background()

	_, _, err := svc.Upsert(ctx, 2024, 5, grid("a"), []any{"old"})
	require.NoError(t, err)

	// Summary omitted: grid changes, summary stays.
	sched, _, err := svc.Upsert(ctx, 2024, 5, grid("b"), nil)
	require.NoError(t, err)
	assert.Equal(t, grid("b"), sched.Grid)
	assert.Equal(t, []any{"old"}, sched.Summary)

	// Summary supplied: both change.
	sched, _, err = svc.Upsert(ctx, 2024, 5, grid("c"), []any{"new"})
	require.NoError(t, err)
	assert.Equal(t, []any{"new"}, sched.Summary)
}

func TestUpsert_MergePolicy_NeverTouchesSummary(t *testing.T) {
	svc, _ := newService(t, roster.PolicyMergeGrid)
	ctx := context.Background()

	first, _, err := svc.Upsert(ctx, 2024, 5, grid("a"), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, first.Summary, "created with empty summary")

	// Under merge policy a supplied summary is ignored for existing keys.
	second, _, err := svc.Upsert(ctx, 2024, 5, grid("b"), []any{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, grid("b"), second.Grid)
	assert.Equal(t, []any{}, second.Summary)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestUpsert_CreateWithEmptySummary(t *testing.T) {
	svc, _ := newService(t, roster.PolicyFullReplace)

	sched, created, err := svc.Upsert(context.Background(), 2025, 1, grid("x"), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []any{}, sched.Summary)
}

// =============================================================================
// CREATE RACE
// =============================================================================

// conflictOnce wraps a collection and fails the first Upsert with
// ErrConflict, simulating a lost create race against a concurrent writer.
type conflictOnce struct {
	store.Collection
	fired bool
}

func (c *conflictOnce) Upsert(ctx context.Context, filter store.Filter, set, setOnInsert store.Document) (store.Document, bool, error) {
	if !c.fired {
		c.fired = true
		return nil, false, store.ErrConflict
	}
	return c.Collection.Upsert(ctx, filter, set, setOnInsert)
}

type conflictGateway struct {
	store.Gateway
	col *conflictOnce
}

func (g *conflictGateway) Collection(name string) store.Collection { return g.col }

func TestUpsert_LostCreateRace_RetriesAsUpdate(t *testing.T) {
	mem := memory.New()
	gw := &conflictGateway{Gateway: mem, col: &conflictOnce{Collection: mem.Collection(roster.CollectionName)}}
	svc := roster.NewService(gw, roster.PolicyFullReplace)

	sched, _, err := svc.Upsert(context.Background(), 2024, 7, grid("racing"), nil)
	require.NoError(t, err)
	assert.Equal(t, grid("racing"), sched.Grid)
	assert.True(t, gw.col.fired)
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestGet_ReturnsStoredSchedule(t *testing.T) {
	svc, _ := newService(t, roster.PolicyFullReplace)
	ctx := context.Background()

	saved, _, err := svc.Upsert(ctx, 2024, 12, grid("mon", "tue"), []any{"totals"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, 2024, 12)
	require.NoError(t, err)
	assert.Equal(t, saved.Grid, got.Grid)
	assert.Equal(t, saved.Summary, got.Summary)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, 12, got.Month)
}
