package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabaispa/backoffice/directory"
	"github.com/sabaispa/backoffice/store"
	"github.com/sabaispa/backoffice/store/memory"
)

func newService(t *testing.T) *directory.Service {
	t.Helper()
	svc := directory.NewService(memory.New())
	require.NoError(t, svc.EnsureIndexes(context.Background()))
	return svc
}

func TestCreate_DefaultsPosition(t *testing.T) {
	svc := newService(t)

	emp, err := svc.Create(context.Background(), "Somchai", "")
	require.NoError(t, err)
	assert.Equal(t, "Somchai", emp.Name)
	assert.Equal(t, directory.DefaultPosition, emp.Position)
	assert.NotEmpty(t, emp.ID, "surrogate id is assigned on create")
}

func TestCreate_EmptyName(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(context.Background(), "  ", "Therapist")
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestCreate_DuplicateName_Conflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Nok", "Therapist")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Nok", "Receptionist")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestUpdate_InPlacePosition(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Somchai", "Therapist")
	require.NoError(t, err)

	// Same name: position-only update, identity unchanged.
	updated, err := svc.Update(ctx, "Somchai", "Somchai", "Manager")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Manager", updated.Position)
}

func TestUpdate_Rename(t *testing.T) {
	// GIVEN: Alice exists
	svc := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Alice", "Therapist")
	require.NoError(t, err)

	// WHEN: renamed to Bob
	renamed, err := svc.Update(ctx, "Alice", "Bob", "Masseuse")
	require.NoError(t, err)

	// THEN: the old name is gone, the new one resolves, the surrogate id
	// survived the rename
	_, err = svc.Get(ctx, "Alice")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := svc.Get(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Masseuse", got.Position)
	assert.Equal(t, created.ID, renamed.ID)
	assert.Equal(t, created.ID, got.ID)
}

func TestUpdate_RenameCollision_LeavesBothIntact(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Alice", "Therapist")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Bob", "Receptionist")
	require.NoError(t, err)

	_, err = svc.Update(ctx, "Alice", "Bob", "Masseuse")
	assert.ErrorIs(t, err, store.ErrConflict)

	// Both pre-existing records are untouched.
	alice, err := svc.Get(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Therapist", alice.Position)

	bob, err := svc.Get(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Receptionist", bob.Position)
}

func TestUpdate_MissingEmployee(t *testing.T) {
	svc := newService(t)

	_, err := svc.Update(context.Background(), "Ghost", "Phantom", "Therapist")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_SecondCallReportsNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Nok", "Therapist")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "Nok"))
	assert.ErrorIs(t, svc.Delete(ctx, "Nok"), store.ErrNotFound)
}

func TestList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, name, "Therapist")
		require.NoError(t, err)
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
