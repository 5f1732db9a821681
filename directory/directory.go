/*
Package directory owns employee identity and rename semantics.

PURPOSE:
  Historically this service used the employee's display name as the storage
  primary key, which made every rename a delete-then-recreate with a window
  where the record did not exist at all. The directory now keeps an internal
  surrogate id and treats the name as a regular mutable attribute under a
  unique index: a rename is a single conditional update, and a collision
  with an existing name fails with a conflict while both records stay
  intact.

  The REST surface still addresses employees by name, and responses carry
  both id and name, so consumers that relied on the identifier equaling the
  display name have a stable mapping.
*/
package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sabaispa/backoffice/store"
)

// CollectionName is the backing collection for employees.
const CollectionName = "employees"

// DefaultPosition is assigned when a new employee has no position.
const DefaultPosition = "Therapist"

// Employee is a directory record. ID is a surrogate identifier; Name is the
// unique human-facing attribute clients address records by.
type Employee struct {
	ID       string
	Name     string
	Position string
}

// Service implements the employee directory over a store collection.
type Service struct {
	col store.Collection
}

func NewService(gw store.Gateway) *Service {
	return &Service{col: gw.Collection(CollectionName)}
}

// EnsureIndexes declares the name uniqueness constraint. Called at startup.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	return s.col.EnsureUniqueIndex(ctx, "name")
}

// Create inserts a new employee. Returns store.ErrConflict when the name is
// already taken. An empty position defaults to DefaultPosition.
func (s *Service) Create(ctx context.Context, name, position string) (Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Employee{}, store.InvalidArgf("name is required")
	}
	if position == "" {
		position = DefaultPosition
	}
	emp := Employee{ID: uuid.NewString(), Name: name, Position: position}
	if _, err := s.col.Insert(ctx, store.Document{
		store.IDField: emp.ID,
		"name":        emp.Name,
		"position":    emp.Position,
	}); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// Get returns the employee addressed by name.
func (s *Service) Get(ctx context.Context, name string) (Employee, error) {
	doc, err := s.col.FindOne(ctx, store.Where(store.Eq("name", name)))
	if err != nil {
		return Employee{}, err
	}
	return decode(doc), nil
}

// List returns all employees. Order is unspecified.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	docs, err := s.col.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Employee, len(docs))
	for i, d := range docs {
		out[i] = decode(d)
	}
	return out, nil
}

// Update rewrites the employee currently addressed by currentName. When
// newName differs this is a rename: a single conditional update guarded by
// the unique name index, so a collision with an existing name returns
// store.ErrConflict and leaves both records untouched. Returns
// store.ErrNotFound when currentName does not exist.
func (s *Service) Update(ctx context.Context, currentName, newName, newPosition string) (Employee, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Employee{}, store.InvalidArgf("name is required")
	}
	if newPosition == "" {
		newPosition = DefaultPosition
	}
	doc, err := s.col.Update(ctx,
		store.Where(store.Eq("name", currentName)),
		store.Document{"name": newName, "position": newPosition})
	if err != nil {
		return Employee{}, err
	}
	return decode(doc), nil
}

// Delete removes the employee addressed by name. A second delete of the
// same name reports store.ErrNotFound.
func (s *Service) Delete(ctx context.Context, name string) error {
	return s.col.Delete(ctx, store.Where(store.Eq("name", name)))
}

func decode(doc store.Document) Employee {
	return Employee{
		ID:       store.Str(doc, store.IDField),
		Name:     store.Str(doc, "name"),
		Position: store.Str(doc, "position"),
	}
}
