/*
Package roster owns the monthly schedule entity and its upsert protocol.

PURPOSE:
  A monthly schedule is keyed by (year, month) and holds an opaque grid of
  shift-assignment rows supplied by the client, plus an optional derived
  summary. The service guarantees at most one document per (year, month)
  through a unique index and a single conditional upsert.

MERGE POLICY:
  Two historical revisions of this service disagreed on what an upsert
  overwrites. The policy is now an explicit construction-time choice:

    PolicyFullReplace  overwrite the grid and, when supplied, the summary
    PolicyMergeGrid    overwrite only the grid; summary is never touched

  One service instance runs exactly one policy. createdAt is set on first
  creation only and is never accepted from the caller.

CONCURRENCY:
  Two concurrent upserts racing between find and create are resolved by the
  unique index: the loser's insert fails with a conflict and is retried once
  as an update, so the key invariant holds without locks.
*/
package roster

import (
	"context"
	"errors"
	"time"

	"github.com/sabaispa/backoffice/store"
)

// CollectionName is the backing collection for monthly schedules.
const CollectionName = "schedules"

// Policy names the upsert-merge behavior of a Service instance.
type Policy string

const (
	// PolicyFullReplace overwrites the grid and, when the caller supplies
	// one, the summary. The default.
	PolicyFullReplace Policy = "replace"

	// PolicyMergeGrid overwrites only the grid; an existing summary is left
	// untouched even when the caller sends one.
	PolicyMergeGrid Policy = "merge"
)

// ParsePolicy maps a configuration value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFullReplace, PolicyMergeGrid:
		return Policy(s), nil
	case "":
		return PolicyFullReplace, nil
	}
	return "", store.InvalidArgf("unknown roster policy %q", s)
}

// Schedule is the monthly roster document.
type Schedule struct {
	ID        string
	Year      int
	Month     int
	Grid      []any // opaque shift-assignment rows, structure owned by the client
	Summary   []any
	CreatedAt time.Time
}

// Service implements the roster upsert protocol over a store collection.
type Service struct {
	col    store.Collection
	policy Policy
	now    func() time.Time
}

func NewService(gw store.Gateway, policy Policy) *Service {
	return &Service{
		col:    gw.Collection(CollectionName),
		policy: policy,
		now:    time.Now,
	}
}

// EnsureIndexes declares the (year, month) uniqueness constraint.
// Called once at startup.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	return s.col.EnsureUniqueIndex(ctx, "year", "month")
}

// Upsert creates or updates the schedule for (year, month). summary may be
// nil. Returns the resulting schedule and whether it was created.
func (s *Service) Upsert(ctx context.Context, year, month int, grid, summary []any) (Schedule, bool, error) {
	if year <= 0 {
		return Schedule{}, false, store.InvalidArgf("year is required")
	}
	if month < 1 || month > 12 {
		return Schedule{}, false, store.InvalidArgf("month must be between 1 and 12")
	}
	if grid == nil {
		return Schedule{}, false, store.InvalidArgf("schedule grid is required")
	}

	set := store.Document{"schedule": grid}
	setOnInsert := store.Document{
		"createdAt": s.now().UTC().Format(time.RFC3339Nano),
	}
	switch {
	case s.policy == PolicyFullReplace && summary != nil:
		set["summary"] = summary
	default:
		// Merge policy, or replace with no summary supplied: the summary is
		// only written when the document is first created.
		setOnInsert["summary"] = []any{}
	}

	filter := store.Where(store.Eq("year", year), store.Eq("month", month))
	doc, created, err := s.col.Upsert(ctx, filter, set, setOnInsert)
	if errors.Is(err, store.ErrConflict) {
		// Lost the create race to a concurrent upsert for the same key.
		// The document exists now, so a second pass takes the update path.
		doc, created, err = s.col.Upsert(ctx, filter, set, setOnInsert)
	}
	if err != nil {
		return Schedule{}, false, err
	}
	return decode(doc), created, nil
}

// Get returns the schedule for (year, month).
// Returns store.ErrNotFound when no roster has been saved for that key.
func (s *Service) Get(ctx context.Context, year, month int) (Schedule, error) {
	if month < 1 || month > 12 {
		return Schedule{}, store.InvalidArgf("month must be between 1 and 12")
	}
	doc, err := s.col.FindOne(ctx, store.Where(store.Eq("year", year), store.Eq("month", month)))
	if err != nil {
		return Schedule{}, err
	}
	return decode(doc), nil
}

func decode(doc store.Document) Schedule {
	sched := Schedule{
		ID:      store.Str(doc, store.IDField),
		Year:    store.Int(doc, "year"),
		Month:   store.Int(doc, "month"),
		Grid:    store.Slice(doc, "schedule"),
		Summary: store.Slice(doc, "summary"),
	}
	if ts, err := time.Parse(time.RFC3339Nano, store.Str(doc, "createdAt")); err == nil {
		sched.CreatedAt = ts
	}
	return sched
}
