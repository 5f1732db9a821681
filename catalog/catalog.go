/*
Package catalog holds the shift catalog and the holiday calendar.

PURPOSE:
  Shift definitions are plain CRUD with a display order: listing sorts by
  the order field ascending, ties broken by insertion order. Holidays are
  the special-day calendar of the original deployment ({date, th, en}
  documents), listed by date.
*/
package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sabaispa/backoffice/store"
)

const (
	ShiftsCollection   = "shifts"
	HolidaysCollection = "holidays"
)

// ShiftDefinition describes one entry of the shift catalog. Order is not
// unique; equal orders keep insertion order.
type ShiftDefinition struct {
	ID          string
	Name        string
	Description string
	Active      bool
	Order       int
	CreatedAt   time.Time
}

// Holiday is a special-day entry with Thai and English display names.
type Holiday struct {
	ID     string
	Date   string // YYYY-MM-DD
	NameTH string
	NameEN string
}

// Service implements catalog CRUD over the store.
type Service struct {
	shifts   store.Collection
	holidays store.Collection
	now      func() time.Time
}

func NewService(gw store.Gateway) *Service {
	return &Service{
		shifts:   gw.Collection(ShiftsCollection),
		holidays: gw.Collection(HolidaysCollection),
		now:      time.Now,
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

// CreateShift adds a shift definition.
func (s *Service) CreateShift(ctx context.Context, def ShiftDefinition) (ShiftDefinition, error) {
	if strings.TrimSpace(def.Name) == "" {
		return ShiftDefinition{}, store.InvalidArgf("shift name is required")
	}
	def.ID = uuid.NewString()
	def.CreatedAt = s.now().UTC()
	_, err := s.shifts.Insert(ctx, store.Document{
		store.IDField: def.ID,
		"name":        def.Name,
		"description": def.Description,
		"active":      def.Active,
		"order":       def.Order,
		"createdAt":   def.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return ShiftDefinition{}, err
	}
	return def, nil
}

// ListShifts returns all shift definitions sorted by order ascending.
// Backends preserve insertion order, so a stable sort keeps ties in the
// order they were created.
func (s *Service) ListShifts(ctx context.Context) ([]ShiftDefinition, error) {
	docs, err := s.shifts.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]ShiftDefinition, len(docs))
	for i, d := range docs {
		out[i] = decodeShift(d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// UpdateShift rewrites the named fields of an existing shift.
func (s *Service) UpdateShift(ctx context.Context, id string, def ShiftDefinition) (ShiftDefinition, error) {
	if strings.TrimSpace(def.Name) == "" {
		return ShiftDefinition{}, store.InvalidArgf("shift name is required")
	}
	doc, err := s.shifts.Update(ctx, store.ByID(id), store.Document{
		"name":        def.Name,
		"description": def.Description,
		"active":      def.Active,
		"order":       def.Order,
	})
	if err != nil {
		return ShiftDefinition{}, err
	}
	return decodeShift(doc), nil
}

// DeleteShift removes a shift definition by id.
func (s *Service) DeleteShift(ctx context.Context, id string) error {
	return s.shifts.Delete(ctx, store.ByID(id))
}

func decodeShift(doc store.Document) ShiftDefinition {
	def := ShiftDefinition{
		ID:          store.Str(doc, store.IDField),
		Name:        store.Str(doc, "name"),
		Description: store.Str(doc, "description"),
		Active:      store.Bool(doc, "active"),
		Order:       store.Int(doc, "order"),
	}
	if ts, err := time.Parse(time.RFC3339Nano, store.Str(doc, "createdAt")); err == nil {
		def.CreatedAt = ts
	}
	return def
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ListHolidays returns all holidays sorted by date.
func (s *Service) ListHolidays(ctx context.Context) ([]Holiday, error) {
	docs, err := s.holidays.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Holiday, len(docs))
	for i, d := range docs {
		out[i] = Holiday{
			ID:     store.Str(d, store.IDField),
			Date:   store.Str(d, "date"),
			NameTH: store.Str(d, "th"),
			NameEN: store.Str(d, "en"),
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// CreateHoliday adds a holiday. The date must be a calendar date.
func (s *Service) CreateHoliday(ctx context.Context, h Holiday) (Holiday, error) {
	if _, err := time.Parse("2006-01-02", h.Date); err != nil {
		return Holiday{}, store.InvalidArgf("invalid holiday date %q (use YYYY-MM-DD)", h.Date)
	}
	h.ID = uuid.NewString()
	_, err := s.holidays.Insert(ctx, store.Document{
		store.IDField: h.ID,
		"date":        h.Date,
		"th":          h.NameTH,
		"en":          h.NameEN,
	})
	if err != nil {
		return Holiday{}, err
	}
	return h, nil
}

// DeleteHoliday removes a holiday by id.
func (s *Service) DeleteHoliday(ctx context.Context, id string) error {
	return s.holidays.Delete(ctx, store.ByID(id))
}
