/*
Package sales owns the sales ledger: transaction records, date-range
queries, and the date-representation normalization the ledger has to carry
across schema generations.

DATE REPRESENTATIONS:
  occurredAt is stored in one of two shapes:

    native      a UTC timestamp string, fixed-width so that string
                comparison orders chronologically
    epoch pair  {seconds, nanos}, a legacy import format

  Reads normalize either shape into time.Time through one function; raw
  representations are never compared directly. Writes always use the
  representation configured for the active schema generation. Old records
  are not upgraded in place.

RANGE QUERIES:
  Boundaries arrive as calendar dates or timestamps. A date-only end
  boundary is inclusive of the whole end day. The boundary predicate
  targets the configured representation's stored shape; results are sorted
  on the canonical normalized timestamp.

MONEY:
  Financial fields are decimal.Decimal in memory and stored as strings.
  They pass through unvalidated; the ledger is not a bookkeeping system.
*/
package sales

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabaispa/backoffice/store"
)

// CollectionName is the backing collection for sales records.
const CollectionName = "sales"

// timeLayout is RFC 3339 with fixed-width nanoseconds so that the stored
// strings order lexicographically. Always UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Representation names the storage shape of occurredAt for the active
// schema generation.
type Representation string

const (
	RepNative    Representation = "native"
	RepEpochPair Representation = "epoch-pair"
)

// ParseRepresentation maps a configuration value onto a Representation.
func ParseRepresentation(s string) (Representation, error) {
	switch Representation(s) {
	case RepNative, RepEpochPair:
		return Representation(s), nil
	case "":
		return RepNative, nil
	}
	return "", store.InvalidArgf("unknown sales date representation %q", s)
}

// Sale is one ledger record.
type Sale struct {
	ID               string
	OccurredAt       time.Time
	StaffOilCount    int
	CustomerCount    int
	Income           decimal.Decimal
	Commission       decimal.Decimal
	ExtraCommission  decimal.Decimal
	Expense          decimal.Decimal
	CreditCardAmount decimal.Decimal
	CashAmount       decimal.Decimal
	WorkPeriodLabel  string
}

// Service implements the sales ledger over a store collection.
type Service struct {
	col store.Collection
	rep Representation
}

func NewService(gw store.Gateway, rep Representation) *Service {
	return &Service{col: gw.Collection(CollectionName), rep: rep}
}

// =============================================================================
// CRUD
// =============================================================================

// Create inserts a new sale using the active date representation.
func (s *Service) Create(ctx context.Context, sale Sale) (Sale, error) {
	if sale.OccurredAt.IsZero() {
		return Sale{}, store.InvalidArgf("date is required")
	}
	sale.ID = uuid.NewString()
	doc := encode(sale, s.rep)
	if _, err := s.col.Insert(ctx, doc); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// Get returns the sale with the given id.
func (s *Service) Get(ctx context.Context, id string) (Sale, error) {
	doc, err := s.col.FindOne(ctx, store.ByID(id))
	if err != nil {
		return Sale{}, err
	}
	return decode(doc)
}

// Update rewrites the sale with the given id. The record is re-encoded with
// the active date representation, whatever generation it was written under.
func (s *Service) Update(ctx context.Context, id string, sale Sale) (Sale, error) {
	if sale.OccurredAt.IsZero() {
		return Sale{}, store.InvalidArgf("date is required")
	}
	sale.ID = id
	set := encode(sale, s.rep)
	delete(set, store.IDField)
	doc, err := s.col.Update(ctx, store.ByID(id), set)
	if err != nil {
		return Sale{}, err
	}
	return decode(doc)
}

// Delete removes the sale with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.col.Delete(ctx, store.ByID(id))
}

// =============================================================================
// RANGE QUERY
// =============================================================================

// FindByDateRange returns sales with occurredAt in [start, end], ascending.
// Boundaries are "YYYY-MM-DD" or RFC 3339 strings; either may be empty. A
// date-only end boundary covers the entire end day. An unparseable boundary
// fails with store.ErrInvalidArgument, never a silent empty result.
func (s *Service) FindByDateRange(ctx context.Context, start, end string) ([]Sale, error) {
	var filter store.Filter

	if start != "" {
		from, _, err := parseBoundary(start)
		if err != nil {
			return nil, err
		}
		filter = append(filter, s.boundaryCond(store.OpGte, from))
	}
	if end != "" {
		to, dateOnly, err := parseBoundary(end)
		if err != nil {
			return nil, err
		}
		if dateOnly {
			// Inclusive of the whole end day regardless of time-of-day.
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter = append(filter, s.boundaryCond(store.OpLte, to))
	}

	docs, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Sale, 0, len(docs))
	for _, d := range docs {
		sale, err := decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

// boundaryCond translates a time boundary into a predicate matching the
// stored shape of the active representation.
func (s *Service) boundaryCond(op store.Op, t time.Time) store.Cond {
	if s.rep == RepEpochPair {
		return store.Cond{Field: "occurredAt.seconds", Op: op, Value: t.Unix()}
	}
	return store.Cond{Field: "occurredAt", Op: op, Value: t.UTC().Format(timeLayout)}
}

func parseBoundary(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	if t, err = time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, store.InvalidArgf("invalid date %q", s)
}

// =============================================================================
// ENCODING
// =============================================================================

func encode(sale Sale, rep Representation) store.Document {
	var occurredAt any
	if rep == RepEpochPair {
		occurredAt = map[string]any{
			"seconds": sale.OccurredAt.Unix(),
			"nanos":   int64(sale.OccurredAt.Nanosecond()),
		}
	} else {
		occurredAt = sale.OccurredAt.UTC().Format(timeLayout)
	}
	return store.Document{
		store.IDField:     sale.ID,
		"occurredAt":      occurredAt,
		"staffOil":        sale.StaffOilCount,
		"customers":       sale.CustomerCount,
		"income":          sale.Income.String(),
		"commission":      sale.Commission.String(),
		"extraCommission": sale.ExtraCommission.String(),
		"expense":         sale.Expense.String(),
		"creditCard":      sale.CreditCardAmount.String(),
		"cash":            sale.CashAmount.String(),
		"timeWork":        sale.WorkPeriodLabel,
	}
}

func decode(doc store.Document) (Sale, error) {
	occurredAt, err := NormalizeOccurredAt(doc["occurredAt"])
	if err != nil {
		return Sale{}, err
	}
	return Sale{
		ID:               store.Str(doc, store.IDField),
		OccurredAt:       occurredAt,
		StaffOilCount:    store.Int(doc, "staffOil"),
		CustomerCount:    store.Int(doc, "customers"),
		Income:           money(doc, "income"),
		Commission:       money(doc, "commission"),
		ExtraCommission:  money(doc, "extraCommission"),
		Expense:          money(doc, "expense"),
		CreditCardAmount: money(doc, "creditCard"),
		CashAmount:       money(doc, "cash"),
		WorkPeriodLabel:  store.Str(doc, "timeWork"),
	}, nil
}

// NormalizeOccurredAt decodes either stored shape of occurredAt into one
// canonical time.Time. All query and comparison logic goes through here;
// raw representations are never compared against each other.
func NormalizeOccurredAt(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, store.InvalidArgf("malformed stored timestamp %q", t)
		}
		return ts, nil
	case time.Time:
		return t, nil
	case map[string]any:
		if _, ok := t["seconds"]; !ok {
			return time.Time{}, store.InvalidArgf("epoch pair missing seconds")
		}
		return time.Unix(store.Int64(t, "seconds"), store.Int64(t, "nanos")).UTC(), nil
	}
	return time.Time{}, store.InvalidArgf("unrecognized occurredAt representation %T", v)
}

func money(doc store.Document, key string) decimal.Decimal {
	switch v := doc[key].(type) {
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	}
	return decimal.Zero
}
