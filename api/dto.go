/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures of the API contract, decoupled from the domain types.
  Field names follow the original deployment's wire format (schedule,
  staffOil, creditCard, timeWork, ...) so existing clients keep working.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/sabaispa/backoffice/catalog"
	"github.com/sabaispa/backoffice/directory"
	"github.com/sabaispa/backoffice/roster"
	"github.com/sabaispa/backoffice/sales"
)

// ErrorResponse is the structured failure body of every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

// UpsertScheduleRequest is the roster upsert body. Summary is optional;
// createdAt is never accepted from the caller.
type UpsertScheduleRequest struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Schedule []any `json:"schedule"`
	Summary  []any `json:"summary,omitempty"`
}

type ScheduleDTO struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Schedule  []any  `json:"schedule"`
	Summary   []any  `json:"summary"`
	CreatedAt string `json:"createdAt"`
}

func toScheduleDTO(s roster.Schedule) ScheduleDTO {
	dto := ScheduleDTO{
		ID:       s.ID,
		Year:     s.Year,
		Month:    s.Month,
		Schedule: s.Grid,
		Summary:  s.Summary,
	}
	if dto.Schedule == nil {
		dto.Schedule = []any{}
	}
	if dto.Summary == nil {
		dto.Summary = []any{}
	}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type EmployeeRequest struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
}

func toEmployeeDTO(e directory.Employee) EmployeeDTO {
	return EmployeeDTO{ID: e.ID, Name: e.Name, Position: e.Position}
}

// =============================================================================
// SHIFTS
// =============================================================================

type ShiftDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Order       int    `json:"order"`
}

type ShiftRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Order       int    `json:"order"`
}

func toShiftDTO(d catalog.ShiftDefinition) ShiftDTO {
	return ShiftDTO{ID: d.ID, Name: d.Name, Description: d.Description, Active: d.Active, Order: d.Order}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	NameTH string `json:"th"`
	NameEN string `json:"en"`
}

type HolidayRequest struct {
	Date   string `json:"date"`
	NameTH string `json:"th"`
	NameEN string `json:"en"`
}

// =============================================================================
// SALES
// =============================================================================

type SaleDTO struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	StaffOil        int     `json:"staffOil"`
	Customers       int     `json:"customers"`
	Income          float64 `json:"income"`
	Commission      float64 `json:"commission"`
	ExtraCommission float64 `json:"extraCommission"`
	Expense         float64 `json:"expense"`
	CreditCard      float64 `json:"creditCard"`
	Cash            float64 `json:"cash"`
	TimeWork        string  `json:"timeWork"`
}

type SaleRequest struct {
	Date            string  `json:"date"`
	StaffOil        int     `json:"staffOil"`
	Customers       int     `json:"customers"`
	Income          float64 `json:"income"`
	Commission      float64 `json:"commission"`
	ExtraCommission float64 `json:"extraCommission"`
	Expense         float64 `json:"expense"`
	CreditCard      float64 `json:"creditCard"`
	Cash            float64 `json:"cash"`
	TimeWork        string  `json:"timeWork"`
}

func toSaleDTO(s sales.Sale) SaleDTO {
	return SaleDTO{
		ID:              s.ID,
		Date:            s.OccurredAt.UTC().Format(time.RFC3339),
		StaffOil:        s.StaffOilCount,
		Customers:       s.CustomerCount,
		Income:          s.Income.InexactFloat64(),
		Commission:      s.Commission.InexactFloat64(),
		ExtraCommission: s.ExtraCommission.InexactFloat64(),
		Expense:         s.Expense.InexactFloat64(),
		CreditCard:      s.CreditCardAmount.InexactFloat64(),
		Cash:            s.CashAmount.InexactFloat64(),
		TimeWork:        s.WorkPeriodLabel,
	}
}
