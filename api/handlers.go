/*
handlers.go - HTTP handlers for the back-office API

PURPOSE:
  Exposes the roster, directory, catalog, and sales services over REST.
  Handlers parse and validate input, delegate to the domain services, and
  translate the error taxonomy onto HTTP statuses.

ERROR MAPPING:
  store.ErrInvalidArgument -> 400
  store.ErrNotFound        -> 404
  store.ErrConflict        -> 409
  store.ErrUnavailable     -> 503 (also produced by the availability gate)
  anything else            -> 500 with a diagnostic message, no raw driver error

SEE ALSO:
  - dto.go: request/response structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sabaispa/backoffice/catalog"
	"github.com/sabaispa/backoffice/directory"
	"github.com/sabaispa/backoffice/roster"
	"github.com/sabaispa/backoffice/sales"
	"github.com/sabaispa/backoffice/store"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Rosters   *roster.Service
	Directory *directory.Service
	Catalog   *catalog.Service
	Sales     *sales.Service
}

func NewHandler(r *roster.Service, d *directory.Service, c *catalog.Service, s *sales.Service) *Handler {
	return &Handler{Rosters: r, Directory: d, Catalog: c, Sales: s}
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns the roster for a (year, month) key.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "Year and month must be integers", nil)
		return
	}
	sched, err := h.Rosters.Get(r.Context(), year, month)
	if err != nil {
		respondErr(w, err, "Failed to get schedule")
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

// UpsertSchedule creates or updates the roster for the body's (year, month).
func (h *Handler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpsertScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sched, created, err := h.Rosters.Upsert(r.Context(), req.Year, req.Month, req.Schedule, req.Summary)
	if err != nil {
		respondErr(w, err, "Failed to save schedule")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toScheduleDTO(sched))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Directory.List(r.Context())
	if err != nil {
		respondErr(w, err, "Failed to list employees")
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	emp, err := h.Directory.Create(r.Context(), req.Name, req.Position)
	if err != nil {
		respondErr(w, err, "Failed to create employee")
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns the employee addressed by name.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Directory.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondErr(w, err, "Failed to get employee")
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// UpdateEmployee updates position, or renames when the body's name differs
// from the path name.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	emp, err := h.Directory.Update(r.Context(), chi.URLParam(r, "name"), req.Name, req.Position)
	if err != nil {
		respondErr(w, err, "Failed to update employee")
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeleteEmployee deletes the employee addressed by name.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		respondErr(w, err, "Failed to delete employee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns the catalog sorted by display order.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Catalog.ListShifts(r.Context())
	if err != nil {
		respondErr(w, err, "Failed to list shifts")
		return
	}
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShift adds a shift definition.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	def, err := h.Catalog.CreateShift(r.Context(), catalog.ShiftDefinition{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Order:       req.Order,
	})
	if err != nil {
		respondErr(w, err, "Failed to create shift")
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(def))
}

// UpdateShift rewrites a shift definition.
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	def, err := h.Catalog.UpdateShift(r.Context(), chi.URLParam(r, "id"), catalog.ShiftDefinition{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Order:       req.Order,
	})
	if err != nil {
		respondErr(w, err, "Failed to update shift")
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(def))
}

// DeleteShift removes a shift definition.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteShift(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err, "Failed to delete shift")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all holidays sorted by date.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Catalog.ListHolidays(r.Context())
	if err != nil {
		respondErr(w, err, "Failed to list holidays")
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{ID: hol.ID, Date: hol.Date, NameTH: hol.NameTH, NameEN: hol.NameEN}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hol, err := h.Catalog.CreateHoliday(r.Context(), catalog.Holiday{
		Date:   req.Date,
		NameTH: req.NameTH,
		NameEN: req.NameEN,
	})
	if err != nil {
		respondErr(w, err, "Failed to create holiday")
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{ID: hol.ID, Date: hol.Date, NameTH: hol.NameTH, NameEN: hol.NameEN})
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err, "Failed to delete holiday")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SALES HANDLERS
// =============================================================================

// ListSales returns sales in the inclusive [startDate, endDate] range, or
// all sales when no boundaries are supplied. Always sorted ascending.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")

	records, err := h.Sales.FindByDateRange(r.Context(), start, end)
	if err != nil {
		respondErr(w, err, "Failed to query sales")
		return
	}
	dtos := make([]SaleDTO, len(records))
	for i, s := range records {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSale inserts a sale record.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	sale, ok := h.decodeSale(w, r)
	if !ok {
		return
	}
	created, err := h.Sales.Create(r.Context(), sale)
	if err != nil {
		respondErr(w, err, "Failed to save sale")
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(created))
}

// GetSale returns one sale by id.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.Sales.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err, "Failed to get sale")
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// UpdateSale rewrites one sale by id.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	sale, ok := h.decodeSale(w, r)
	if !ok {
		return
	}
	updated, err := h.Sales.Update(r.Context(), chi.URLParam(r, "id"), sale)
	if err != nil {
		respondErr(w, err, "Failed to update sale")
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(updated))
}

// DeleteSale removes one sale by id.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.Sales.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondErr(w, err, "Failed to delete sale")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeSale(w http.ResponseWriter, r *http.Request) (sales.Sale, bool) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return sales.Sale{}, false
	}
	occurredAt, err := parseSaleDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD or RFC 3339)", err)
		return sales.Sale{}, false
	}
	return sales.Sale{
		OccurredAt:       occurredAt,
		StaffOilCount:    req.StaffOil,
		CustomerCount:    req.Customers,
		Income:           decimal.NewFromFloat(req.Income),
		Commission:       decimal.NewFromFloat(req.Commission),
		ExtraCommission:  decimal.NewFromFloat(req.ExtraCommission),
		Expense:          decimal.NewFromFloat(req.Expense),
		CreditCardAmount: decimal.NewFromFloat(req.CreditCard),
		CashAmount:       decimal.NewFromFloat(req.Cash),
		WorkPeriodLabel:  req.TimeWork,
	}, true
}

func parseSaleDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// respondErr maps the error taxonomy onto HTTP statuses. Unexpected store
// failures become 500 with the handler's message; the raw error goes into
// details, never a bare driver response.
func respondErr(w http.ResponseWriter, err error, message string) {
	switch {
	case store.IsInvalidArg(err):
		writeError(w, http.StatusBadRequest, message, err)
	case store.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case store.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case store.IsUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, "Store unavailable, retry shortly", err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
