package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// PlannedRequest is the body of POST .../budget/planned.
type PlannedRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// PlannedPatchRequest is the body of PATCH .../budget/planned/{plannedID}.
type PlannedPatchRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category"`
}

// ExpenseRequest is the body of POST .../budget/expenses. SharedWith lists
// usernames; the creator is always a stakeholder.
type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	SharedWith  []string        `json:"shared_with"`
}

// ExpensePatchRequest is the body of PATCH .../budget/expenses/{expenseID}.
type ExpensePatchRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	SharedWith  []string         `json:"shared_with"`
}

// SplitRequest is the body of POST .../expenses/{expenseID}/share.
type SplitRequest struct {
	Usernames []string `json:"usernames"`
}

// RespondRequest answers a share request. Accept is required.
type RespondRequest struct {
	Accept *bool `json:"accept"`
}

// Budget is the JSON view of a trip budget. Amounts are decimal strings.
type Budget struct {
	Id           openapi_types.UUID `json:"id"`
	TripId       openapi_types.UUID `json:"trip_id"`
	TotalPlanned decimal.Decimal    `json:"total_planned"`
	TotalSpent   decimal.Decimal    `json:"total_spent"`
	Remaining    decimal.Decimal    `json:"remaining"`
}

// BudgetDetail is the body of GET /trips/{tripID}/budget.
type BudgetDetail struct {
	Budget
	Planned  []domain.PlannedBudget `json:"planned"`
	Expenses []domain.Expense       `json:"expenses"`
}

// ExpenseRemoval reports whether leaving an expense deleted it.
type ExpenseRemoval struct {
	Deleted bool `json:"deleted"`
}

// GetBudget handles GET /trips/{tripID}/budget. The budget is created on
// first read.
func (s *Server) GetBudget(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Budgets.Get(r.Context(), user, tripID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	out := BudgetDetail{Budget: budgetToResponse(d.Budget), Planned: d.Planned, Expenses: d.Expenses}
	if out.Planned == nil {
		out.Planned = []domain.PlannedBudget{}
	}
	if out.Expenses == nil {
		out.Expenses = []domain.Expense{}
	}
	writeJSON(w, http.StatusOK, out)
}

// InitBudget handles POST /trips/{tripID}/budget. It is idempotent.
func (s *Server) InitBudget(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	b, err := s.svc.Budgets.Init(r.Context(), user, tripID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetToResponse(b))
}

// AddPlanned handles POST /trips/{tripID}/budget/planned.
func (s *Server) AddPlanned(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body PlannedRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := s.svc.Budgets.AddPlanned(r.Context(), user, tripID, body.Amount, body.Category)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlanned handles PATCH /trips/{tripID}/budget/planned/{plannedID}.
func (s *Server) UpdatePlanned(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	plannedID, ok := pathUUID(w, r, "plannedID")
	if !ok {
		return
	}
	var body PlannedPatchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := s.svc.Budgets.UpdatePlanned(r.Context(), user, tripID, plannedID, body.Amount, body.Category)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlanned handles DELETE /trips/{tripID}/budget/planned/{plannedID}.
func (s *Server) DeletePlanned(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	plannedID, ok := pathUUID(w, r, "plannedID")
	if !ok {
		return
	}
	if err := s.svc.Budgets.DeletePlanned(r.Context(), user, tripID, plannedID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddExpense handles POST /trips/{tripID}/budget/expenses.
func (s *Server) AddExpense(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body ExpenseRequest
	if !decodeBody(w, r, &body) {
		return
	}
	e, err := s.svc.Budgets.AddExpense(r.Context(), user, tripID, domain.NewExpense{
		Amount:      body.Amount,
		Category:    body.Category,
		Description: body.Description,
		SharedWith:  body.SharedWith,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// UpdateExpense handles PATCH /trips/{tripID}/budget/expenses/{expenseID}.
func (s *Server) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, tripID, expenseID, ok := expenseRequest(w, r)
	if !ok {
		return
	}
	var body ExpensePatchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	e, err := s.svc.Budgets.UpdateExpense(r.Context(), user, tripID, expenseID, domain.ExpensePatch{
		Amount:      body.Amount,
		Description: body.Description,
		Category:    body.Category,
		SharedWith:  body.SharedWith,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteExpense handles DELETE /trips/{tripID}/budget/expenses/{expenseID}.
func (s *Server) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, tripID, expenseID, ok := expenseRequest(w, r)
	if !ok {
		return
	}
	if err := s.svc.Budgets.DeleteExpense(r.Context(), user, tripID, expenseID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SplitExpense handles POST /trips/{tripID}/budget/expenses/{expenseID}/share.
func (s *Server) SplitExpense(w http.ResponseWriter, r *http.Request) {
	user, tripID, expenseID, ok := expenseRequest(w, r)
	if !ok {
		return
	}
	var body SplitRequest
	if !decodeBody(w, r, &body) {
		return
	}
	e, err := s.svc.Budgets.SplitExpense(r.Context(), user, tripID, expenseID, body.Usernames)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// RespondToShare handles POST /trips/{tripID}/budget/expenses/{expenseID}/respond.
func (s *Server) RespondToShare(w http.ResponseWriter, r *http.Request) {
	user, tripID, expenseID, ok := expenseRequest(w, r)
	if !ok {
		return
	}
	accept, ok := decodeAnswer(w, r)
	if !ok {
		return
	}
	e, err := s.svc.Budgets.RespondToShare(r.Context(), user, tripID, expenseID, accept)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// LeaveExpense handles DELETE /trips/{tripID}/budget/expenses/{expenseID}/stakeholders/{userID}.
func (s *Server) LeaveExpense(w http.ResponseWriter, r *http.Request) {
	user, tripID, expenseID, ok := expenseRequest(w, r)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	deleted, err := s.svc.Budgets.LeaveExpense(r.Context(), user, tripID, expenseID, userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpenseRemoval{Deleted: deleted})
}

func expenseRequest(w http.ResponseWriter, r *http.Request) (user, tripID, expenseID openapi_types.UUID, ok bool) {
	if user, tripID, ok = tripRequest(w, r); !ok {
		return
	}
	expenseID, ok = pathUUID(w, r, "expenseID")
	return
}

// decodeAnswer reads a RespondRequest and insists on an explicit answer.
func decodeAnswer(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var body RespondRequest
	if !decodeBody(w, r, &body) {
		return false, false
	}
	if body.Accept == nil {
		requestError(w, "accept is required")
		return false, false
	}
	return *body.Accept, true
}

func budgetToResponse(b domain.Budget) Budget {
	return Budget{
		Id:           b.ID,
		TripId:       b.TripID,
		TotalPlanned: b.TotalPlanned,
		TotalSpent:   b.TotalSpent,
		Remaining:    b.Remaining(),
	}
}
