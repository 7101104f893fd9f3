package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/handler"
)

// Mocks below are test doubles for the handler servicer interfaces.
// Set only the method fields your test needs.

type mockIdentity struct {
	register     func(ctx context.Context, username, email, password string) (domain.User, error)
	authenticate func(ctx context.Context, email, password string) (domain.User, error)
	me           func(ctx context.Context, userID uuid.UUID) (domain.User, error)
	issueToken   func(user domain.User) (string, error)
	parseToken   func(token string) (uuid.UUID, error)
}

func (m *mockIdentity) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	return m.register(ctx, username, email, password)
}
func (m *mockIdentity) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	return m.authenticate(ctx, email, password)
}
func (m *mockIdentity) Me(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return m.me(ctx, userID)
}
func (m *mockIdentity) IssueToken(user domain.User) (string, error) { return m.issueToken(user) }
func (m *mockIdentity) ParseToken(token string) (uuid.UUID, error)  { return m.parseToken(token) }

type mockReset struct {
	requestReset  func(ctx context.Context, email string) error
	resetPassword func(ctx context.Context, token, newPassword string) error
}

func (m *mockReset) RequestReset(ctx context.Context, email string) error {
	return m.requestReset(ctx, email)
}
func (m *mockReset) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.resetPassword(ctx, token, newPassword)
}

type mockTrips struct {
	create              func(ctx context.Context, actor uuid.UUID, in domain.NewTrip) (domain.TripDetail, error)
	get                 func(ctx context.Context, actor, tripID uuid.UUID) (domain.TripDetail, error)
	list                func(ctx context.Context, actor uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update              func(ctx context.Context, actor, tripID uuid.UUID, patch domain.TripPatch) (domain.TripDetail, error)
	delete              func(ctx context.Context, actor, tripID uuid.UUID) error
	share               func(ctx context.Context, actor, tripID uuid.UUID, username string) error
	invite              func(ctx context.Context, actor, tripID uuid.UUID, username, message string) (domain.Notification, error)
	removeParticipant   func(ctx context.Context, actor, tripID, userID uuid.UUID) (bool, error)
	leaveAllTrips       func(ctx context.Context, actor uuid.UUID, password string) (int, int, error)
	addDestination      func(ctx context.Context, actor, tripID uuid.UUID, name string) (domain.TripDestination, error)
	favoriteDestination func(ctx context.Context, actor, tripID, destinationID uuid.UUID) (domain.TripDestination, error)
}

func (m *mockTrips) Create(ctx context.Context, actor uuid.UUID, in domain.NewTrip) (domain.TripDetail, error) {
	return m.create(ctx, actor, in)
}
func (m *mockTrips) Get(ctx context.Context, actor, tripID uuid.UUID) (domain.TripDetail, error) {
	return m.get(ctx, actor, tripID)
}
func (m *mockTrips) List(ctx context.Context, actor uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.list(ctx, actor, p)
}
func (m *mockTrips) Update(ctx context.Context, actor, tripID uuid.UUID, patch domain.TripPatch) (domain.TripDetail, error) {
	return m.update(ctx, actor, tripID, patch)
}
func (m *mockTrips) Delete(ctx context.Context, actor, tripID uuid.UUID) error {
	return m.delete(ctx, actor, tripID)
}
func (m *mockTrips) Share(ctx context.Context, actor, tripID uuid.UUID, username string) error {
	return m.share(ctx, actor, tripID, username)
}
func (m *mockTrips) Invite(ctx context.Context, actor, tripID uuid.UUID, username, message string) (domain.Notification, error) {
	return m.invite(ctx, actor, tripID, username, message)
}
func (m *mockTrips) RemoveParticipant(ctx context.Context, actor, tripID, userID uuid.UUID) (bool, error) {
	return m.removeParticipant(ctx, actor, tripID, userID)
}
func (m *mockTrips) LeaveAllTrips(ctx context.Context, actor uuid.UUID, password string) (int, int, error) {
	return m.leaveAllTrips(ctx, actor, password)
}
func (m *mockTrips) AddDestination(ctx context.Context, actor, tripID uuid.UUID, name string) (domain.TripDestination, error) {
	return m.addDestination(ctx, actor, tripID, name)
}
func (m *mockTrips) FavoriteDestination(ctx context.Context, actor, tripID, destinationID uuid.UUID) (domain.TripDestination, error) {
	return m.favoriteDestination(ctx, actor, tripID, destinationID)
}

type mockItinerary struct {
	add    func(ctx context.Context, actor, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error)
	list   func(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ItineraryItem, error)
	update func(ctx context.Context, actor, tripID, itemID uuid.UUID, patch domain.ItineraryPatch) (domain.ItineraryItem, error)
	delete func(ctx context.Context, actor, tripID, itemID uuid.UUID) error
}

func (m *mockItinerary) Add(ctx context.Context, actor, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	return m.add(ctx, actor, tripID, item)
}
func (m *mockItinerary) List(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	return m.list(ctx, actor, tripID)
}
func (m *mockItinerary) Update(ctx context.Context, actor, tripID, itemID uuid.UUID, patch domain.ItineraryPatch) (domain.ItineraryItem, error) {
	return m.update(ctx, actor, tripID, itemID, patch)
}
func (m *mockItinerary) Delete(ctx context.Context, actor, tripID, itemID uuid.UUID) error {
	return m.delete(ctx, actor, tripID, itemID)
}

type mockBudgets struct {
	init           func(ctx context.Context, actor, tripID uuid.UUID) (domain.Budget, error)
	get            func(ctx context.Context, actor, tripID uuid.UUID) (domain.BudgetDetail, error)
	addPlanned     func(ctx context.Context, actor, tripID uuid.UUID, amount decimal.Decimal, category string) (domain.PlannedBudget, error)
	updatePlanned  func(ctx context.Context, actor, tripID, plannedID uuid.UUID, amount *decimal.Decimal, category *string) (domain.PlannedBudget, error)
	deletePlanned  func(ctx context.Context, actor, tripID, plannedID uuid.UUID) error
	addExpense     func(ctx context.Context, actor, tripID uuid.UUID, in domain.NewExpense) (domain.Expense, error)
	updateExpense  func(ctx context.Context, actor, tripID, expenseID uuid.UUID, patch domain.ExpensePatch) (domain.Expense, error)
	deleteExpense  func(ctx context.Context, actor, tripID, expenseID uuid.UUID) error
	splitExpense   func(ctx context.Context, actor, tripID, expenseID uuid.UUID, usernames []string) (domain.Expense, error)
	respondToShare func(ctx context.Context, actor, tripID, expenseID uuid.UUID, accept bool) (domain.Expense, error)
	leaveExpense   func(ctx context.Context, actor, tripID, expenseID, userID uuid.UUID) (bool, error)
}

func (m *mockBudgets) Init(ctx context.Context, actor, tripID uuid.UUID) (domain.Budget, error) {
	return m.init(ctx, actor, tripID)
}
func (m *mockBudgets) Get(ctx context.Context, actor, tripID uuid.UUID) (domain.BudgetDetail, error) {
	return m.get(ctx, actor, tripID)
}
func (m *mockBudgets) AddPlanned(ctx context.Context, actor, tripID uuid.UUID, amount decimal.Decimal, category string) (domain.PlannedBudget, error) {
	return m.addPlanned(ctx, actor, tripID, amount, category)
}
func (m *mockBudgets) UpdatePlanned(ctx context.Context, actor, tripID, plannedID uuid.UUID, amount *decimal.Decimal, category *string) (domain.PlannedBudget, error) {
	return m.updatePlanned(ctx, actor, tripID, plannedID, amount, category)
}
func (m *mockBudgets) DeletePlanned(ctx context.Context, actor, tripID, plannedID uuid.UUID) error {
	return m.deletePlanned(ctx, actor, tripID, plannedID)
}
func (m *mockBudgets) AddExpense(ctx context.Context, actor, tripID uuid.UUID, in domain.NewExpense) (domain.Expense, error) {
	return m.addExpense(ctx, actor, tripID, in)
}
func (m *mockBudgets) UpdateExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID, patch domain.ExpensePatch) (domain.Expense, error) {
	return m.updateExpense(ctx, actor, tripID, expenseID, patch)
}
func (m *mockBudgets) DeleteExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID) error {
	return m.deleteExpense(ctx, actor, tripID, expenseID)
}
func (m *mockBudgets) SplitExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID, usernames []string) (domain.Expense, error) {
	return m.splitExpense(ctx, actor, tripID, expenseID, usernames)
}
func (m *mockBudgets) RespondToShare(ctx context.Context, actor, tripID, expenseID uuid.UUID, accept bool) (domain.Expense, error) {
	return m.respondToShare(ctx, actor, tripID, expenseID, accept)
}
func (m *mockBudgets) LeaveExpense(ctx context.Context, actor, tripID, expenseID, userID uuid.UUID) (bool, error) {
	return m.leaveExpense(ctx, actor, tripID, expenseID, userID)
}

type mockFavorites struct {
	add         func(ctx context.Context, actor uuid.UUID, nf domain.NewFavorite) (domain.FavoriteDestination, bool, error)
	remove      func(ctx context.Context, actor, destinationID uuid.UUID) error
	isFavorited func(ctx context.Context, actor uuid.UUID, name string) (bool, error)
	list        func(ctx context.Context, actor uuid.UUID) ([]domain.FavoriteDestination, error)
	popular     func(ctx context.Context, limit int) ([]domain.PopularDestination, error)
	search      func(ctx context.Context, query string) ([]domain.FavoriteDestination, error)
}

func (m *mockFavorites) Add(ctx context.Context, actor uuid.UUID, nf domain.NewFavorite) (domain.FavoriteDestination, bool, error) {
	return m.add(ctx, actor, nf)
}
func (m *mockFavorites) Remove(ctx context.Context, actor, destinationID uuid.UUID) error {
	return m.remove(ctx, actor, destinationID)
}
func (m *mockFavorites) IsFavorited(ctx context.Context, actor uuid.UUID, name string) (bool, error) {
	return m.isFavorited(ctx, actor, name)
}
func (m *mockFavorites) List(ctx context.Context, actor uuid.UUID) ([]domain.FavoriteDestination, error) {
	return m.list(ctx, actor)
}
func (m *mockFavorites) Popular(ctx context.Context, limit int) ([]domain.PopularDestination, error) {
	return m.popular(ctx, limit)
}
func (m *mockFavorites) Search(ctx context.Context, query string) ([]domain.FavoriteDestination, error) {
	return m.search(ctx, query)
}

type mockNotifications struct {
	list    func(ctx context.Context, actor uuid.UUID, pendingOnly bool) ([]domain.Notification, error)
	respond func(ctx context.Context, actor, id uuid.UUID, accept bool) (domain.Notification, error)
}

func (m *mockNotifications) List(ctx context.Context, actor uuid.UUID, pendingOnly bool) ([]domain.Notification, error) {
	return m.list(ctx, actor, pendingOnly)
}
func (m *mockNotifications) Respond(ctx context.Context, actor, id uuid.UUID, accept bool) (domain.Notification, error) {
	return m.respond(ctx, actor, id, accept)
}

type mockReviews struct {
	add  func(ctx context.Context, actor, tripID uuid.UUID, rating int, comment string) (domain.Review, error)
	list func(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Review, error)
}

func (m *mockReviews) Add(ctx context.Context, actor, tripID uuid.UUID, rating int, comment string) (domain.Review, error) {
	return m.add(ctx, actor, tripID, rating, comment)
}
func (m *mockReviews) List(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Review, error) {
	return m.list(ctx, actor, tripID)
}

type mockExport struct {
	exportBudget func(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockExport) ExportBudget(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ExportRow, error) {
	return m.exportBudget(ctx, actor, tripID)
}

type mockTasks struct {
	add    func(ctx context.Context, actor uuid.UUID, t domain.Task) (domain.Task, error)
	list   func(ctx context.Context, actor uuid.UUID) ([]domain.Task, error)
	update func(ctx context.Context, actor, taskID uuid.UUID, patch domain.TaskPatch) (domain.Task, error)
	toggle func(ctx context.Context, actor, taskID uuid.UUID) (domain.Task, error)
	delete func(ctx context.Context, actor, taskID uuid.UUID) error
	clear  func(ctx context.Context, actor uuid.UUID) (int64, error)
}

func (m *mockTasks) Add(ctx context.Context, actor uuid.UUID, t domain.Task) (domain.Task, error) {
	return m.add(ctx, actor, t)
}
func (m *mockTasks) List(ctx context.Context, actor uuid.UUID) ([]domain.Task, error) {
	return m.list(ctx, actor)
}
func (m *mockTasks) Update(ctx context.Context, actor, taskID uuid.UUID, patch domain.TaskPatch) (domain.Task, error) {
	return m.update(ctx, actor, taskID, patch)
}
func (m *mockTasks) Toggle(ctx context.Context, actor, taskID uuid.UUID) (domain.Task, error) {
	return m.toggle(ctx, actor, taskID)
}
func (m *mockTasks) Delete(ctx context.Context, actor, taskID uuid.UUID) error {
	return m.delete(ctx, actor, taskID)
}
func (m *mockTasks) Clear(ctx context.Context, actor uuid.UUID) (int64, error) {
	return m.clear(ctx, actor)
}

// compile-time checks: every mock must satisfy its handler interface.
var (
	_ handler.IdentityServicer     = (*mockIdentity)(nil)
	_ handler.ResetServicer        = (*mockReset)(nil)
	_ handler.TripServicer         = (*mockTrips)(nil)
	_ handler.ItineraryServicer    = (*mockItinerary)(nil)
	_ handler.BudgetServicer       = (*mockBudgets)(nil)
	_ handler.FavoriteServicer     = (*mockFavorites)(nil)
	_ handler.NotificationServicer = (*mockNotifications)(nil)
	_ handler.ReviewServicer       = (*mockReviews)(nil)
	_ handler.ExportServicer       = (*mockExport)(nil)
	_ handler.TaskServicer         = (*mockTasks)(nil)
)

// ---- helpers ---------------------------------------------------------------

const testToken = "test-token"

// testActor is the user every authenticated test request acts as.
var testActor = uuid.MustParse("6f1c2b1e-0d6a-4f55-9a53-1f4f7e0c9b01")

// newHTTPHandler wires a Server with the given mocks into its chi router,
// the same way main.go wires it in production. When svc.Identity is nil, a
// mock that accepts testToken as testActor is installed.
func newHTTPHandler(svc handler.Services) http.Handler {
	if svc.Identity == nil {
		svc.Identity = &mockIdentity{parseToken: acceptTestToken}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return handler.NewServer(svc, log).Routes()
}

func acceptTestToken(token string) (uuid.UUID, error) {
	if token != testToken {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return testActor, nil
}

// serve sends an authenticated request with an optional JSON body.
func serve(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewBuffer(b)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}

func newRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func record(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
