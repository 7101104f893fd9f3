package service_test

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
	"github.com/lumia-Qcode/JetSetGo/internal/service"
)

// memState is an in-memory database used by fakeStore. Every table is a
// slice so a snapshot is a handful of copies.
type memState struct {
	users         []domain.User
	trips         []domain.Trip
	participants  []participantRow
	destinations  []domain.TripDestination
	itinerary     []domain.ItineraryItem
	budgets       []domain.Budget
	planned       []domain.PlannedBudget
	expenses      []domain.Expense
	favorites     []domain.FavoriteDestination
	favLinks      []favLink
	tokens        []domain.PasswordResetToken
	notifications []domain.Notification
	reviews       []domain.Review
	tasks         []domain.Task

	// fail makes the named repo method return the error, e.g. "Destinations.Add".
	fail map[string]error
	// calls counts how often each repo method ran.
	calls map[string]int
	clock time.Time
}

type participantRow struct {
	tripID, userID uuid.UUID
}

type favLink struct {
	userID, destID uuid.UUID
}

func (s *memState) clone() memState {
	c := *s
	c.users = slices.Clone(s.users)
	c.trips = slices.Clone(s.trips)
	c.participants = slices.Clone(s.participants)
	c.destinations = slices.Clone(s.destinations)
	c.itinerary = slices.Clone(s.itinerary)
	c.budgets = slices.Clone(s.budgets)
	c.planned = slices.Clone(s.planned)
	c.expenses = make([]domain.Expense, len(s.expenses))
	for i, e := range s.expenses {
		c.expenses[i] = copyExpense(e)
	}
	c.favorites = slices.Clone(s.favorites)
	c.favLinks = slices.Clone(s.favLinks)
	c.tokens = slices.Clone(s.tokens)
	c.notifications = slices.Clone(s.notifications)
	c.reviews = slices.Clone(s.reviews)
	c.tasks = slices.Clone(s.tasks)
	return c
}

func (s *memState) hit(op string) error {
	s.calls[op]++
	return s.fail[op]
}

// tick returns a strictly increasing timestamp so ordering by time is stable.
func (s *memState) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func copyExpense(e domain.Expense) domain.Expense {
	e.SharedWith = append([]uuid.UUID{}, e.SharedWith...)
	e.PendingWith = append([]uuid.UUID{}, e.PendingWith...)
	return e
}

// fakeStore implements service.Transactor. A failed unit of work restores
// the snapshot taken before it started, like a rolled back transaction.
type fakeStore struct {
	mu sync.Mutex
	st *memState
}

func newFakeStore() *fakeStore {
	return &fakeStore{st: &memState{
		fail:  map[string]error{},
		calls: map[string]int{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

var _ service.Transactor = (*fakeStore)(nil)

func (f *fakeStore) InTx(ctx context.Context, fn func(r repo.Repos) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.st.clone()
	if err := fn(f.repos()); err != nil {
		*f.st = snap
		return err
	}
	return nil
}

func (f *fakeStore) repos() repo.Repos {
	s := f.st
	return repo.Repos{
		Users:         memUsers{s},
		Trips:         memTrips{s},
		Participants:  memParticipants{s},
		Destinations:  memDestinations{s},
		Itinerary:     memItinerary{s},
		Budgets:       memBudgets{s},
		Planned:       memPlanned{s},
		Expenses:      memExpenses{s},
		Favorites:     memFavorites{s},
		ResetTokens:   memTokens{s},
		Notifications: memNotifications{s},
		Reviews:       memReviews{s},
		Tasks:         memTasks{s},
	}
}

// ---- users ------------------------------------------------------------------

type memUsers struct{ s *memState }

func (m memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	if err := m.s.hit("Users.Create"); err != nil {
		return domain.User{}, err
	}
	for _, x := range m.s.users {
		if strings.EqualFold(x.Email, u.Email) || x.Username == u.Username {
			return domain.User{}, domain.ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = m.s.tick()
	m.s.users = append(m.s.users, u)
	return u, nil
}

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

func (m memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	return m.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m memUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m memUsers) find(match func(domain.User) bool) (domain.User, error) {
	for _, u := range m.s.users {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m memUsers) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.User, error) {
	return m.list(func(u domain.User) bool { return slices.Contains(ids, u.ID) }), nil
}

func (m memUsers) ListByUsernames(_ context.Context, names []string) ([]domain.User, error) {
	return m.list(func(u domain.User) bool { return slices.Contains(names, u.Username) }), nil
}

func (m memUsers) list(match func(domain.User) bool) []domain.User {
	out := []domain.User{}
	for _, u := range m.s.users {
		if match(u) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return cmp.Compare(a.Username, b.Username) })
	return out
}

func (m memUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	if err := m.s.hit("Users.UpdatePasswordHash"); err != nil {
		return err
	}
	for i := range m.s.users {
		if m.s.users[i].ID == id {
			m.s.users[i].PasswordHash = hash
			return nil
		}
	}
	return domain.ErrNotFound
}

// ---- trips & participants -----------------------------------------------------

type memTrips struct{ s *memState }

func (m memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	if err := m.s.hit("Trips.Create"); err != nil {
		return domain.Trip{}, err
	}
	t.ID = uuid.New()
	t.CreatedAt = m.s.tick()
	t.UpdatedAt = t.CreatedAt
	m.s.trips = append(m.s.trips, t)
	return t, nil
}

func (m memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	for _, t := range m.s.trips {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trip{}, domain.ErrNotFound
}

func (m memTrips) LockByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	m.s.calls["Trips.LockByID"]++
	return m.GetByID(ctx, id)
}

func (m memTrips) ListByParticipant(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	ids, _ := m.ListIDsByParticipant(ctx, userID)
	all := []domain.Trip{}
	for _, id := range ids {
		t, _ := m.GetByID(ctx, id)
		all = append(all, t)
	}
	slices.SortStableFunc(all, func(a, b domain.Trip) int { return b.StartDate.Compare(a.StartDate) })
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (m memTrips) ListIDsByParticipant(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	for _, p := range m.s.participants {
		if p.userID == userID {
			out = append(out, p.tripID)
		}
	}
	return out, nil
}

func (m memTrips) Update(_ context.Context, t domain.Trip) (domain.Trip, error) {
	for i := range m.s.trips {
		if m.s.trips[i].ID == t.ID {
			t.CreatedAt = m.s.trips[i].CreatedAt
			t.UpdatedAt = m.s.tick()
			m.s.trips[i] = t
			return t, nil
		}
	}
	return domain.Trip{}, domain.ErrNotFound
}

func (m memTrips) Delete(_ context.Context, id uuid.UUID) error {
	if err := m.s.hit("Trips.Delete"); err != nil {
		return err
	}
	n := len(m.s.trips)
	m.s.trips = slices.DeleteFunc(m.s.trips, func(t domain.Trip) bool { return t.ID == id })
	if len(m.s.trips) == n {
		return domain.ErrNotFound
	}
	return nil
}

type memParticipants struct{ s *memState }

func (m memParticipants) Add(_ context.Context, tripID, userID uuid.UUID) (bool, error) {
	if err := m.s.hit("Participants.Add"); err != nil {
		return false, err
	}
	row := participantRow{tripID, userID}
	if slices.Contains(m.s.participants, row) {
		return false, nil
	}
	m.s.participants = append(m.s.participants, row)
	return true, nil
}

func (m memParticipants) Remove(_ context.Context, tripID, userID uuid.UUID) error {
	n := len(m.s.participants)
	m.s.participants = slices.DeleteFunc(m.s.participants, func(p participantRow) bool {
		return p == participantRow{tripID, userID}
	})
	if len(m.s.participants) == n {
		return domain.ErrNotFound
	}
	return nil
}

func (m memParticipants) Count(ctx context.Context, tripID uuid.UUID) (int, error) {
	ids, _ := m.ListUserIDs(ctx, tripID)
	return len(ids), nil
}

func (m memParticipants) IsParticipant(_ context.Context, tripID, userID uuid.UUID) (bool, error) {
	return slices.Contains(m.s.participants, participantRow{tripID, userID}), nil
}

func (m memParticipants) ListUserIDs(_ context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	for _, p := range m.s.participants {
		if p.tripID == tripID {
			out = append(out, p.userID)
		}
	}
	return out, nil
}

func (m memParticipants) DeleteByTrip(_ context.Context, tripID uuid.UUID) error {
	m.s.participants = slices.DeleteFunc(m.s.participants, func(p participantRow) bool { return p.tripID == tripID })
	return nil
}

// ---- destinations & itinerary -------------------------------------------------

type memDestinations struct{ s *memState }

func (m memDestinations) Add(_ context.Context, tripID uuid.UUID, name string) (domain.TripDestination, error) {
	if err := m.s.hit("Destinations.Add"); err != nil {
		return domain.TripDestination{}, err
	}
	d := domain.TripDestination{ID: uuid.New(), TripID: tripID, Name: name}
	m.s.destinations = append(m.s.destinations, d)
	return d, nil
}

func (m memDestinations) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.TripDestination, error) {
	out := []domain.TripDestination{}
	for _, d := range m.s.destinations {
		if d.TripID == tripID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m memDestinations) SetFavorited(_ context.Context, tripID, id uuid.UUID, favorited bool) (domain.TripDestination, error) {
	for i, d := range m.s.destinations {
		if d.ID == id && d.TripID == tripID {
			m.s.destinations[i].IsFavorited = favorited
			return m.s.destinations[i], nil
		}
	}
	return domain.TripDestination{}, domain.ErrNotFound
}

func (m memDestinations) DeleteByTrip(_ context.Context, tripID uuid.UUID) error {
	m.s.destinations = slices.DeleteFunc(m.s.destinations, func(d domain.TripDestination) bool { return d.TripID == tripID })
	return nil
}

type memItinerary struct{ s *memState }

func (m memItinerary) Create(_ context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	item.ID = uuid.New()
	m.s.itinerary = append(m.s.itinerary, item)
	return item, nil
}

func (m memItinerary) GetByID(_ context.Context, tripID, itemID uuid.UUID) (domain.ItineraryItem, error) {
	for _, it := range m.s.itinerary {
		if it.ID == itemID && it.TripID == tripID {
			return it, nil
		}
	}
	return domain.ItineraryItem{}, domain.ErrNotFound
}

func (m memItinerary) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	out := []domain.ItineraryItem{}
	for _, it := range m.s.itinerary {
		if it.TripID == tripID {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.ItineraryItem) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(clockOf(a), clockOf(b))
	})
	return out, nil
}

func clockOf(it domain.ItineraryItem) string {
	if it.Time == nil {
		return ""
	}
	return *it.Time
}

func (m memItinerary) Update(_ context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	for i, it := range m.s.itinerary {
		if it.ID == item.ID && it.TripID == item.TripID {
			m.s.itinerary[i] = item
			return item, nil
		}
	}
	return domain.ItineraryItem{}, domain.ErrNotFound
}

func (m memItinerary) Delete(_ context.Context, tripID, itemID uuid.UUID) error {
	n := len(m.s.itinerary)
	m.s.itinerary = slices.DeleteFunc(m.s.itinerary, func(it domain.ItineraryItem) bool {
		return it.ID == itemID && it.TripID == tripID
	})
	if len(m.s.itinerary) == n {
		return domain.ErrNotFound
	}
	return nil
}

func (m memItinerary) DeleteByTrip(_ context.Context, tripID uuid.UUID) error {
	m.s.itinerary = slices.DeleteFunc(m.s.itinerary, func(it domain.ItineraryItem) bool { return it.TripID == tripID })
	return nil
}

// ---- budgets ------------------------------------------------------------------

type memBudgets struct{ s *memState }

func (m memBudgets) Init(ctx context.Context, tripID uuid.UUID) (domain.Budget, error) {
	if b, err := m.GetByTripID(ctx, tripID); err == nil {
		return b, nil
	}
	b := domain.Budget{ID: uuid.New(), TripID: tripID, TotalPlanned: decimal.Zero, TotalSpent: decimal.Zero}
	m.s.budgets = append(m.s.budgets, b)
	return b, nil
}

func (m memBudgets) GetByTripID(_ context.Context, tripID uuid.UUID) (domain.Budget, error) {
	for _, b := range m.s.budgets {
		if b.TripID == tripID {
			return b, nil
		}
	}
	return domain.Budget{}, domain.ErrNotFound
}

func (m memBudgets) LockByID(_ context.Context, id uuid.UUID) (domain.Budget, error) {
	m.s.calls["Budgets.LockByID"]++
	for _, b := range m.s.budgets {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Budget{}, domain.ErrNotFound
}

func (m memBudgets) RecomputeTotals(_ context.Context, id uuid.UUID) (domain.Budget, error) {
	if err := m.s.hit("Budgets.RecomputeTotals"); err != nil {
		return domain.Budget{}, err
	}
	for i, b := range m.s.budgets {
		if b.ID != id {
			continue
		}
		planned, spent := decimal.Zero, decimal.Zero
		for _, pb := range m.s.planned {
			if pb.BudgetID == id {
				planned = planned.Add(pb.Amount)
			}
		}
		for _, e := range m.s.expenses {
			if e.BudgetID == id {
				spent = spent.Add(e.Amount)
			}
		}
		m.s.budgets[i].TotalPlanned = planned
		m.s.budgets[i].TotalSpent = spent
		return m.s.budgets[i], nil
	}
	return domain.Budget{}, domain.ErrNotFound
}

func (m memBudgets) Delete(_ context.Context, id uuid.UUID) error {
	n := len(m.s.budgets)
	m.s.budgets = slices.DeleteFunc(m.s.budgets, func(b domain.Budget) bool { return b.ID == id })
	if len(m.s.budgets) == n {
		return domain.ErrNotFound
	}
	return nil
}

type memPlanned struct{ s *memState }

func (m memPlanned) Create(_ context.Context, pb domain.PlannedBudget) (domain.PlannedBudget, error) {
	pb.ID = uuid.New()
	m.s.planned = append(m.s.planned, pb)
	return pb, nil
}

func (m memPlanned) GetByID(_ context.Context, id uuid.UUID) (domain.PlannedBudget, error) {
	for _, pb := range m.s.planned {
		if pb.ID == id {
			return pb, nil
		}
	}
	return domain.PlannedBudget{}, domain.ErrNotFound
}

func (m memPlanned) ListByBudget(_ context.Context, budgetID uuid.UUID) ([]domain.PlannedBudget, error) {
	out := []domain.PlannedBudget{}
	for _, pb := range m.s.planned {
		if pb.BudgetID == budgetID {
			out = append(out, pb)
		}
	}
	return out, nil
}

func (m memPlanned) Update(_ context.Context, pb domain.PlannedBudget) (domain.PlannedBudget, error) {
	for i := range m.s.planned {
		if m.s.planned[i].ID == pb.ID {
			m.s.planned[i].Amount = pb.Amount
			m.s.planned[i].Category = pb.Category
			return m.s.planned[i], nil
		}
	}
	return domain.PlannedBudget{}, domain.ErrNotFound
}

func (m memPlanned) Delete(_ context.Context, id uuid.UUID) error {
	n := len(m.s.planned)
	m.s.planned = slices.DeleteFunc(m.s.planned, func(pb domain.PlannedBudget) bool { return pb.ID == id })
	if len(m.s.planned) == n {
		return domain.ErrNotFound
	}
	return nil
}

func (m memPlanned) DeleteByBudget(_ context.Context, budgetID uuid.UUID) error {
	m.s.planned = slices.DeleteFunc(m.s.planned, func(pb domain.PlannedBudget) bool { return pb.BudgetID == budgetID })
	return nil
}

type memExpenses struct{ s *memState }

func (m memExpenses) Create(_ context.Context, e domain.Expense) (domain.Expense, error) {
	if err := m.s.hit("Expenses.Create"); err != nil {
		return domain.Expense{}, err
	}
	e = copyExpense(e)
	e.ID = uuid.New()
	m.s.expenses = append(m.s.expenses, e)
	return copyExpense(e), nil
}

func (m memExpenses) GetByID(_ context.Context, id uuid.UUID) (domain.Expense, error) {
	for _, e := range m.s.expenses {
		if e.ID == id {
			return copyExpense(e), nil
		}
	}
	return domain.Expense{}, domain.ErrNotFound
}

func (m memExpenses) ListByBudget(_ context.Context, budgetID uuid.UUID) ([]domain.Expense, error) {
	out := []domain.Expense{}
	for _, e := range m.s.expenses {
		if e.BudgetID == budgetID {
			out = append(out, copyExpense(e))
		}
	}
	return out, nil
}

func (m memExpenses) Update(_ context.Context, e domain.Expense) (domain.Expense, error) {
	if err := m.s.hit("Expenses.Update"); err != nil {
		return domain.Expense{}, err
	}
	for i := range m.s.expenses {
		if m.s.expenses[i].ID == e.ID {
			cur := &m.s.expenses[i]
			cur.Amount = e.Amount
			cur.Description = e.Description
			cur.Category = e.Category
			cur.Status = e.Status
			cur.PendingWith = append([]uuid.UUID{}, e.PendingWith...)
			return copyExpense(*cur), nil
		}
	}
	return domain.Expense{}, domain.ErrNotFound
}

func (m memExpenses) SetSharedUsers(_ context.Context, id uuid.UUID, userIDs []uuid.UUID) error {
	for i := range m.s.expenses {
		if m.s.expenses[i].ID == id {
			m.s.expenses[i].SharedWith = append([]uuid.UUID{}, userIDs...)
			return nil
		}
	}
	return nil
}

func (m memExpenses) RemoveSharedUser(_ context.Context, id, userID uuid.UUID) error {
	for i := range m.s.expenses {
		if m.s.expenses[i].ID == id && m.s.expenses[i].IsStakeholder(userID) {
			m.s.expenses[i].SharedWith = m.s.expenses[i].Without(userID)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m memExpenses) Delete(_ context.Context, id uuid.UUID) error {
	n := len(m.s.expenses)
	m.s.expenses = slices.DeleteFunc(m.s.expenses, func(e domain.Expense) bool { return e.ID == id })
	if len(m.s.expenses) == n {
		return domain.ErrNotFound
	}
	return nil
}

func (m memExpenses) DeleteByBudget(_ context.Context, budgetID uuid.UUID) error {
	m.s.expenses = slices.DeleteFunc(m.s.expenses, func(e domain.Expense) bool { return e.BudgetID == budgetID })
	return nil
}

// ---- favorites ----------------------------------------------------------------

type memFavorites struct{ s *memState }

func (m memFavorites) FindOrCreate(ctx context.Context, nf domain.NewFavorite) (domain.FavoriteDestination, error) {
	if d, err := m.GetByName(ctx, nf.Name); err == nil {
		return d, nil
	}
	d := domain.FavoriteDestination{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(nf.Name),
		Country:     nf.Country,
		Description: nf.Description,
		ImageURL:    nf.ImageURL,
		CreatedAt:   m.s.tick(),
	}
	m.s.favorites = append(m.s.favorites, d)
	return d, nil
}

func (m memFavorites) GetByName(_ context.Context, name string) (domain.FavoriteDestination, error) {
	for _, d := range m.s.favorites {
		if domain.FavoriteKey(d.Name) == domain.FavoriteKey(name) {
			return d, nil
		}
	}
	return domain.FavoriteDestination{}, domain.ErrNotFound
}

func (m memFavorites) AddUser(_ context.Context, userID, destID uuid.UUID) (bool, error) {
	link := favLink{userID, destID}
	if slices.Contains(m.s.favLinks, link) {
		return false, nil
	}
	m.s.favLinks = append(m.s.favLinks, link)
	return true, nil
}

func (m memFavorites) RemoveUser(_ context.Context, userID, destID uuid.UUID) error {
	n := len(m.s.favLinks)
	m.s.favLinks = slices.DeleteFunc(m.s.favLinks, func(l favLink) bool { return l == favLink{userID, destID} })
	if len(m.s.favLinks) == n {
		return domain.ErrNotFound
	}
	return nil
}

func (m memFavorites) IsFavorited(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	d, err := m.GetByName(ctx, name)
	if err != nil {
		return false, nil
	}
	return slices.Contains(m.s.favLinks, favLink{userID, d.ID}), nil
}

func (m memFavorites) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.FavoriteDestination, error) {
	out := []domain.FavoriteDestination{}
	for i := len(m.s.favLinks) - 1; i >= 0; i-- {
		if m.s.favLinks[i].userID != userID {
			continue
		}
		for _, d := range m.s.favorites {
			if d.ID == m.s.favLinks[i].destID {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (m memFavorites) Popular(_ context.Context, limit int) ([]domain.PopularDestination, error) {
	m.s.calls["Favorites.Popular"]++
	out := []domain.PopularDestination{}
	for _, d := range m.s.favorites {
		var n int64
		for _, l := range m.s.favLinks {
			if l.destID == d.ID {
				n++
			}
		}
		out = append(out, domain.PopularDestination{FavoriteDestination: d, Favorites: n})
	}
	slices.SortStableFunc(out, func(a, b domain.PopularDestination) int { return cmp.Compare(b.Favorites, a.Favorites) })
	return out[:min(limit, len(out))], nil
}

func (m memFavorites) Search(_ context.Context, query string) ([]domain.FavoriteDestination, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.FavoriteDestination{}
	for _, d := range m.s.favorites {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Country), q) {
			out = append(out, d)
		}
	}
	return out, nil
}

// ---- reset tokens, notifications, reviews -------------------------------------

type memTokens struct{ s *memState }

func (m memTokens) Create(_ context.Context, t domain.PasswordResetToken) (domain.PasswordResetToken, error) {
	for _, x := range m.s.tokens {
		if x.Token == t.Token {
			return domain.PasswordResetToken{}, domain.ErrConflict
		}
	}
	t.ID = uuid.New()
	m.s.tokens = append(m.s.tokens, t)
	return t, nil
}

func (m memTokens) GetByTokenForUpdate(_ context.Context, token string) (domain.PasswordResetToken, error) {
	for _, t := range m.s.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return domain.PasswordResetToken{}, domain.ErrNotFound
}

func (m memTokens) MarkUsed(_ context.Context, id uuid.UUID) error {
	if err := m.s.hit("ResetTokens.MarkUsed"); err != nil {
		return err
	}
	for i := range m.s.tokens {
		if m.s.tokens[i].ID == id {
			m.s.tokens[i].Used = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type memNotifications struct{ s *memState }

func (m memNotifications) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	n.ID = uuid.New()
	n.CreatedAt = m.s.tick()
	if n.Status == "" {
		n.Status = domain.NotificationPending
	}
	m.s.notifications = append(m.s.notifications, n)
	return n, nil
}

func (m memNotifications) LockByID(_ context.Context, id uuid.UUID) (domain.Notification, error) {
	for _, n := range m.s.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.Notification{}, domain.ErrNotFound
}

func (m memNotifications) ListByReceiver(_ context.Context, receiverID uuid.UUID, pendingOnly bool) ([]domain.Notification, error) {
	out := []domain.Notification{}
	for i := len(m.s.notifications) - 1; i >= 0; i-- {
		n := m.s.notifications[i]
		if n.ReceiverID == receiverID && (!pendingOnly || n.Status == domain.NotificationPending) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m memNotifications) UpdateStatus(_ context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	for i := range m.s.notifications {
		if m.s.notifications[i].ID == id {
			m.s.notifications[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m memNotifications) ResolvePending(_ context.Context, subjectID, receiverID uuid.UUID, status domain.NotificationStatus) error {
	for i, n := range m.s.notifications {
		if n.SubjectID == subjectID && n.ReceiverID == receiverID && n.Status == domain.NotificationPending {
			m.s.notifications[i].Status = status
		}
	}
	return nil
}

func (m memNotifications) DeleteBySubjects(_ context.Context, ids []uuid.UUID) error {
	m.s.notifications = slices.DeleteFunc(m.s.notifications, func(n domain.Notification) bool {
		return slices.Contains(ids, n.SubjectID)
	})
	return nil
}

type memReviews struct{ s *memState }

func (m memReviews) Create(_ context.Context, rv domain.Review) (domain.Review, error) {
	for _, x := range m.s.reviews {
		if x.TripID == rv.TripID && x.UserID == rv.UserID {
			return domain.Review{}, domain.ErrConflict
		}
	}
	rv.ID = uuid.New()
	rv.CreatedAt = m.s.tick()
	m.s.reviews = append(m.s.reviews, rv)
	return rv, nil
}

func (m memReviews) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Review, error) {
	out := []domain.Review{}
	for i := len(m.s.reviews) - 1; i >= 0; i-- {
		if m.s.reviews[i].TripID == tripID {
			out = append(out, m.s.reviews[i])
		}
	}
	return out, nil
}

func (m memReviews) DeleteByTrip(_ context.Context, tripID uuid.UUID) error {
	m.s.reviews = slices.DeleteFunc(m.s.reviews, func(rv domain.Review) bool { return rv.TripID == tripID })
	return nil
}

// ---- collaborators --------------------------------------------------------------

type sentMail struct {
	to, subject, body string
}

// mockMailer records every message and fails when err is set.
type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

var _ service.Mailer = (*mockMailer)(nil)

// ---- helpers --------------------------------------------------------------------

const testPassword = "correct-horse"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser inserts a user whose password is testPassword.
func seedUser(t *testing.T, f *fakeStore, username string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	var u domain.User
	err = f.InTx(context.Background(), func(r repo.Repos) error {
		var err error
		u, err = r.Users.Create(context.Background(), domain.User{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: string(hash),
		})
		return err
	})
	require.NoError(t, err)
	return u
}

func validNewTrip() domain.NewTrip {
	return domain.NewTrip{
		Title:        "Summer in Portugal",
		Destinations: []string{"Lisbon, Porto", " Sintra "},
		StartDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Description:  "Two weeks",
	}
}

// seedTrip creates a trip owned by creator and shares it with the others.
func seedTrip(t *testing.T, f *fakeStore, creator domain.User, others ...domain.User) domain.Trip {
	t.Helper()
	ctx := context.Background()
	var trip domain.Trip
	err := f.InTx(ctx, func(r repo.Repos) error {
		var err error
		if trip, err = r.Trips.Create(ctx, domain.Trip{
			Title:     "Seeded",
			StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			return err
		}
		for _, u := range append([]domain.User{creator}, others...) {
			if _, err := r.Participants.Add(ctx, trip.ID, u.ID); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return trip
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ---- tasks ------------------------------------------------------------------

type memTasks struct{ s *memState }

func (m memTasks) Create(_ context.Context, t domain.Task) (domain.Task, error) {
	if err := m.s.hit("Tasks.Create"); err != nil {
		return domain.Task{}, err
	}
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	t.CreatedAt = m.s.tick()
	m.s.tasks = append(m.s.tasks, t)
	return t, nil
}

func (m memTasks) LockByID(_ context.Context, userID, taskID uuid.UUID) (domain.Task, error) {
	for _, t := range m.s.tasks {
		if t.ID == taskID && t.UserID == userID {
			return t, nil
		}
	}
	return domain.Task{}, domain.ErrNotFound
}

func (m memTasks) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, t := range m.s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m memTasks) Update(_ context.Context, t domain.Task) (domain.Task, error) {
	if err := m.s.hit("Tasks.Update"); err != nil {
		return domain.Task{}, err
	}
	for i := range m.s.tasks {
		if m.s.tasks[i].ID == t.ID && m.s.tasks[i].UserID == t.UserID {
			cur := &m.s.tasks[i]
			cur.Title = t.Title
			cur.DueDate = t.DueDate
			cur.DueTime = t.DueTime
			cur.Status = t.Status
			return *cur, nil
		}
	}
	return domain.Task{}, domain.ErrNotFound
}

func (m memTasks) Delete(_ context.Context, userID, taskID uuid.UUID) error {
	n := len(m.s.tasks)
	m.s.tasks = slices.DeleteFunc(m.s.tasks, func(t domain.Task) bool { return t.ID == taskID && t.UserID == userID })
	if len(m.s.tasks) == n {
		return domain.ErrNotFound
	}
	return nil
}

func (m memTasks) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	n := len(m.s.tasks)
	m.s.tasks = slices.DeleteFunc(m.s.tasks, func(t domain.Task) bool { return t.UserID == userID })
	return int64(n - len(m.s.tasks)), nil
}
