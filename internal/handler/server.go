// Package handler implements the JSON HTTP surface of the JetSetGo API.
// Handlers are thin: they bind path, query and body parameters, call one
// service method with the acting user taken from the request context, and map
// domain errors to status codes. Methods are split into resource files
// (trip.go, budget.go, ...) but all hang off the same Server.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/middleware"
)

// The servicer interfaces below list what each handler group needs from the
// service layer. Defining them here, in the consumer, lets handler tests
// inject mocks without a database.

// IdentityServicer registers users and manages session tokens.
type IdentityServicer interface {
	Register(ctx context.Context, username, email, password string) (domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
	Me(ctx context.Context, userID uuid.UUID) (domain.User, error)
	IssueToken(user domain.User) (string, error)
	ParseToken(token string) (uuid.UUID, error)
}

// ResetServicer issues and redeems password-reset tokens.
type ResetServicer interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// TripServicer defines the trip aggregate operations.
type TripServicer interface {
	Create(ctx context.Context, actor uuid.UUID, in domain.NewTrip) (domain.TripDetail, error)
	Get(ctx context.Context, actor, tripID uuid.UUID) (domain.TripDetail, error)
	List(ctx context.Context, actor uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, actor, tripID uuid.UUID, patch domain.TripPatch) (domain.TripDetail, error)
	Delete(ctx context.Context, actor, tripID uuid.UUID) error
	Share(ctx context.Context, actor, tripID uuid.UUID, username string) error
	Invite(ctx context.Context, actor, tripID uuid.UUID, username, message string) (domain.Notification, error)
	RemoveParticipant(ctx context.Context, actor, tripID, userID uuid.UUID) (bool, error)
	LeaveAllTrips(ctx context.Context, actor uuid.UUID, password string) (int, int, error)
	AddDestination(ctx context.Context, actor, tripID uuid.UUID, name string) (domain.TripDestination, error)
	FavoriteDestination(ctx context.Context, actor, tripID, destinationID uuid.UUID) (domain.TripDestination, error)
}

// ItineraryServicer manages a trip's itinerary.
type ItineraryServicer interface {
	Add(ctx context.Context, actor, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error)
	List(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ItineraryItem, error)
	Update(ctx context.Context, actor, tripID, itemID uuid.UUID, patch domain.ItineraryPatch) (domain.ItineraryItem, error)
	Delete(ctx context.Context, actor, tripID, itemID uuid.UUID) error
}

// BudgetServicer manages a trip's budget, planned entries and expenses.
type BudgetServicer interface {
	Init(ctx context.Context, actor, tripID uuid.UUID) (domain.Budget, error)
	Get(ctx context.Context, actor, tripID uuid.UUID) (domain.BudgetDetail, error)
	AddPlanned(ctx context.Context, actor, tripID uuid.UUID, amount decimal.Decimal, category string) (domain.PlannedBudget, error)
	UpdatePlanned(ctx context.Context, actor, tripID, plannedID uuid.UUID, amount *decimal.Decimal, category *string) (domain.PlannedBudget, error)
	DeletePlanned(ctx context.Context, actor, tripID, plannedID uuid.UUID) error
	AddExpense(ctx context.Context, actor, tripID uuid.UUID, in domain.NewExpense) (domain.Expense, error)
	UpdateExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID, patch domain.ExpensePatch) (domain.Expense, error)
	DeleteExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID) error
	SplitExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID, usernames []string) (domain.Expense, error)
	RespondToShare(ctx context.Context, actor, tripID, expenseID uuid.UUID, accept bool) (domain.Expense, error)
	LeaveExpense(ctx context.Context, actor, tripID, expenseID, userID uuid.UUID) (bool, error)
}

// FavoriteServicer implements the favorite-destination catalog.
type FavoriteServicer interface {
	Add(ctx context.Context, actor uuid.UUID, nf domain.NewFavorite) (domain.FavoriteDestination, bool, error)
	Remove(ctx context.Context, actor, destinationID uuid.UUID) error
	IsFavorited(ctx context.Context, actor uuid.UUID, name string) (bool, error)
	List(ctx context.Context, actor uuid.UUID) ([]domain.FavoriteDestination, error)
	Popular(ctx context.Context, limit int) ([]domain.PopularDestination, error)
	Search(ctx context.Context, query string) ([]domain.FavoriteDestination, error)
}

// NotificationServicer lists and answers share notifications.
type NotificationServicer interface {
	List(ctx context.Context, actor uuid.UUID, pendingOnly bool) ([]domain.Notification, error)
	Respond(ctx context.Context, actor, id uuid.UUID, accept bool) (domain.Notification, error)
}

// ReviewServicer records and lists trip reviews.
type ReviewServicer interface {
	Add(ctx context.Context, actor, tripID uuid.UUID, rating int, comment string) (domain.Review, error)
	List(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Review, error)
}

// ExportServicer assembles a flat export of a trip's budget.
type ExportServicer interface {
	ExportBudget(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// TaskServicer manages the caller's personal to-do list.
type TaskServicer interface {
	Add(ctx context.Context, actor uuid.UUID, t domain.Task) (domain.Task, error)
	List(ctx context.Context, actor uuid.UUID) ([]domain.Task, error)
	Update(ctx context.Context, actor, taskID uuid.UUID, patch domain.TaskPatch) (domain.Task, error)
	Toggle(ctx context.Context, actor, taskID uuid.UUID) (domain.Task, error)
	Delete(ctx context.Context, actor, taskID uuid.UUID) error
	Clear(ctx context.Context, actor uuid.UUID) (int64, error)
}

// Services bundles every dependency of the Server. A nil field disables
// nothing at construction time; calling a route whose service is nil panics,
// so production wiring must set them all.
type Services struct {
	Identity      IdentityServicer
	Reset         ResetServicer
	Trips         TripServicer
	Itinerary     ItineraryServicer
	Budgets       BudgetServicer
	Favorites     FavoriteServicer
	Notifications NotificationServicer
	Reviews       ReviewServicer
	Export        ExportServicer
	Tasks         TaskServicer
}

// Server holds the handler dependencies.
type Server struct {
	svc Services
	log *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	return &Server{svc: svc, log: log.With("component", "handler")}
}

// Routes returns the API router. Everything except health and the auth
// endpoints requires a bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
		r.Post("/password-reset", s.RequestPasswordReset)
		r.Post("/password-reset/confirm", s.ConfirmPasswordReset)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(s.svc.Identity))

		r.Get("/me", s.GetMe)
		r.Post("/me/leave-all-trips", s.LeaveAllTrips)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)

			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Patch("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)

				r.Post("/share", s.ShareTrip)
				r.Post("/invitations", s.InviteToTrip)
				r.Delete("/participants/{userID}", s.RemoveParticipant)

				r.Post("/destinations", s.AddDestination)
				r.Post("/destinations/{destinationID}/favorite", s.FavoriteTripDestination)

				r.Get("/itinerary", s.ListItinerary)
				r.Post("/itinerary", s.AddItineraryItem)
				r.Patch("/itinerary/{itemID}", s.UpdateItineraryItem)
				r.Delete("/itinerary/{itemID}", s.DeleteItineraryItem)

				r.Route("/budget", func(r chi.Router) {
					r.Get("/", s.GetBudget)
					r.Post("/", s.InitBudget)
					r.Post("/planned", s.AddPlanned)
					r.Patch("/planned/{plannedID}", s.UpdatePlanned)
					r.Delete("/planned/{plannedID}", s.DeletePlanned)
					r.Post("/expenses", s.AddExpense)
					r.Patch("/expenses/{expenseID}", s.UpdateExpense)
					r.Delete("/expenses/{expenseID}", s.DeleteExpense)
					r.Post("/expenses/{expenseID}/share", s.SplitExpense)
					r.Post("/expenses/{expenseID}/respond", s.RespondToShare)
					r.Delete("/expenses/{expenseID}/stakeholders/{userID}", s.LeaveExpense)
				})

				r.Get("/export", s.ExportBudget)
				r.Get("/reviews", s.ListReviews)
				r.Post("/reviews", s.AddReview)
			})
		})

		r.Get("/notifications", s.ListNotifications)
		r.Post("/notifications/{notificationID}/respond", s.RespondToNotification)

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", s.ListFavorites)
			r.Post("/", s.AddFavorite)
			r.Get("/popular", s.PopularDestinations)
			r.Get("/search", s.SearchFavorites)
			r.Get("/check", s.IsFavorited)
			r.Delete("/{destinationID}", s.RemoveFavorite)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.ListTasks)
			r.Post("/", s.AddTask)
			r.Delete("/", s.ClearTasks)
			r.Patch("/{taskID}", s.UpdateTask)
			r.Delete("/{taskID}", s.DeleteTask)
			r.Post("/{taskID}/toggle", s.ToggleTask)
		})
	})

	return r
}
