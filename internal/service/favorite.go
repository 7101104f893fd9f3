package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 100
)

// PopularCache holds computed popularity rankings. Key names the entry for a
// limit as of now; Invalidate makes every key handed out so far stale.
// Implementations must be safe for concurrent use.
type PopularCache interface {
	Key(ctx context.Context, limit int) (string, error)
	Get(ctx context.Context, key string) ([]domain.PopularDestination, bool, error)
	Set(ctx context.Context, key string, list []domain.PopularDestination) error
	Invalidate(ctx context.Context) error
}

// FavoriteService implements the favorite-destination catalog.
type FavoriteService struct {
	tx    Transactor
	cache PopularCache
	log   *slog.Logger
}

// NewFavoriteService constructs a FavoriteService. cache may be nil, in which
// case every ranking is read from the database.
func NewFavoriteService(tx Transactor, cache PopularCache, log *slog.Logger) *FavoriteService {
	return &FavoriteService{tx: tx, cache: cache, log: log.With("service", "FavoriteService")}
}

// Add favorites a destination for the actor, creating the catalog entry if
// no entry with that name (case-insensitive) exists. added is false when the
// actor had already favorited it.
func (s *FavoriteService) Add(ctx context.Context, actor uuid.UUID, nf domain.NewFavorite) (domain.FavoriteDestination, bool, error) {
	nf.Name = strings.TrimSpace(nf.Name)
	if nf.Name == "" {
		return domain.FavoriteDestination{}, false, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	var (
		d     domain.FavoriteDestination
		added bool
	)
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		d, added, err = addFavorite(ctx, r, actor, nf)
		return err
	})
	if err != nil {
		return domain.FavoriteDestination{}, false, fmt.Errorf("service.FavoriteService.Add: %w", err)
	}
	if added {
		s.invalidate(ctx)
	}
	return d, added, nil
}

func addFavorite(ctx context.Context, r repo.Repos, userID uuid.UUID, nf domain.NewFavorite) (domain.FavoriteDestination, bool, error) {
	d, err := r.Favorites.FindOrCreate(ctx, nf)
	if err != nil {
		return domain.FavoriteDestination{}, false, err
	}
	added, err := r.Favorites.AddUser(ctx, userID, d.ID)
	if err != nil {
		return domain.FavoriteDestination{}, false, err
	}
	return d, added, nil
}

// Remove unfavorites a catalog entry for the actor. The entry itself stays.
// Returns domain.ErrNotFound if the actor had not favorited it.
func (s *FavoriteService) Remove(ctx context.Context, actor, destinationID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		return r.Favorites.RemoveUser(ctx, actor, destinationID)
	})
	if err != nil {
		return fmt.Errorf("service.FavoriteService.Remove: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// IsFavorited reports whether the actor favorited the entry named name.
func (s *FavoriteService) IsFavorited(ctx context.Context, actor uuid.UUID, name string) (bool, error) {
	var ok bool
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		ok, err = r.Favorites.IsFavorited(ctx, actor, name)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("service.FavoriteService.IsFavorited: %w", err)
	}
	return ok, nil
}

// List returns the actor's favorites.
func (s *FavoriteService) List(ctx context.Context, actor uuid.UUID) ([]domain.FavoriteDestination, error) {
	var list []domain.FavoriteDestination
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		list, err = r.Favorites.ListByUser(ctx, actor)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.FavoriteService.List: %w", err)
	}
	return list, nil
}

// Popular returns up to limit entries ranked by favorite count, ties in
// insertion order. A non-positive limit means the default; it is capped at
// maxPopularLimit. Cache failures are logged and fall through to the database.
func (s *FavoriteService) Popular(ctx context.Context, limit int) ([]domain.PopularDestination, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	limit = min(limit, maxPopularLimit)

	key := s.popularKey(ctx, limit)
	if key != "" {
		list, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.WarnContext(ctx, "popular cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return list, nil
		}
	}

	var list []domain.PopularDestination
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		list, err = r.Favorites.Popular(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.FavoriteService.Popular: %w", err)
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, list); err != nil {
			s.log.WarnContext(ctx, "popular cache write failed", slog.String("error", err.Error()))
		}
	}
	return list, nil
}

// Search matches query against entry names and countries, case-insensitively.
// A blank query matches nothing.
func (s *FavoriteService) Search(ctx context.Context, query string) ([]domain.FavoriteDestination, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.FavoriteDestination{}, nil
	}
	var list []domain.FavoriteDestination
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		list, err = r.Favorites.Search(ctx, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.FavoriteService.Search: %w", err)
	}
	return list, nil
}

// popularKey returns the cache key for limit, or "" when there is no cache
// or the key cannot be read.
func (s *FavoriteService) popularKey(ctx context.Context, limit int) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.Key(ctx, limit)
	if err != nil {
		s.log.WarnContext(ctx, "popular cache key failed", slog.String("error", err.Error()))
		return ""
	}
	return key
}

func (s *FavoriteService) invalidate(ctx context.Context) {
	invalidatePopular(ctx, s.cache, s.log)
}

// invalidatePopular drops cached rankings after a favorite changed. cache may
// be nil.
func invalidatePopular(ctx context.Context, cache PopularCache, log *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.WarnContext(ctx, "popular cache invalidation failed", slog.String("error", err.Error()))
	}
}
