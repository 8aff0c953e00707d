package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/cinehub/cinehub/internal/domain"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
)

// ListService holds the local copy of the user's favorites and watched
// lists. Each mutation is applied locally once the backend accepts it;
// the local copy may drift from the server (other devices, concurrent
// edits) until the next Refresh reconciles it.
type ListService struct {
	movies *MovieService
	logger *slog.Logger

	mu        sync.RWMutex
	favorites []domain.Movie
	watched   []domain.Movie
}

// NewListService creates an empty ListService backed by movies
func NewListService(movies *MovieService, logger *slog.Logger) *ListService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListService{movies: movies, logger: logger}
}

// Refresh fetches both lists in parallel and replaces the local copies.
// On failure the previous copies are kept.
func (s *ListService) Refresh(ctx context.Context) error {
	var favorites, watched []domain.Movie

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		favorites, err = s.movies.Favorites(ctx)
		return err
	})
	g.Go(func() (err error) {
		watched, err = s.movies.Watched(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to refresh lists", "error", err)
		return err
	}

	s.mu.Lock()
	s.favorites = favorites
	s.watched = watched
	s.mu.Unlock()

	s.logger.Debug("lists refreshed", "favorites", len(favorites), "watched", len(watched))
	return nil
}

// Reset drops both local lists (used on sign-out)
func (s *ListService) Reset() {
	s.mu.Lock()
	s.favorites = nil
	s.watched = nil
	s.mu.Unlock()
}

// Favorites returns a copy of the local favorites list
func (s *ListService) Favorites() []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.favorites)
}

// Watched returns a copy of the local watched list
func (s *ListService) Watched() []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.watched)
}

// ToggleFavorite removes m from favorites when it carries a FavoriteID and
// adds it otherwise. It returns the movie as it now stands.
func (s *ListService) ToggleFavorite(ctx context.Context, m domain.Movie) (domain.Movie, error) {
	if m.IsFavorite() {
		if err := s.movies.RemoveFavorite(ctx, m.FavoriteID); err != nil {
			return m, err
		}
		s.mu.Lock()
		s.favorites = removeEntry(s.favorites, domain.ListFavorites, m.FavoriteID)
		s.mu.Unlock()
		m.FavoriteID = 0
		return m, nil
	}

	created, err := s.movies.AddFavorite(ctx, domain.InputFromMovie(m))
	if err != nil {
		return m, err
	}
	s.mu.Lock()
	s.favorites = append(s.favorites, created)
	s.mu.Unlock()
	return created, nil
}

// ToggleWatched removes m from the watched list when it carries a
// WatchedID and adds it otherwise.
func (s *ListService) ToggleWatched(ctx context.Context, m domain.Movie) (domain.Movie, error) {
	if m.IsWatched() {
		if err := s.movies.RemoveWatched(ctx, m.WatchedID); err != nil {
			return m, err
		}
		s.mu.Lock()
		s.watched = removeEntry(s.watched, domain.ListWatched, m.WatchedID)
		s.mu.Unlock()
		m.WatchedID = 0
		m.Rating = 0
		return m, nil
	}

	created, err := s.movies.AddWatched(ctx, domain.InputFromMovie(m))
	if err != nil {
		return m, err
	}
	s.mu.Lock()
	s.watched = append(s.watched, created)
	s.mu.Unlock()
	return created, nil
}

// Rate sets the rating of m, adding it to the watched list first if needed
func (s *ListService) Rate(ctx context.Context, m domain.Movie, rating int) (domain.Movie, error) {
	if !domain.ValidRating(rating) {
		return m, domain.NewValidationError("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}

	if !m.IsWatched() {
		created, err := s.movies.AddWatched(ctx, domain.InputFromMovie(m))
		if err != nil {
			return m, err
		}
		m = created
	}

	updated, err := s.movies.UpdateWatchedRating(ctx, m.WatchedID, rating)
	if err != nil {
		return m, err
	}

	s.mu.Lock()
	s.watched = upsertEntry(s.watched, domain.ListWatched, updated)
	s.mu.Unlock()
	return updated, nil
}

// Filter fuzzy-matches query against the titles of one local list.
// An empty query returns the whole list.
func (s *ListService) Filter(kind domain.ListKind, query string) []domain.Movie {
	var movies []domain.Movie
	if kind == domain.ListWatched {
		movies = s.Watched()
	} else {
		movies = s.Favorites()
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return movies
	}

	lowerTitles := make([]string, len(movies))
	for i, m := range movies {
		lowerTitles[i] = strings.ToLower(m.Title)
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerTitles)

	filtered := make([]domain.Movie, len(matches))
	for i, match := range matches {
		filtered[i] = movies[match.Index]
	}
	return filtered
}

func removeEntry(movies []domain.Movie, kind domain.ListKind, entryID int64) []domain.Movie {
	return slices.DeleteFunc(movies, func(m domain.Movie) bool {
		return m.EntryID(kind) == entryID
	})
}

func upsertEntry(movies []domain.Movie, kind domain.ListKind, entry domain.Movie) []domain.Movie {
	id := entry.EntryID(kind)
	for i, m := range movies {
		if m.EntryID(kind) == id {
			movies[i] = entry
			return movies
		}
	}
	return append(movies, entry)
}
