package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cinehub/cinehub/internal/api"
	"github.com/cinehub/cinehub/internal/cache"
	"github.com/cinehub/cinehub/internal/domain"
)

// Catalog and list endpoints
const (
	pathPopular   = "/tmdb/populares/"
	pathReleases  = "/tmdb/estrenos/"
	pathSearch    = "/tmdb/buscar/"
	pathDetailFmt = "/tmdb/detalle/%d/"
	pathFavorites = "/favoritos/"
	pathWatched   = "/vistos/"
)

// MovieService maps catalog and personal-list operations onto the backend.
// Only the read-only catalog endpoints go through the cache.
type MovieService struct {
	do     api.RequestFunc
	cache  *cache.Store
	logger *slog.Logger
}

// NewMovieService creates a MovieService. A nil cache disables caching.
func NewMovieService(do api.RequestFunc, c *cache.Store, logger *slog.Logger) *MovieService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieService{do: do, cache: c, logger: logger}
}

// cachedGet serves key from the cache or performs req. The payload is
// only cached once decode accepts it.
func (s *MovieService) cachedGet(ctx context.Context, key string, req *api.Request, decode func([]byte) error) error {
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			s.logger.Debug("cache hit", "key", key)
			return decode(data)
		}
	}

	data, err := s.do(ctx, req)
	if err != nil {
		return domain.Classify(err)
	}
	if err := decode(data); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Set(key, data)
	}
	return nil
}

// === Catalog (cached) ===

// Popular returns the popular movies list
func (s *MovieService) Popular(ctx context.Context) ([]domain.Movie, error) {
	var movies []domain.Movie
	err := s.cachedGet(ctx, cache.CategoryPopular,
		&api.Request{Method: http.MethodGet, Path: pathPopular},
		func(data []byte) (err error) {
			movies, err = decodeMovieList(data)
			return err
		})
	return movies, err
}

// Releases returns the new releases list
func (s *MovieService) Releases(ctx context.Context) ([]domain.Movie, error) {
	var movies []domain.Movie
	err := s.cachedGet(ctx, cache.CategoryReleases,
		&api.Request{Method: http.MethodGet, Path: pathReleases},
		func(data []byte) (err error) {
			movies, err = decodeMovieList(data)
			return err
		})
	return movies, err
}

// Search returns one page of catalog results for query (pages start at 1)
func (s *MovieService) Search(ctx context.Context, query string, page int) (domain.SearchPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchPage{}, domain.NewValidationError("search query is empty")
	}
	if page < 1 {
		page = 1
	}

	var result domain.SearchPage
	err := s.cachedGet(ctx, cache.SearchKey(query, page),
		&api.Request{
			Method: http.MethodGet,
			Path:   pathSearch,
			Query:  url.Values{"q": {query}, "page": {strconv.Itoa(page)}},
		},
		func(data []byte) (err error) {
			result, err = decodeSearchPage(data)
			return err
		})
	return result, err
}

// Details returns the full catalog record for one movie
func (s *MovieService) Details(ctx context.Context, movieID int) (domain.Movie, error) {
	var movie domain.Movie
	err := s.cachedGet(ctx, cache.DetailKey(movieID),
		&api.Request{Method: http.MethodGet, Path: fmt.Sprintf(pathDetailFmt, movieID)},
		func(data []byte) (err error) {
			movie, err = decodeMovie(data)
			return err
		})
	return movie, err
}

// === Favorites (never cached) ===

// Favorites returns the user's favorites, each carrying its FavoriteID
func (s *MovieService) Favorites(ctx context.Context) ([]domain.Movie, error) {
	return s.list(ctx, domain.ListFavorites, pathFavorites)
}

// AddFavorite adds a catalog movie to favorites
func (s *MovieService) AddFavorite(ctx context.Context, in domain.MovieInput) (domain.Movie, error) {
	return s.add(ctx, domain.ListFavorites, pathFavorites, in)
}

// RemoveFavorite deletes a favorites entry by its FavoriteID
func (s *MovieService) RemoveFavorite(ctx context.Context, favoriteID int64) error {
	return s.remove(ctx, pathFavorites, favoriteID)
}

// === Watched (never cached) ===

// Watched returns the user's watched list, each carrying its WatchedID
func (s *MovieService) Watched(ctx context.Context) ([]domain.Movie, error) {
	return s.list(ctx, domain.ListWatched, pathWatched)
}

// AddWatched adds a catalog movie to the watched list
func (s *MovieService) AddWatched(ctx context.Context, in domain.MovieInput) (domain.Movie, error) {
	return s.add(ctx, domain.ListWatched, pathWatched, in)
}

// UpdateWatchedRating sets the 1-5 rating of a watched entry
func (s *MovieService) UpdateWatchedRating(ctx context.Context, watchedID int64, rating int) (domain.Movie, error) {
	if watchedID == 0 {
		return domain.Movie{}, domain.NewValidationError("movie is not in the watched list")
	}
	if !domain.ValidRating(rating) {
		return domain.Movie{}, domain.NewValidationError("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}

	data, err := s.do(ctx, &api.Request{
		Method: http.MethodPut,
		Path:   entryPath(pathWatched, watchedID),
		Body:   map[string]int{"calificacion": rating},
	})
	if err != nil {
		return domain.Movie{}, domain.Classify(err)
	}
	return decodeEntry(domain.ListWatched, data)
}

// RemoveWatched deletes a watched entry by its WatchedID
func (s *MovieService) RemoveWatched(ctx context.Context, watchedID int64) error {
	return s.remove(ctx, pathWatched, watchedID)
}

// === Helpers ===

func (s *MovieService) list(ctx context.Context, kind domain.ListKind, path string) ([]domain.Movie, error) {
	data, err := s.do(ctx, &api.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return decodeEntries(kind, data)
}

func (s *MovieService) add(ctx context.Context, kind domain.ListKind, path string, in domain.MovieInput) (domain.Movie, error) {
	if in.TMDBID == 0 {
		return domain.Movie{}, domain.NewValidationError("movie has no catalog id")
	}

	data, err := s.do(ctx, &api.Request{Method: http.MethodPost, Path: path, Body: in})
	if err != nil {
		return domain.Movie{}, domain.Classify(err)
	}
	return decodeEntry(kind, data)
}

func (s *MovieService) remove(ctx context.Context, path string, entryID int64) error {
	if entryID == 0 {
		return domain.NewValidationError("entry id is required")
	}
	_, err := s.do(ctx, &api.Request{Method: http.MethodDelete, Path: entryPath(path, entryID)})
	return domain.Classify(err)
}

func entryPath(base string, id int64) string {
	return base + strconv.FormatInt(id, 10) + "/"
}

// SearchAll follows Search across pages (at most maxPages) and returns the
// concatenated results. Each page is served from the cache when possible.
func (s *MovieService) SearchAll(ctx context.Context, query string, maxPages int) ([]domain.Movie, error) {
	movies, err := collectPages(ctx,
		func(ctx context.Context, page int) ([]domain.Movie, int, error) {
			result, err := s.Search(ctx, query, page)
			return result.Results, result.TotalPages, err
		},
		maxPages,
		func(page, total int) {
			s.logger.Debug("search page loaded", "query", query, "page", page, "total_pages", total)
		})
	if err != nil {
		return nil, domain.Classify(err)
	}
	return movies, nil
}
