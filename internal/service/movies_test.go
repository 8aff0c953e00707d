package service

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/cinehub/cinehub/internal/domain"
)

func TestMovieServiceCatalogIsCached(t *testing.T) {
	b := newTestBackend()
	svc, _ := newTestMovieService(t, b)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		movies, err := svc.Popular(ctx)
		if err != nil {
			t.Fatalf("popular: %v", err)
		}
		if len(movies) != 2 || movies[0].Title != "Dune" {
			t.Fatalf("unexpected movies %+v", movies)
		}
	}
	if got := b.count("/tmdb/populares/"); got != 1 {
		t.Fatalf("expected one backend call got %d", got)
	}

	releases, err := svc.Releases(ctx)
	if err != nil {
		t.Fatalf("releases: %v", err)
	}
	if len(releases) != 1 || releases[0].ID != 3 {
		t.Fatalf("unexpected releases %+v", releases)
	}
}

func TestMovieServiceSearchCachedPerPage(t *testing.T) {
	b := newTestBackend()
	svc, _ := newTestMovieService(t, b)
	ctx := context.Background()

	page1, err := svc.Search(ctx, "batman", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page1.Page != 1 || page1.TotalPages != 3 || !page1.HasMore() {
		t.Fatalf("unexpected page %+v", page1)
	}
	if _, err := svc.Search(ctx, "batman", 1); err != nil {
		t.Fatalf("search: %v", err)
	}
	page2, err := svc.Search(ctx, "batman", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page2.Page != 2 {
		t.Fatalf("expected page 2 got %d", page2.Page)
	}
	if got := b.count("/tmdb/buscar/"); got != 2 {
		t.Fatalf("expected 2 backend calls (one per page) got %d", got)
	}

	if _, err := svc.Search(ctx, "  ", 1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty query got %v", err)
	}
}

func TestMovieServiceDetailsCached(t *testing.T) {
	b := newTestBackend()
	svc, _ := newTestMovieService(t, b)

	for i := 0; i < 2; i++ {
		m, err := svc.Details(context.Background(), 550)
		if err != nil {
			t.Fatalf("details: %v", err)
		}
		if m.ID != 550 {
			t.Fatalf("unexpected movie %+v", m)
		}
	}
	if got := b.count("/tmdb/detalle/550/"); got != 1 {
		t.Fatalf("expected one backend call got %d", got)
	}
}

func TestMovieServiceListsBypassCache(t *testing.T) {
	b := newTestBackend()
	svc, c := newTestMovieService(t, b)
	ctx := context.Background()

	svc.Favorites(ctx)
	svc.Favorites(ctx)
	svc.Watched(ctx)
	if got := b.count("/favoritos/"); got != 2 {
		t.Fatalf("expected every favorites read to hit the backend got %d", got)
	}
	if c.Len() != 0 {
		t.Fatalf("expected nothing cached got %d entries", c.Len())
	}
}

func TestMovieServiceFavoriteRoundTrip(t *testing.T) {
	b := newTestBackend()
	svc, _ := newTestMovieService(t, b)
	ctx := context.Background()

	created, err := svc.AddFavorite(ctx, domain.MovieInput{TMDBID: 42, Title: "Hitchhiker"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.FavoriteID != 7 || created.ID != 42 || created.Title != "Hitchhiker" {
		t.Fatalf("unexpected favorite %+v", created)
	}

	if err := svc.RemoveFavorite(ctx, created.FavoriteID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	favorites, err := svc.Favorites(ctx)
	if err != nil {
		t.Fatalf("favorites: %v", err)
	}
	for _, f := range favorites {
		if f.FavoriteID == 7 {
			t.Fatal("removed favorite still listed")
		}
	}

	if err := svc.RemoveFavorite(ctx, 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for a second removal got %v", err)
	}
}

func TestMovieServiceWatchedShapesMatch(t *testing.T) {
	b := newTestBackend()
	svc, _ := newTestMovieService(t, b)
	ctx := context.Background()

	added, err := svc.AddWatched(ctx, domain.MovieInput{TMDBID: 42, Title: "Hitchhiker"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	rated, err := svc.UpdateWatchedRating(ctx, added.WatchedID, 4)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	listed, err := svc.Watched(ctx)
	if err != nil {
		t.Fatalf("watched: %v", err)
	}

	if len(listed) != 1 {
		t.Fatalf("expected one watched entry got %d", len(listed))
	}
	for _, m := range []domain.Movie{added, rated, listed[0]} {
		if m.WatchedID != added.WatchedID || m.ID != 42 || m.FavoriteID != 0 {
			t.Fatalf("inconsistent watched shape %+v", m)
		}
	}
	if rated.Rating != 4 || listed[0].Rating != 4 {
		t.Fatalf("expected rating 4 got %d / %d", rated.Rating, listed[0].Rating)
	}

	if _, err := svc.UpdateWatchedRating(ctx, added.WatchedID, 6); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for rating 6 got %v", err)
	}
}

func TestMovieServiceRejectsMalformedEnvelope(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":3}]`))
	})
	svc, _ := newTestMovieService(t, h)

	_, err := svc.Favorites(context.Background())
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestMovieServiceDoesNotCacheMalformedPayload(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"unexpected":true}`))
			return
		}
		w.Write([]byte(`[{"id":1,"title":"Dune"}]`))
	})
	svc, _ := newTestMovieService(t, h)

	if _, err := svc.Popular(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	movies, err := svc.Popular(context.Background())
	if err != nil || len(movies) != 1 {
		t.Fatalf("expected a fresh fetch got %v %+v", err, movies)
	}
}

func TestMovieServiceClassifiesServerErrors(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc, c := newTestMovieService(t, h)

	if _, err := svc.Popular(context.Background()); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected server error got %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("expected failed reads not to be cached")
	}
}

func TestMovieServiceSearchAllStopsAtLastPage(t *testing.T) {
	b := newTestBackend()
	svc, _ := newTestMovieService(t, b)

	movies, err := svc.SearchAll(context.Background(), "batman", 0)
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(movies) != 3 {
		t.Fatalf("expected one result per page across 3 pages got %d", len(movies))
	}
	if got := b.count("/tmdb/buscar/"); got != 3 {
		t.Fatalf("expected 3 page fetches got %d", got)
	}

	if _, err := svc.SearchAll(context.Background(), "batman", 2); err != nil {
		t.Fatalf("search all: %v", err)
	}
	if got := b.count("/tmdb/buscar/"); got != 3 {
		t.Fatalf("expected cached pages to be reused got %d fetches", got)
	}
}
