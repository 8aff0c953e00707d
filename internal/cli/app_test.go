package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cinehub/cinehub/internal/api"
	"github.com/cinehub/cinehub/internal/cache"
	"github.com/cinehub/cinehub/internal/domain"
	"github.com/cinehub/cinehub/internal/service"
	"github.com/cinehub/cinehub/internal/session"
	"github.com/cinehub/cinehub/internal/store"
)

// cliBackend serves just enough of the API for the commands under test
func cliBackend(t *testing.T) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	favorites := map[string]map[string]any{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login-jwt/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access":"T1","refresh":"R1"}`))
	})
	mux.HandleFunc("/api/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":1,"email":"a@b.com","nombre":"A"}`))
	})
	mux.HandleFunc("/api/tmdb/populares/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":42,"title":"Hitchhiker","release_date":"2005-04-28"}]`))
	})
	mux.HandleFunc("/api/tmdb/detalle/42/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":42,"title":"Hitchhiker","overview":"Don't panic."}`))
	})
	mux.HandleFunc("/api/vistos/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/api/favoritos/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodGet:
			out := []map[string]any{}
			for _, e := range favorites {
				out = append(out, e)
			}
			json.NewEncoder(w).Encode(out)
		case r.Method == http.MethodPost:
			var movie map[string]any
			json.NewDecoder(r.Body).Decode(&movie)
			entry := map[string]any{"id": 7, "movie": movie}
			favorites["7"] = entry
			json.NewEncoder(w).Encode(entry)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/favoritos/7/":
			delete(favorites, "7")
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, input string) (*App, *bytes.Buffer) {
	t.Helper()
	srv := cliBackend(t)

	tokens, err := store.NewSessionStore("")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	client := api.NewClient(srv.URL+api.PathPrefix, time.Second, nil)
	refresher := api.NewRefresher(client, tokens, nil)
	do := refresher.Wrap(client.Do)

	c := cache.New(time.Minute)
	movies := service.NewMovieService(do, c, nil)
	lists := service.NewListService(movies, nil)
	ctrl := session.NewController(session.Deps{
		Client:    client,
		Refresher: refresher,
		Tokens:    tokens,
		Auth:      service.NewAuthService(do, nil),
		Cache:     c,
		Lists:     lists,
	})
	<-ctrl.Init(context.Background())

	var out bytes.Buffer
	return NewApp(ctrl, movies, lists, NewPrompter(strings.NewReader(input), &out), &out, nil), &out
}

func TestAppRejectsUnknownCommand(t *testing.T) {
	app, _ := newTestApp(t, "")

	if err := app.Run(context.Background(), []string{"dance"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error got %v", err)
	}
	if err := app.Run(context.Background(), nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error got %v", err)
	}
}

func TestAppListCommandsNeedSignIn(t *testing.T) {
	app, _ := newTestApp(t, "")

	err := app.Run(context.Background(), []string{"favorites"})
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected auth error got %v", err)
	}
}

func TestAppLoginAndToggleFavorite(t *testing.T) {
	app, out := newTestApp(t, "secret1\n")
	ctx := context.Background()

	if err := app.Run(ctx, []string{"login", "a@b.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "Signed in as a@b.com") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := app.Run(ctx, []string{"favorite", "42"}); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if !strings.Contains(out.String(), "Added to favorites") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := app.Run(ctx, []string{"popular"}); err != nil {
		t.Fatalf("popular: %v", err)
	}
	if !strings.Contains(out.String(), "Hitchhiker") || !strings.Contains(out.String(), FavoriteChar) {
		t.Fatalf("expected favorite marker in %q", out.String())
	}

	out.Reset()
	if err := app.Run(ctx, []string{"favorite", "42"}); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}
	if !strings.Contains(out.String(), "Removed from favorites") {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := app.Run(ctx, []string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := app.Run(ctx, []string{"whoami"}); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected auth error after logout got %v", err)
	}
}

func TestAppRateValidatesArguments(t *testing.T) {
	app, _ := newTestApp(t, "secret1\n")
	ctx := context.Background()

	if err := app.Run(ctx, []string{"login", "a@b.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := app.Run(ctx, []string{"rate", "42"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error got %v", err)
	}
	if err := app.Run(ctx, []string{"rate", "abc", "3"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error got %v", err)
	}
}
