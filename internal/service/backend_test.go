package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cinehub/cinehub/internal/api"
	"github.com/cinehub/cinehub/internal/cache"
)

// testBackend is an in-memory stand-in for the CineHub API
type testBackend struct {
	mu     sync.Mutex
	nextID int64
	lists  map[string]map[int64]map[string]any // "favoritos"/"vistos" -> id -> envelope
	hits   map[string]int                      // path -> request count
}

func newTestBackend() *testBackend {
	return &testBackend{
		nextID: 6,
		lists: map[string]map[int64]map[string]any{
			"favoritos": {},
			"vistos":    {},
		},
		hits: make(map[string]int),
	}
}

func (b *testBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *testBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api")
	b.hits[path]++

	switch {
	case path == "/tmdb/populares/":
		w.Write([]byte(`[{"id":1,"title":"Dune"},{"id":2,"title":"Alien"}]`))
	case path == "/tmdb/estrenos/":
		w.Write([]byte(`{"results":[{"id":3,"title":"Heat"}]}`))
	case path == "/tmdb/buscar/":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]any{
			"page":          page,
			"total_pages":   3,
			"total_results": 41,
			"results":       []map[string]any{{"id": 268, "title": r.URL.Query().Get("q")}},
		})
	case strings.HasPrefix(path, "/tmdb/detalle/"):
		id := strings.Trim(strings.TrimPrefix(path, "/tmdb/detalle/"), "/")
		w.Write([]byte(`{"id":` + id + `,"title":"Detail","overview":"x"}`))
	case strings.HasPrefix(path, "/favoritos/"), strings.HasPrefix(path, "/vistos/"):
		b.serveList(w, r, path)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *testBackend) serveList(w http.ResponseWriter, r *http.Request, path string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	name := parts[0]
	list := b.lists[name]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			ids := make([]int64, 0, len(list))
			for id := range list {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			out := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				out = append(out, list[id])
			}
			json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var movie map[string]any
			if err := json.NewDecoder(r.Body).Decode(&movie); err != nil || movie["tmdb_id"] == nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"tmdb_id":["This field is required."]}`))
				return
			}
			b.nextID++
			entry := map[string]any{"id": b.nextID, "movie": movie}
			if name == "vistos" {
				entry["watched_at"] = time.Now().UTC().Format(time.RFC3339)
			}
			list[b.nextID] = entry
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(entry)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, _ := strconv.ParseInt(parts[1], 10, 64)
	entry, ok := list[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not found."}`))
		return
	}
	switch r.Method {
	case http.MethodDelete:
		delete(list, id)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		entry["calificacion"] = body["calificacion"]
		json.NewEncoder(w).Encode(entry)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestMovieService(t *testing.T, b http.Handler) (*MovieService, *cache.Store) {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL+api.PathPrefix, time.Second, nil)
	client.SetAuthToken("T1")
	c := cache.New(time.Minute)
	return NewMovieService(client.Do, c, nil), c
}
