package service

import (
	"bytes"
	"encoding/json"

	"github.com/cinehub/cinehub/internal/domain"
)

// movieDTO is a movie as the backend sends it. Catalog endpoints use the
// TMDB id as "id"; list envelopes store it as "tmdb_id".
type movieDTO struct {
	ID          int     `json:"id"`
	TMDBID      int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	Poster      string  `json:"poster"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids"`
}

func (d movieDTO) catalogID() int {
	if d.TMDBID != 0 {
		return d.TMDBID
	}
	return d.ID
}

// listEntryDTO is the envelope returned by /favoritos/ and /vistos/
type listEntryDTO struct {
	ID        int64     `json:"id"`
	Movie     *movieDTO `json:"movie"`
	Rating    *int      `json:"calificacion"`
	WatchedAt string    `json:"watched_at"`
}

// listEntry is a decoded envelope tagged with the list it belongs to
type listEntry struct {
	kind domain.ListKind
	dto  listEntryDTO
}

// searchDTO is the body of /tmdb/buscar/
type searchDTO struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []movieDTO `json:"results"`
}

// movie flattens the envelope into a movie carrying its entry ID
func (e listEntry) movie() (domain.Movie, error) {
	if e.dto.ID == 0 {
		return domain.Movie{}, domain.NewValidationError("%s entry has no id", e.kind)
	}
	if e.dto.Movie == nil {
		return domain.Movie{}, domain.NewValidationError("%s entry %d has no movie", e.kind, e.dto.ID)
	}

	m := mapMovie(*e.dto.Movie)
	switch e.kind {
	case domain.ListFavorites:
		m.FavoriteID = e.dto.ID
	case domain.ListWatched:
		m.WatchedID = e.dto.ID
		if e.dto.Rating != nil {
			if *e.dto.Rating != 0 && !domain.ValidRating(*e.dto.Rating) {
				return domain.Movie{}, domain.NewValidationError("watched entry %d has rating %d", e.dto.ID, *e.dto.Rating)
			}
			m.Rating = *e.dto.Rating
		}
	}
	return m, nil
}

func mapMovie(d movieDTO) domain.Movie {
	return domain.Movie{
		ID:          d.catalogID(),
		Title:       d.Title,
		Overview:    d.Overview,
		PosterPath:  d.PosterPath,
		Poster:      d.Poster,
		ReleaseDate: d.ReleaseDate,
		VoteAverage: d.VoteAverage,
		GenreIDs:    d.GenreIDs,
	}
}

func mapMovies(dtos []movieDTO) ([]domain.Movie, error) {
	movies := make([]domain.Movie, 0, len(dtos))
	for _, d := range dtos {
		if d.catalogID() == 0 {
			return nil, domain.NewValidationError("movie %q has no id", d.Title)
		}
		movies = append(movies, mapMovie(d))
	}
	return movies, nil
}

// decodeMovieList accepts either a bare array or a {"results": [...]} object
func decodeMovieList(data []byte) ([]domain.Movie, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []domain.Movie{}, nil
	}

	var dtos []movieDTO
	if data[0] == '[' {
		if err := json.Unmarshal(data, &dtos); err != nil {
			return nil, domain.NewValidationError("failed to parse movie list: %v", err)
		}
		return mapMovies(dtos)
	}

	var wrapped struct {
		Results *[]movieDTO `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Results == nil {
		return nil, domain.NewValidationError("unexpected movie list payload")
	}
	return mapMovies(*wrapped.Results)
}

func decodeSearchPage(data []byte) (domain.SearchPage, error) {
	var dto searchDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.SearchPage{}, domain.NewValidationError("failed to parse search results: %v", err)
	}
	movies, err := mapMovies(dto.Results)
	if err != nil {
		return domain.SearchPage{}, err
	}
	return domain.SearchPage{
		Page:         dto.Page,
		TotalPages:   dto.TotalPages,
		TotalResults: dto.TotalResults,
		Results:      movies,
	}, nil
}

func decodeMovie(data []byte) (domain.Movie, error) {
	var dto movieDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.Movie{}, domain.NewValidationError("failed to parse movie: %v", err)
	}
	if dto.catalogID() == 0 {
		return domain.Movie{}, domain.NewValidationError("movie has no id")
	}
	return mapMovie(dto), nil
}

func decodeEntry(kind domain.ListKind, data []byte) (domain.Movie, error) {
	var dto listEntryDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.Movie{}, domain.NewValidationError("failed to parse %s entry: %v", kind, err)
	}
	return listEntry{kind: kind, dto: dto}.movie()
}

func decodeEntries(kind domain.ListKind, data []byte) ([]domain.Movie, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []domain.Movie{}, nil
	}

	var dtos []listEntryDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, domain.NewValidationError("failed to parse %s: %v", kind, err)
	}

	movies := make([]domain.Movie, 0, len(dtos))
	for _, dto := range dtos {
		m, err := listEntry{kind: kind, dto: dto}.movie()
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func decodeProfile(data []byte) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, domain.NewValidationError("failed to parse profile: %v", err)
	}
	if profile.Email == "" {
		return nil, domain.NewValidationError("profile has no email")
	}
	return &profile, nil
}

func decodeCredentials(data []byte) (domain.Credentials, error) {
	var creds domain.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return domain.Credentials{}, domain.NewValidationError("failed to parse tokens: %v", err)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return domain.Credentials{}, domain.NewValidationError("login response is missing tokens")
	}
	return creds, nil
}
