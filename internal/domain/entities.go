package domain

import (
	"fmt"
	"strings"
)

// PosterBaseURL is the TMDB image CDN prefix for poster paths
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// ListKind identifies one of the user's personal movie lists
type ListKind int

const (
	ListFavorites ListKind = iota
	ListWatched
)

func (k ListKind) String() string {
	switch k {
	case ListFavorites:
		return "favorites"
	case ListWatched:
		return "watched"
	default:
		return fmt.Sprintf("list(%d)", int(k))
	}
}

// Movie is a catalog movie, optionally annotated with list membership.
// Membership is decided only by the backend-assigned entry IDs; a zero ID
// means the movie is not in that list.
type Movie struct {
	ID          int     `json:"id"`                     // Catalog (TMDB) identifier
	Title       string  `json:"title"`                  // Display title
	Overview    string  `json:"overview,omitempty"`     // Plot synopsis
	PosterPath  string  `json:"poster_path,omitempty"`  // TMDB poster path ("/abc.jpg")
	Poster      string  `json:"poster,omitempty"`       // Absolute poster URL, if the backend sent one
	ReleaseDate string  `json:"release_date,omitempty"` // YYYY-MM-DD
	VoteAverage float64 `json:"vote_average,omitempty"` // Community rating (0-10)
	GenreIDs    []int   `json:"genre_ids,omitempty"`

	// List membership (backend-assigned entry IDs)
	FavoriteID int64 `json:"favorite_id,omitempty"`
	WatchedID  int64 `json:"watched_id,omitempty"`

	// User rating for watched entries (0 = unrated, otherwise 1-5)
	Rating int `json:"rating,omitempty"`
}

// IsFavorite reports whether the movie carries a favorites entry ID
func (m Movie) IsFavorite() bool {
	return m.FavoriteID != 0
}

// IsWatched reports whether the movie carries a watched entry ID
func (m Movie) IsWatched() bool {
	return m.WatchedID != 0
}

// EntryID returns the list entry ID for the given list (0 if absent)
func (m Movie) EntryID(kind ListKind) int64 {
	if kind == ListWatched {
		return m.WatchedID
	}
	return m.FavoriteID
}

// Year returns the release year, or "" when unknown
func (m Movie) Year() string {
	year, _, _ := strings.Cut(m.ReleaseDate, "-")
	return year
}

// PosterURL returns an absolute poster URL, or "" when the movie has none
func (m Movie) PosterURL() string {
	if m.PosterPath != "" {
		return PosterBaseURL + m.PosterPath
	}
	return m.Poster
}

// SearchPage is one page of catalog search results
type SearchPage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// HasMore reports whether another page can be requested
func (p SearchPage) HasMore() bool {
	return p.Page < p.TotalPages
}

// MovieInput is the payload used to add a catalog movie to a personal list
type MovieInput struct {
	TMDBID      int    `json:"tmdb_id"`
	Title       string `json:"title"`
	Overview    string `json:"overview,omitempty"`
	PosterPath  string `json:"poster_path,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// InputFromMovie builds the list payload for a catalog movie
func InputFromMovie(m Movie) MovieInput {
	return MovieInput{
		TMDBID:      m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
	}
}

// MinRating and MaxRating bound the rating of a watched entry
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is an acceptable watched rating
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
