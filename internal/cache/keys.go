package cache

import (
	"net/url"
	"strconv"
)

// Cache key categories for catalog reads
const (
	// CategoryPopular is the key for the popular movies list
	CategoryPopular = "popular"

	// CategoryReleases is the key for the new releases list
	CategoryReleases = "releases"

	// CategorySearch prefixes search pages (search?page={n}&q={query})
	CategorySearch = "search"

	// CategoryDetail prefixes movie details (detail?id={id})
	CategoryDetail = "detail"
)

// Key combines a category with every parameter that affects the result.
// Parameters are sorted and escaped, so equal requests share a key and
// distinct requests never collide.
func Key(category string, params url.Values) string {
	if len(params) == 0 {
		return category
	}
	return category + "?" + params.Encode()
}

// SearchKey is the key for one page of a catalog search
func SearchKey(query string, page int) string {
	return Key(CategorySearch, url.Values{
		"q":    {query},
		"page": {strconv.Itoa(page)},
	})
}

// DetailKey is the key for one movie's details
func DetailKey(movieID int) string {
	return Key(CategoryDetail, url.Values{"id": {strconv.Itoa(movieID)}})
}
