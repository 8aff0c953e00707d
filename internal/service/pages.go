package service

import (
	"context"
)

// maxSearchPages caps SearchAll so a broad query cannot walk the whole catalog
const maxSearchPages = 10

// collectPages walks a 1-based paged endpoint until the last page, an
// empty page or maxPages, whichever comes first
func collectPages[T any](
	ctx context.Context,
	fetch func(ctx context.Context, page int) (items []T, totalPages int, err error),
	maxPages int,
	onProgress func(page, totalPages int),
) ([]T, error) {
	if maxPages <= 0 || maxPages > maxSearchPages {
		maxPages = maxSearchPages
	}

	var all []T
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		items, totalPages, err := fetch(ctx, page)
		if err != nil {
			return all, err
		}
		all = append(all, items...)

		if onProgress != nil {
			onProgress(page, totalPages)
		}
		if page >= totalPages || len(items) == 0 {
			break
		}
	}
	return all, nil
}
