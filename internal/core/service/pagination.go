package service

import "github.com/creatorspace/community-api/internal/core/ports"

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// normalizePage clamps page to >= 1 and limit to [1, maxPageLimit].
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func pageOffset(page, limit int) int {
	return (page - 1) * limit
}

func newPagination(page, limit int, total int64) ports.Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return ports.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		HasMore:    int64(pageOffset(page, limit)+limit) < total,
		TotalPages: totalPages,
	}
}
