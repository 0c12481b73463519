package handlers

import "strconv"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type paginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func buildPaginationMeta(page, limit, total int) paginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return paginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// paginate returns the requested page of items; pages past the end are empty.
func paginate[T any](items []T, page, limit int) ([]T, paginationMeta) {
	meta := buildPaginationMeta(page, limit, len(items))
	if page > meta.TotalPages {
		return []T{}, meta
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], meta
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
