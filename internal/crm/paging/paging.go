// Package paging provides the shared fixed-size pagination applied at the end
// of every derivation pipeline.
package paging

// DefaultPageSize is the page size used across every list surface.
const DefaultPageSize = 10

// Page is one page of a filtered and sorted result set. TotalCount is the
// size of the whole set so the UI can render page controls.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
}

// Slice returns the 1-based page of rows. Pages out of range return an empty
// page with the real total, so concatenating pages 1..N reconstructs the set
// exactly once.
func Slice[T any](rows []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}

	return Page[T]{
		Items:      append([]T(nil), rows[start:end]...),
		TotalCount: len(rows),
		Page:       page,
		PageSize:   pageSize,
	}
}
