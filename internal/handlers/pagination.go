package handlers

import (
	"math"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/httpx"
)

// SortDirection represents sort order
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PaginationParams holds pagination and sorting query parameters
type PaginationParams struct {
	Page      int           `json:"page"`       // 1-indexed page number (default: 1)
	Per       int           `json:"per"`        // Items per page (default: 10, max: 100)
	Offset    int           `json:"-"`          // Index of the first item on the page
	SortBy    string        `json:"sort_by"`    // Column to sort by (default: "count")
	SortOrder SortDirection `json:"sort_order"` // Sort direction: "asc" or "desc" (default: "desc")
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Per        int   `json:"per"`
	Total      int64 `json:"total"`       // Total items across all pages
	TotalPages int   `json:"total_pages"` // Calculated total pages
	HasMore    bool  `json:"has_more"`    // Whether more pages exist
}

// LookupSummary totals the whole slice, not just the returned page.
type LookupSummary struct {
	Total       int64 `json:"total"`
	UniqueCount int   `json:"unique_count"`
}

// PaginatedResponse wraps a lookup page with pagination metadata
type PaginatedResponse struct {
	Data       any            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	Summary    LookupSummary  `json:"summary"`
}

// ValidSortColumns defines allowed sort columns per lookup endpoint
var ValidSortColumns = map[string][]string{
	"error_codes":     {"count", "code"},
	"failure_reasons": {"count", "reason"},
	"login_urls":      {"count", "url"},
}

// maxPage keeps (page-1)*per inside int for any accepted per.
const maxPage = math.MaxInt / maxPer

const maxPer = 100

// ParsePaginationParams extracts and validates pagination from request
func ParsePaginationParams(c fiber.Ctx) PaginationParams {
	page := min(max(httpx.QueryInt(c, "page", 1), 1), maxPage)
	per := min(max(httpx.QueryInt(c, "per", 10), 1), maxPer)
	offset := (page - 1) * per

	sortBy := strings.ToLower(httpx.QueryString(c, "sort_by", "count"))
	sortOrder := SortDirection(strings.ToLower(httpx.QueryString(c, "sort_order", "desc")))

	if sortOrder != SortAsc && sortOrder != SortDesc {
		sortOrder = SortDesc
	}

	return PaginationParams{
		Page:      page,
		Per:       per,
		Offset:    offset,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}

// ParsePaginationParamsWithValidation extracts pagination with column validation
func ParsePaginationParamsWithValidation(c fiber.Ctx, endpointType string) PaginationParams {
	params := ParsePaginationParams(c)

	validColumns, ok := ValidSortColumns[endpointType]
	if ok && !slices.Contains(validColumns, params.SortBy) {
		params.SortBy = validColumns[0]
	}

	return params
}

// BuildPaginationMeta creates pagination metadata for a slice of total items
func BuildPaginationMeta(params PaginationParams, total int64) PaginationMeta {
	var totalPages int
	if total > 0 && params.Per > 0 {
		totalPages = int((total + int64(params.Per) - 1) / int64(params.Per))
	}
	hasMore := params.Page < totalPages

	return PaginationMeta{
		Page:       params.Page,
		Per:        params.Per,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    hasMore,
	}
}

// Paginate returns the window of items selected by params. Pages past the
// end are empty, never nil.
func Paginate[T any](items []T, params PaginationParams) []T {
	if params.Offset < 0 || params.Offset >= len(items) {
		return []T{}
	}
	end := params.Offset + min(params.Per, len(items)-params.Offset)
	return items[params.Offset:end]
}

// SortItems orders a copy of items by count or by a name column. Count
// sorting is stable so ties keep their source order.
func SortItems[T any](items []T, params PaginationParams, count func(T) int64, name func(T) string) []T {
	sorted := slices.Clone(items)
	byCount := func(a, b T) int {
		switch {
		case count(a) < count(b):
			return -1
		case count(a) > count(b):
			return 1
		}
		return 0
	}
	byName := func(a, b T) int { return strings.Compare(name(a), name(b)) }

	cmp := byCount
	if params.SortBy != "count" {
		cmp = byName
	}
	if params.SortOrder == SortDesc {
		asc := cmp
		cmp = func(a, b T) int { return asc(b, a) }
	}
	slices.SortStableFunc(sorted, cmp)
	return sorted
}

// NewPaginatedResponse wraps a page with pagination metadata and the slice summary
func NewPaginatedResponse(data any, params PaginationParams, summary LookupSummary, total int64) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Pagination: BuildPaginationMeta(params, total),
		Summary:    summary,
	}
}
