// Package aggregate derives totals, shares and rankings from lookup slices.
package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/seuros/funnelscope/internal/dataset"
)

// DefaultTopN is the ranking depth used by the dashboard tables and charts.
const DefaultTopN = 10

// Summary is the record set handed to a table or chart.
type Summary[T any] struct {
	TopN        []T   `json:"top_n"`
	All         []T   `json:"all"`
	Total       int64 `json:"total"`
	UniqueCount int   `json:"unique_count"`
}

// Summarize totals items and ranks the topN largest by count. All keeps the
// source order; ties in the ranking keep it as well.
func Summarize[T any](items []T, count func(T) int64, identity func(T) string, topN int) Summary[T] {
	if topN <= 0 {
		topN = DefaultTopN
	}

	all := make([]T, len(items))
	copy(all, items)

	var total int64
	unique := make(map[string]struct{}, len(items))
	for _, item := range all {
		total += count(item)
		unique[identity(item)] = struct{}{}
	}

	ranked := SortByCount(all, count)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return Summary[T]{
		TopN:        ranked,
		All:         all,
		Total:       total,
		UniqueCount: len(unique),
	}
}

// SortByCount returns a copy of items ordered by count descending. The sort
// is stable so equal counts keep their relative source order.
func SortByCount[T any](items []T, count func(T) int64) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(count(b), count(a))
	})
	return sorted
}

// Percent is count's share of total, truncated to one decimal. A zero total
// yields zero.
func Percent(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Trunc(float64(count)/float64(total)*1000) / 10
}

// ErrorCodes summarises an error code slice. Duplicate codes stay separate rows.
func ErrorCodes(records []dataset.ErrorCodeRecord, topN int) Summary[dataset.ErrorCodeRecord] {
	return Summarize(records,
		func(r dataset.ErrorCodeRecord) int64 { return r.Count },
		func(r dataset.ErrorCodeRecord) string { return r.Code },
		topN)
}

// FailureReasonsFor keeps the records whose last internal error code equals
// code and orders them by count descending.
func FailureReasonsFor(records []dataset.FailureReasonRecord, code string) []dataset.FailureReasonRecord {
	filtered := make([]dataset.FailureReasonRecord, 0)
	for _, r := range records {
		if r.LastInternalErrCode == code {
			filtered = append(filtered, r)
		}
	}
	return SortByCount(filtered, func(r dataset.FailureReasonRecord) int64 { return r.Count })
}

// FailureReasons summarises the failure reasons recorded for one error code.
func FailureReasons(records []dataset.FailureReasonRecord, code string, topN int) Summary[dataset.FailureReasonRecord] {
	return Summarize(FailureReasonsFor(records, code),
		func(r dataset.FailureReasonRecord) int64 { return r.Count },
		func(r dataset.FailureReasonRecord) string { return r.FailureReason },
		topN)
}

// LoginPageURLs summarises a login page slice.
func LoginPageURLs(records []dataset.LoginPageURLRecord, topN int) Summary[dataset.LoginPageURLRecord] {
	return Summarize(records,
		func(r dataset.LoginPageURLRecord) int64 { return r.Count },
		func(r dataset.LoginPageURLRecord) string { return r.PageURL },
		topN)
}

// Share is a child row with its share of the children total.
type Share struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
	Share      float64 `json:"share"`
	Color      string  `json:"color,omitempty"`
	Drill      string  `json:"drill,omitempty"`
}

// Children turns normalised stage children into display rows. The curated
// percentage is kept next to the computed share; neither is forced to sum
// to 100 and the children total is not reconciled with the parent count.
func Children(children []dataset.Child) ([]Share, int64) {
	var total int64
	for _, child := range children {
		total += child.Entry.Count
	}

	rows := make([]Share, 0, len(children))
	for _, child := range children {
		row := Share{
			ID:         child.ID,
			Label:      child.Entry.Label,
			Count:      child.Entry.Count,
			Percentage: child.Entry.Percentage,
			Share:      Percent(child.Entry.Count, total),
			Color:      child.Entry.Color,
		}
		switch {
		case child.Entry.HasErrorCodes:
			row.Drill = "error_codes"
		case child.Entry.HasPageURLs:
			row.Drill = "page_urls"
		}
		rows = append(rows, row)
	}
	return rows, total
}
