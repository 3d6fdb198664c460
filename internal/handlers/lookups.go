package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/aggregate"
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/httpx"
)

// ErrorCodeRow is an error code with its share of the slice total
type ErrorCodeRow struct {
	Code       string  `json:"code"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FailureReasonRow is a curated failure reason with its share of the code total
type FailureReasonRow struct {
	Reason     string  `json:"failure_reason"`
	Code       string  `json:"last_intrnl_err_code"`
	Month      string  `json:"mth"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LoginURLRow is a grouped landing page with its share of the bucket total
type LoginURLRow struct {
	PageURL    string  `json:"page_url"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// lookupKey resolves month and country plus a transaction type that
// defaults to ec.
func (h *Handlers) lookupKey(c fiber.Ctx) (dataset.Key, error) {
	key, err := h.resolveKey(c)
	if err != nil {
		return dataset.Key{}, err
	}
	txn, err := dataset.ParseTxnType(httpx.QueryString(c, "txn_type", string(dataset.TxnEC)))
	if err != nil {
		return dataset.Key{}, err
	}
	if txn == dataset.TxnNone {
		txn = dataset.TxnEC
	}
	return key.WithTxn(txn), nil
}

// ErrorCodes pages through the error codes of one key.
func (h *Handlers) ErrorCodes(c fiber.Ctx) error {
	key, err := h.lookupKey(c)
	if err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	params := ParsePaginationParamsWithValidation(c, "error_codes")

	summary := aggregate.ErrorCodes(h.snapshot().ErrorCodes(key), h.deps.TopN)
	sorted := SortItems(summary.All, params,
		func(r dataset.ErrorCodeRecord) int64 { return r.Count },
		func(r dataset.ErrorCodeRecord) string { return r.Code })

	page := Paginate(sorted, params)
	rows := make([]ErrorCodeRow, 0, len(page))
	for _, r := range page {
		rows = append(rows, ErrorCodeRow{Code: r.Code, Count: r.Count, Percentage: aggregate.Percent(r.Count, summary.Total)})
	}

	return c.JSON(NewPaginatedResponse(rows, params,
		LookupSummary{Total: summary.Total, UniqueCount: summary.UniqueCount},
		int64(len(summary.All))))
}

// FailureReasons pages through the failure reasons recorded for one code.
func (h *Handlers) FailureReasons(c fiber.Ctx) error {
	key, err := h.lookupKey(c)
	if err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	code := httpx.QueryString(c, "code", "")
	if code == "" {
		return httpx.Error(c, fiber.StatusBadRequest, "code is required")
	}
	params := ParsePaginationParamsWithValidation(c, "failure_reasons")

	summary := aggregate.FailureReasons(h.snapshot().FailureReasons(key), code, h.deps.TopN)
	sorted := SortItems(summary.All, params,
		func(r dataset.FailureReasonRecord) int64 { return r.Count },
		func(r dataset.FailureReasonRecord) string { return r.FailureReason })

	page := Paginate(sorted, params)
	rows := make([]FailureReasonRow, 0, len(page))
	for _, r := range page {
		rows = append(rows, FailureReasonRow{
			Reason:     r.FailureReason,
			Code:       r.LastInternalErrCode,
			Month:      r.Month,
			Count:      r.Count,
			Percentage: aggregate.Percent(r.Count, summary.Total),
		})
	}

	return c.JSON(NewPaginatedResponse(rows, params,
		LookupSummary{Total: summary.Total, UniqueCount: summary.UniqueCount},
		int64(len(summary.All))))
}

// LoginURLs pages through the landing pages of one login bucket.
func (h *Handlers) LoginURLs(c fiber.Ctx) error {
	key, err := h.resolveKey(c)
	if err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	bucket := httpx.QueryString(c, "bucket", "")
	if bucket == "" {
		return httpx.Error(c, fiber.StatusBadRequest, "bucket is required")
	}
	params := ParsePaginationParamsWithValidation(c, "login_urls")

	summary := aggregate.LoginPageURLs(h.snapshot().LoginPageURLs(key, bucket), h.deps.TopN)
	sorted := SortItems(summary.All, params,
		func(r dataset.LoginPageURLRecord) int64 { return r.Count },
		func(r dataset.LoginPageURLRecord) string { return r.PageURL })

	page := Paginate(sorted, params)
	rows := make([]LoginURLRow, 0, len(page))
	for _, r := range page {
		rows = append(rows, LoginURLRow{PageURL: r.PageURL, Count: r.Count, Percentage: aggregate.Percent(r.Count, summary.Total)})
	}

	return c.JSON(NewPaginatedResponse(rows, params,
		LookupSummary{Total: summary.Total, UniqueCount: summary.UniqueCount},
		int64(len(summary.All))))
}
