package dataset

import (
	"slices"
	"strings"
)

// FunnelTable holds month -> country -> ordered funnel stages.
type FunnelTable map[string]map[Country][]FunnelStage

// ErrorCodeTable holds month -> country -> transaction type -> error codes.
type ErrorCodeTable map[string]map[Country]map[TxnType][]ErrorCodeRecord

// FailureReasonTable holds month -> country -> transaction type -> failure reasons.
type FailureReasonTable map[string]map[Country]map[TxnType][]FailureReasonRecord

// LoginPageURLTable holds month -> country -> login bucket -> page URLs.
type LoginPageURLTable map[string]map[Country]map[string][]LoginPageURLRecord

// Snapshot is the immutable dataset the dashboard navigates. Slices returned
// by its accessors are shared and must not be modified by callers.
type Snapshot struct {
	Funnels            FunnelTable        `yaml:"funnels" json:"funnels"`
	ErrorCodeTable     ErrorCodeTable     `yaml:"error_codes" json:"error_codes"`
	FailureReasonTable FailureReasonTable `yaml:"failure_reasons" json:"failure_reasons"`
	LoginPageURLTable  LoginPageURLTable  `yaml:"login_page_urls" json:"login_page_urls"`
}

// Funnel returns the stages for a month and country, or nil when absent.
func (s *Snapshot) Funnel(month string, country Country) []FunnelStage {
	if s == nil {
		return nil
	}
	return s.Funnels[month][country]
}

// Stage finds a top-level stage by id.
func (s *Snapshot) Stage(key Key, stageID string) (FunnelStage, bool) {
	for _, stage := range s.Funnel(key.Month, key.Country) {
		if stage.Stage == stageID {
			return stage, true
		}
	}
	return FunnelStage{}, false
}

// ErrorCodes resolves the error code slice for key. Misses yield an empty slice.
func (s *Snapshot) ErrorCodes(key Key) []ErrorCodeRecord {
	if s == nil {
		return []ErrorCodeRecord{}
	}
	if records := s.ErrorCodeTable[key.Month][key.Country][key.TxnType]; records != nil {
		return records
	}
	return []ErrorCodeRecord{}
}

// FailureReasons resolves the failure reason slice for key.
func (s *Snapshot) FailureReasons(key Key) []FailureReasonRecord {
	if s == nil {
		return []FailureReasonRecord{}
	}
	if records := s.FailureReasonTable[key.Month][key.Country][key.TxnType]; records != nil {
		return records
	}
	return []FailureReasonRecord{}
}

// LoginPageURLs resolves the login page slice for a login frequency bucket.
func (s *Snapshot) LoginPageURLs(key Key, bucket string) []LoginPageURLRecord {
	if s == nil {
		return []LoginPageURLRecord{}
	}
	if records := s.LoginPageURLTable[key.Month][key.Country][bucket]; records != nil {
		return records
	}
	return []LoginPageURLRecord{}
}

// Months returns every month present in the funnel model, newest first.
func (s *Snapshot) Months() []string {
	if s == nil {
		return nil
	}
	months := make([]string, 0, len(s.Funnels))
	for month := range s.Funnels {
		months = append(months, month)
	}
	slices.SortFunc(months, func(a, b string) int { return strings.Compare(b, a) })
	return months
}

// LatestMonth returns the newest month or the empty string.
func (s *Snapshot) LatestMonth() string {
	months := s.Months()
	if len(months) == 0 {
		return ""
	}
	return months[0]
}

// HasMonth reports whether the funnel model knows month.
func (s *Snapshot) HasMonth(month string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Funnels[month]
	return ok
}

// TrendPoint is one month of a stage trend line.
type TrendPoint struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// Trend returns the count of stageID for every month, oldest first. Months
// where the stage is absent report zero.
func (s *Snapshot) Trend(country Country, stageID string) []TrendPoint {
	months := s.Months()
	slices.Reverse(months)
	points := make([]TrendPoint, 0, len(months))
	for _, month := range months {
		point := TrendPoint{Month: month}
		if stage, ok := s.Stage(Key{Month: month, Country: country}, stageID); ok {
			point.Count = stage.Count
		}
		points = append(points, point)
	}
	return points
}
