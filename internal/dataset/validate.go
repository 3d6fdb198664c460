package dataset

import (
	"fmt"
	"slices"
	"strings"
)

// Finding is a dataset consistency warning. None of them prevent serving.
type Finding struct {
	Check   string `json:"check"`
	Month   string `json:"month,omitempty"`
	Country string `json:"country,omitempty"`
	Message string `json:"message"`
}

// Inspect runs the consistency checks used by the doctor command. Child
// counts that do not add up to their parent are expected and not reported.
func Inspect(s *Snapshot) []Finding {
	var findings []Finding
	add := func(check, month string, country Country, format string, args ...any) {
		findings = append(findings, Finding{
			Check:   check,
			Month:   month,
			Country: string(country),
			Message: fmt.Sprintf(format, args...),
		})
	}

	for _, month := range s.Months() {
		if _, ok := s.ErrorCodeTable[month]; !ok {
			add("month_coverage", month, "", "month missing from error_codes")
		}
		if _, ok := s.FailureReasonTable[month]; !ok {
			add("month_coverage", month, "", "month missing from failure_reasons")
		}
		if _, ok := s.LoginPageURLTable[month]; !ok {
			add("month_coverage", month, "", "month missing from login_page_urls")
		}

		for country, stages := range s.Funnels[month] {
			if !slices.Contains(Countries, country) {
				add("country", month, country, "unsupported country key")
			}
			key := Key{Month: month, Country: country}
			if len(stages) == 0 || stages[0].Stage != "signups" || stages[0].Percentage != 100 {
				add("first_stage", month, country, "first stage must be signups at 100%%")
			}
			for _, stage := range stages {
				if stage.Count < 0 {
					add("count", month, country, "stage %q has a negative count", stage.Stage)
				}
				if len(stage.SubCategory) > 0 && stage.Breakdown.Len() > 0 {
					add("shape", month, country, "stage %q has both sub_category and breakdown", stage.Stage)
				}
				for _, child := range stage.Children() {
					findings = append(findings, s.inspectChild(key, stage, child)...)
				}
			}
		}
	}

	for month, byCountry := range s.ErrorCodeTable {
		for country, byTxn := range byCountry {
			for txn, records := range byTxn {
				seen := make(map[string]int, len(records))
				for _, r := range records {
					seen[r.Code]++
				}
				for code, n := range seen {
					if n > 1 {
						add("duplicate_code", month, country, "%s code %q appears %d times", txn, code, n)
					}
				}
			}
		}
	}

	slices.SortStableFunc(findings, func(a, b Finding) int {
		if a.Month != b.Month {
			return strings.Compare(b.Month, a.Month)
		}
		if a.Country != b.Country {
			return strings.Compare(a.Country, b.Country)
		}
		if a.Check != b.Check {
			return strings.Compare(a.Check, b.Check)
		}
		return strings.Compare(a.Message, b.Message)
	})
	return findings
}

func (s *Snapshot) inspectChild(key Key, stage FunnelStage, child Child) []Finding {
	var findings []Finding
	note := func(check, format string, args ...any) {
		findings = append(findings, Finding{
			Check:   check,
			Month:   key.Month,
			Country: string(key.Country),
			Message: fmt.Sprintf(format, args...),
		})
	}

	entry := child.Entry
	if entry.HasErrorCodes && entry.HasPageURLs {
		note("flags", "%s/%s sets both has_error_codes and has_page_urls", stage.Stage, child.ID)
	}
	if entry.HasErrorCodes {
		txn := InferTxnType(child)
		if len(s.ErrorCodes(key.WithTxn(txn))) == 0 {
			note("empty_slice", "%s/%s resolves to an empty %s error code slice", stage.Stage, child.ID, txn)
		}
	} else if entry.HasPageURLs {
		if len(s.LoginPageURLs(key, child.ID)) == 0 {
			note("empty_slice", "%s/%s resolves to an empty login page slice", stage.Stage, child.ID)
		}
	}
	return findings
}
