// Package navigator implements the drill-down view state machine of the
// funnel dashboard. Exactly one view is active at a time; every detail view
// knows its immediate parent so Back always pops a single level.
package navigator

import (
	"slices"

	"github.com/seuros/funnelscope/internal/dataset"
)

// Kind names a view type.
type Kind string

const (
	KindRoot             Kind = "root"
	KindTrend            Kind = "trend"
	KindStageBreakdown   Kind = "stage_breakdown"
	KindErrorCodes       Kind = "error_codes"
	KindFailureReasons   Kind = "failure_reasons"
	KindLoginPageURLList Kind = "login_page_urls"
)

// View is the active navigation state. Implementations are comparable values
// so they can take part in memo keys.
type View interface {
	Kind() Kind
	Parent() View
	view()
}

// Root is the funnel overview.
type Root struct{}

// Trend is the multi-month line chart of one stage.
type Trend struct {
	Stage string
}

// StageBreakdown lists the children of an expandable stage.
type StageBreakdown struct {
	Stage string
}

// ErrorCodeList lists the error codes behind a flagged child.
type ErrorCodeList struct {
	Stage   string
	Entry   string
	TxnType dataset.TxnType
}

// FailureReasonList lists the failure reasons recorded for one error code.
type FailureReasonList struct {
	Stage   string
	Entry   string
	TxnType dataset.TxnType
	Code    string
}

// LoginPageURLList lists the pages reached by one login frequency bucket.
type LoginPageURLList struct {
	Stage  string
	Bucket string
}

func (Root) Kind() Kind              { return KindRoot }
func (Trend) Kind() Kind             { return KindTrend }
func (StageBreakdown) Kind() Kind    { return KindStageBreakdown }
func (ErrorCodeList) Kind() Kind     { return KindErrorCodes }
func (FailureReasonList) Kind() Kind { return KindFailureReasons }
func (LoginPageURLList) Kind() Kind  { return KindLoginPageURLList }

func (Root) Parent() View           { return Root{} }
func (Trend) Parent() View          { return Root{} }
func (StageBreakdown) Parent() View { return Root{} }
func (v ErrorCodeList) Parent() View {
	return StageBreakdown{Stage: v.Stage}
}
func (v FailureReasonList) Parent() View {
	return ErrorCodeList{Stage: v.Stage, Entry: v.Entry, TxnType: v.TxnType}
}
func (v LoginPageURLList) Parent() View {
	return StageBreakdown{Stage: v.Stage}
}

// TxnLabel is the transaction family shown in the failure reason heading.
func (v FailureReasonList) TxnLabel() string {
	return v.TxnType.Label()
}

func (Root) view()              {}
func (Trend) view()             {}
func (StageBreakdown) view()    {}
func (ErrorCodeList) view()     {}
func (FailureReasonList) view() {}
func (LoginPageURLList) view()  {}

// Ancestry returns the chain from Root down to v, inclusive.
func Ancestry(v View) []View {
	chain := []View{v}
	for v.Kind() != KindRoot {
		v = v.Parent()
		chain = append(chain, v)
	}
	slices.Reverse(chain)
	return chain
}
