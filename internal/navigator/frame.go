package navigator

import (
	"github.com/seuros/funnelscope/internal/aggregate"
	"github.com/seuros/funnelscope/internal/dataset"
)

// Frame is everything a renderer needs for one view. Exactly one of the
// view-specific sections is set, matching View.
type Frame struct {
	View           Kind                `json:"view"`
	Key            dataset.Key         `json:"key"`
	Path           []Crumb             `json:"path"`
	Root           *RootFrame          `json:"root,omitempty"`
	Trend          *TrendFrame         `json:"trend,omitempty"`
	Breakdown      *BreakdownFrame     `json:"breakdown,omitempty"`
	ErrorCodes     *ErrorCodeFrame     `json:"error_codes,omitempty"`
	FailureReasons *FailureReasonFrame `json:"failure_reasons,omitempty"`
	PageURLs       *PageURLFrame       `json:"page_urls,omitempty"`
}

// Crumb is one ancestor on the way back to Root.
type Crumb struct {
	View  Kind   `json:"view"`
	Label string `json:"label"`
}

// StageRow is a funnel stage as shown on the overview.
type StageRow struct {
	Stage      string  `json:"stage"`
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color,omitempty"`
	Expandable bool    `json:"expandable"`
	Children   int     `json:"children"`
}

// RootFrame is the funnel overview.
type RootFrame struct {
	Stages []StageRow `json:"stages"`
}

// TrendFrame is one stage counted across months, oldest first.
type TrendFrame struct {
	Stage  string               `json:"stage"`
	Points []dataset.TrendPoint `json:"points"`
}

// BreakdownFrame reports the parent count and the children total side by
// side; they are not expected to match.
type BreakdownFrame struct {
	Stage         StageRow          `json:"stage"`
	Children      []aggregate.Share `json:"children"`
	ParentCount   int64             `json:"parent_count"`
	ChildrenTotal int64             `json:"children_total"`
}

// ErrorCodeFrame lists the error codes behind a breakdown entry.
type ErrorCodeFrame struct {
	Stage      string                                    `json:"stage"`
	Entry      string                                    `json:"entry"`
	EntryLabel string                                    `json:"entry_label"`
	TxnType    dataset.TxnType                           `json:"txn_type"`
	Summary    aggregate.Summary[dataset.ErrorCodeRecord] `json:"summary"`
}

// FailureReasonFrame lists the failure reasons filed under one error code.
type FailureReasonFrame struct {
	Code     string                                        `json:"code"`
	TxnType  dataset.TxnType                               `json:"txn_type"`
	TxnLabel string                                        `json:"txn_label"`
	Summary  aggregate.Summary[dataset.FailureReasonRecord] `json:"summary"`
}

// PageURLFrame lists the pages seen by a login frequency bucket.
type PageURLFrame struct {
	Bucket      string                                       `json:"bucket"`
	BucketLabel string                                       `json:"bucket_label"`
	Summary     aggregate.Summary[dataset.LoginPageURLRecord] `json:"summary"`
}

// Build resolves view against key without any caching. Missing data yields
// empty sections, never an error.
func Build(snapshot *dataset.Snapshot, key dataset.Key, view View, topN int) Frame {
	key.TxnType = dataset.TxnNone
	frame := Frame{
		View: view.Kind(),
		Key:  key,
		Path: crumbs(snapshot, key, view),
	}

	switch v := view.(type) {
	case Root:
		stages := snapshot.Funnel(key.Month, key.Country)
		rows := make([]StageRow, 0, len(stages))
		for _, stage := range stages {
			rows = append(rows, stageRow(stage))
		}
		frame.Root = &RootFrame{Stages: rows}

	case Trend:
		frame.Trend = &TrendFrame{Stage: v.Stage, Points: snapshot.Trend(key.Country, v.Stage)}

	case StageBreakdown:
		stage, ok := snapshot.Stage(key, v.Stage)
		if !ok {
			stage = dataset.FunnelStage{Stage: v.Stage, Label: v.Stage}
		}
		children, total := aggregate.Children(stage.Children())
		frame.Breakdown = &BreakdownFrame{
			Stage:         stageRow(stage),
			Children:      children,
			ParentCount:   stage.Count,
			ChildrenTotal: total,
		}

	case ErrorCodeList:
		frame.Key = key.WithTxn(v.TxnType)
		frame.ErrorCodes = &ErrorCodeFrame{
			Stage:      v.Stage,
			Entry:      v.Entry,
			EntryLabel: entryLabel(snapshot, key, v.Stage, v.Entry),
			TxnType:    v.TxnType,
			Summary:    aggregate.ErrorCodes(snapshot.ErrorCodes(frame.Key), topN),
		}

	case FailureReasonList:
		frame.Key = key.WithTxn(v.TxnType)
		frame.FailureReasons = &FailureReasonFrame{
			Code:     v.Code,
			TxnType:  v.TxnType,
			TxnLabel: v.TxnLabel(),
			Summary:  aggregate.FailureReasons(snapshot.FailureReasons(frame.Key), v.Code, topN),
		}

	case LoginPageURLList:
		frame.PageURLs = &PageURLFrame{
			Bucket:      v.Bucket,
			BucketLabel: entryLabel(snapshot, key, v.Stage, v.Bucket),
			Summary:     aggregate.LoginPageURLs(snapshot.LoginPageURLs(key, v.Bucket), topN),
		}
	}

	return frame
}

func stageRow(stage dataset.FunnelStage) StageRow {
	return StageRow{
		Stage:      stage.Stage,
		Label:      stage.Label,
		Count:      stage.Count,
		Percentage: stage.Percentage,
		Color:      stage.Color,
		Expandable: stage.Expandable(),
		Children:   len(stage.Children()),
	}
}

func stageLabel(snapshot *dataset.Snapshot, key dataset.Key, stageID string) string {
	if stage, ok := snapshot.Stage(key, stageID); ok && stage.Label != "" {
		return stage.Label
	}
	return stageID
}

func entryLabel(snapshot *dataset.Snapshot, key dataset.Key, stageID, entryID string) string {
	if stage, ok := snapshot.Stage(key, stageID); ok {
		if child, ok := stage.Child(entryID); ok && child.Entry.Label != "" {
			return child.Entry.Label
		}
	}
	return entryID
}

func crumbs(snapshot *dataset.Snapshot, key dataset.Key, view View) []Crumb {
	chain := Ancestry(view)
	path := make([]Crumb, 0, len(chain))
	for _, v := range chain {
		var label string
		switch v := v.(type) {
		case Root:
			label = "Funnel"
		case Trend:
			label = "Trend: " + stageLabel(snapshot, key, v.Stage)
		case StageBreakdown:
			label = stageLabel(snapshot, key, v.Stage)
		case ErrorCodeList:
			label = entryLabel(snapshot, key, v.Stage, v.Entry)
		case FailureReasonList:
			label = v.TxnLabel() + " " + v.Code
		case LoginPageURLList:
			label = entryLabel(snapshot, key, v.Stage, v.Bucket)
		}
		path = append(path, Crumb{View: v.Kind(), Label: label})
	}
	return path
}
