package handlers

import (
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/navigator"
)

// CountryOption is a selectable value of the country dropdown
type CountryOption struct {
	Value dataset.Country `json:"value"`
	Label string          `json:"label"`
}

// MonthsResponse lists the selectable months and countries
type MonthsResponse struct {
	Months    []string        `json:"months"`
	Default   string          `json:"default"`
	Countries []CountryOption `json:"countries"`
}

// CreateSessionRequest opens a navigator session. Both fields are optional.
type CreateSessionRequest struct {
	Month   string `json:"month" validate:"omitempty,datetime=2006-01"`
	Country string `json:"country" validate:"omitempty,oneof=global us"`
}

// SelectRequest changes the month and country of a session
type SelectRequest struct {
	Month   string `json:"month" validate:"required,datetime=2006-01"`
	Country string `json:"country" validate:"required,oneof=global us"`
}

// FrameMessage is pushed to websocket subscribers after every transition
type FrameMessage struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	Frame   navigator.Frame `json:"frame"`
}

// VersionResponse describes the running build
type VersionResponse struct {
	Version string `json:"version"`
	Source  string `json:"source"`
}
