package models

import "time"

// TargetOutcome captures the outcome of a single target during one poll cycle.
type TargetOutcome struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
	Action string `json:"action,omitempty"`
}

// CycleRecord stores the outcomes of all targets at a moment in time.
type CycleRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Outcomes  []TargetOutcome `json:"outcomes"`
	Notified  bool            `json:"notified"`
}
