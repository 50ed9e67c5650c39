package models

import (
	"sort"
	"time"
)

// StepType identifies one of the supported text transformations.
type StepType string

const (
	StepTypeSummarize StepType = "summarize"
	StepTypeTranslate StepType = "translate"
	StepTypeRewrite   StepType = "rewrite"
	StepTypeExtract   StepType = "extract"
)

// Known reports whether the type is part of the closed enumeration. Unknown
// types are executed as passthrough steps, not rejected at run time.
func (t StepType) Known() bool {
	switch t {
	case StepTypeSummarize, StepTypeTranslate, StepTypeRewrite, StepTypeExtract:
		return true
	}

	return false
}

// Step is a single typed transformation inside a pipeline. Config is an open
// key/value record whose recognized keys depend on Type; it is validated
// against a per-type schema when the definition is created.
type Step struct {
	ID         string         `json:"id"`
	PipelineID string         `json:"pipeline_id,omitempty"`
	Type       StepType       `json:"type"   validate:"required"`
	Config     map[string]any `json:"config"`
	Order      int            `json:"order"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// SortSteps orders steps by ascending Order. The sort is stable so steps with
// equal Order keep their ingestion order.
func SortSteps(steps []*Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})
}
