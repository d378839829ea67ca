// Package policy validates and overrides proposed recommendations
// against safety and freshness rules before they are surfaced.
package policy

import (
	"github.com/peakform/coach/plugin/coach/fitness"
)

// Prompt is the tagged union of things a recommendation can ask the user
// to do. A nil Prompt means the recommendation carries no prompt; at
// most one is active per cycle.
type Prompt interface {
	isPrompt()
}

// QuestionPrompt asks the user something.
type QuestionPrompt struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Choices      []string `json:"choices,omitempty"`
	SingleChoice bool     `json:"single_choice"`
}

func (*QuestionPrompt) isPrompt() {}

// ActionPrompt suggests a concrete next action. Locked marks a
// guardrail substitution that later stages must not override.
type ActionPrompt struct {
	Kind     fitness.ActionKind `json:"kind"`
	Title    string             `json:"title"`
	Metadata map[string]string  `json:"metadata,omitempty"`
	Locked   bool               `json:"locked"`
}

func (*ActionPrompt) isPrompt() {}

// Meta reads a metadata value, tolerating a nil map.
func (p *ActionPrompt) Meta(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}

// SetMeta writes a metadata value, allocating the map when needed.
func (p *ActionPrompt) SetMeta(key, value string) {
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	p.Metadata[key] = value
}

// PlanProposalPrompt proposes a plan adjustment backed by evidence.
type PlanProposalPrompt struct {
	Summary  string   `json:"summary"`
	Evidence []string `json:"evidence,omitempty"`
}

func (*PlanProposalPrompt) isPrompt() {}

// Proposal is what the generative model (or a deterministic fallback)
// suggests before guardrails run.
type Proposal struct {
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Prompt     Prompt   `json:"-"`
	Reasons    []string `json:"reasons,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
}

// Recommendation is the final, guardrailed output handed to the
// presentation layer.
type Recommendation struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	Prompt          Prompt            `json:"-"`
	Reasons         []string          `json:"reasons,omitempty"`
	Confidence      string            `json:"confidence"`
	PrimaryAction   string            `json:"primary_action,omitempty"`
	SecondaryAction string            `json:"secondary_action,omitempty"`
	TomorrowPreview string            `json:"tomorrow_preview,omitempty"`
	Telemetry       map[string]string `json:"telemetry,omitempty"`
}
