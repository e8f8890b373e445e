package Engine

import (
	"math"
	"strconv"
	"strings"
)

// Input types supported by task definitions.
const (
	InputCheckbox = "checkbox"
	InputNumber   = "number"
	InputText     = "text"
)

// CompletionRules is the per-input-type rule set deciding whether a task may
// be marked complete. Exactly one of CheckboxRules, NumberRules or TextRules
// implements it; the input type is the discriminant.
type CompletionRules interface {
	PhotoRequired() bool
	NoteRequired() bool
}

// BaseRules carries the evidence requirements shared by every input type.
type BaseRules struct {
	Photo bool
	Note  bool
}

func (b BaseRules) PhotoRequired() bool { return b.Photo }
func (b BaseRules) NoteRequired() bool  { return b.Note }

// CheckboxRules has no constraints beyond the shared evidence requirements.
type CheckboxRules struct {
	BaseRules
}

// NumberRules requires a finite numeric value, optionally bounded inclusive.
type NumberRules struct {
	BaseRules
	Min *float64
	Max *float64
}

// TextRules has no constraints beyond the shared evidence requirements.
type TextRules struct {
	BaseRules
}

// RulesFor maps an input type and its task definition fields onto the rule
// union. Unknown input types behave like checkboxes.
func RulesFor(inputType string, min, max *float64, photoRequired, noteRequired bool) CompletionRules {
	base := BaseRules{Photo: photoRequired, Note: noteRequired}
	switch inputType {
	case InputNumber:
		return NumberRules{BaseRules: base, Min: min, Max: max}
	case InputText:
		return TextRules{BaseRules: base}
	default:
		return CheckboxRules{BaseRules: base}
	}
}

// TaskState is the in-progress state a task's eligibility is judged against.
type TaskState struct {
	NA     bool
	Value  string
	Note   string
	Photos []string
}

// CanComplete decides whether a task may be marked complete. Pure; it is
// re-evaluated on every edit rather than cached because it gates both the
// per-task Complete action and the tasklist Sign & Submit action.
//
// Precedence: no state at all is never eligible; N/A bypasses every other
// rule; then photo, note and numeric constraints apply in that order.
func CanComplete(rules CompletionRules, state *TaskState) bool {
	if state == nil {
		return false
	}
	if state.NA {
		return true
	}
	if rules == nil {
		return false
	}
	if rules.PhotoRequired() && len(state.Photos) == 0 {
		return false
	}
	if rules.NoteRequired() && strings.TrimSpace(state.Note) == "" {
		return false
	}
	if nr, ok := rules.(NumberRules); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(state.Value), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		if nr.Min != nil && v < *nr.Min {
			return false
		}
		if nr.Max != nil && v > *nr.Max {
			return false
		}
	}
	return true
}
