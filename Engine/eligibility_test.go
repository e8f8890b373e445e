package Engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestCanCompleteNoState(t *testing.T) {
	rules := RulesFor(InputCheckbox, nil, nil, false, false)
	assert.False(t, CanComplete(rules, nil))
}

func TestCanCompleteNABypassesEverything(t *testing.T) {
	cases := []struct {
		name  string
		rules CompletionRules
	}{
		{"checkbox with photo required", RulesFor(InputCheckbox, nil, nil, true, false)},
		{"text with note required", RulesFor(InputText, nil, nil, false, true)},
		{"number with bounds and evidence", RulesFor(InputNumber, fptr(1), fptr(5), true, true)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, CanComplete(tc.rules, &TaskState{NA: true}))
		})
	}
}

func TestCanCompletePhotoRequirement(t *testing.T) {
	rules := RulesFor(InputCheckbox, nil, nil, true, false)
	assert.False(t, CanComplete(rules, &TaskState{}))
	assert.True(t, CanComplete(rules, &TaskState{Photos: []string{"/Evidence/a.jpg"}}))
}

func TestCanCompleteNoteRequirement(t *testing.T) {
	rules := RulesFor(InputText, nil, nil, false, true)
	assert.False(t, CanComplete(rules, &TaskState{}))
	assert.False(t, CanComplete(rules, &TaskState{Note: "   \t "}))
	assert.True(t, CanComplete(rules, &TaskState{Note: "fridge wiped down"}))
}

func TestCanCompleteNumberBounds(t *testing.T) {
	rules := RulesFor(InputNumber, fptr(34), fptr(40), false, false)
	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{"empty", "", false},
		{"non numeric", "cold", false},
		{"below min", "33.9", false},
		{"at min", "34", true},
		{"in range", "37.5", true},
		{"at max", "40", true},
		{"above max", "40.1", false},
		{"infinity", "+Inf", false},
		{"nan", "NaN", false},
		{"whitespace padded", " 36 ", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanComplete(rules, &TaskState{Value: tc.value}))
		})
	}
}

func TestCanCompleteNumberWithoutBounds(t *testing.T) {
	rules := RulesFor(InputNumber, nil, nil, false, false)
	assert.True(t, CanComplete(rules, &TaskState{Value: "-12.5"}))
	assert.False(t, CanComplete(rules, &TaskState{Value: "n/a"}))
}

func TestCanCompleteCheckboxDefaultEligible(t *testing.T) {
	rules := RulesFor(InputCheckbox, nil, nil, false, false)
	assert.True(t, CanComplete(rules, &TaskState{}))
}

// A photo-required task stays eligible through an N/A round trip as long as
// the photo is intact.
func TestCanCompleteNAToggleRoundTrip(t *testing.T) {
	rules := RulesFor(InputCheckbox, nil, nil, true, false)
	state := &TaskState{Photos: []string{"/Evidence/fryer.jpg"}}
	assert.True(t, CanComplete(rules, state))

	state.NA = true
	assert.True(t, CanComplete(rules, state))

	state.NA = false
	assert.True(t, CanComplete(rules, state))
}

func TestRulesForUnknownTypeFallsBackToCheckbox(t *testing.T) {
	rules := RulesFor("slider", nil, nil, false, false)
	_, ok := rules.(CheckboxRules)
	assert.True(t, ok)
}
