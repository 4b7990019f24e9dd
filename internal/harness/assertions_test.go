package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/avada/internal/rotation"
)

func spellEvent(turn, sound int) TraceEvent {
	return TraceEvent{
		Turn:    turn,
		Intent:  "next",
		Handler: "NextIntent",
		Selection: &rotation.Selection{
			Sound:        rotation.Pick{ID: sound, OK: true},
			Interjection: rotation.Pick{ID: 0, OK: true},
		},
		Speech: "<speak>spell</speak>",
	}
}

func resultWithSounds(sounds ...int) *Result {
	r := NewResult()
	for i, id := range sounds {
		r.Trace = append(r.Trace, spellEvent(i, id))
	}
	return r
}

func TestResultSpells_SkipsNonCastsAndEmptyPools(t *testing.T) {
	r := resultWithSounds(2, 0)
	r.Trace = append(r.Trace, TraceEvent{Turn: 2, Handler: "HelpIntent"})

	assert.Equal(t, []int{2, 0}, r.Spells(rotation.CategorySound))
	assert.Equal(t, []int{0, 0}, r.Spells(rotation.CategoryInterjection))
	assert.Empty(t, r.Spells(rotation.CategoryAfterEffect))
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		a      Assertion
		pass   bool
		want   string
	}{
		{
			name:   "distinct holds",
			result: resultWithSounds(2, 0, 1, 2),
			a:      Assertion{Type: AssertDistinct, Category: "sound", Count: 3},
			pass:   true,
		},
		{
			name:   "distinct with offset",
			result: resultWithSounds(2, 0, 1, 2),
			a:      Assertion{Type: AssertDistinct, Category: "sound", From: 1, Count: 3},
			pass:   true,
		},
		{
			name:   "distinct violated",
			result: resultWithSounds(2, 0, 2),
			a:      Assertion{Type: AssertDistinct, Category: "sound", Count: 3},
			want:   "id 2 at spells 0 and 2",
		},
		{
			name:   "distinct too few spells",
			result: resultWithSounds(1),
			a:      Assertion{Type: AssertDistinct, Category: "sound", Count: 2},
			want:   "at least 2 sound spells",
		},
		{
			name:   "repeats holds",
			result: resultWithSounds(2, 0, 1, 2, 0),
			a:      Assertion{Type: AssertRepeats, Category: "sound", Period: 3},
			pass:   true,
		},
		{
			name:   "repeats violated",
			result: resultWithSounds(2, 0, 1, 0),
			a:      Assertion{Type: AssertRepeats, Category: "sound", Period: 3},
			want:   "spell 0 == spell 3",
		},
		{
			name:   "repeats too short",
			result: resultWithSounds(2, 0),
			a:      Assertion{Type: AssertRepeats, Category: "sound", Period: 3},
			want:   "more than 3 sound spells",
		},
		{
			name:   "pick holds",
			result: resultWithSounds(4, 7),
			a:      Assertion{Type: AssertPick, Category: "sound", Turn: 1, ID: 7},
			pass:   true,
		},
		{
			name:   "pick wrong id",
			result: resultWithSounds(4, 7),
			a:      Assertion{Type: AssertPick, Category: "sound", Turn: 1, ID: 4},
			want:   "turn 1 sound = 4",
		},
		{
			name:   "pick empty pool",
			result: resultWithSounds(4),
			a:      Assertion{Type: AssertPick, Category: "after_effect", Turn: 0, ID: 0},
			want:   "Actual: -",
		},
		{
			name:   "pick out of range",
			result: resultWithSounds(4),
			a:      Assertion{Type: AssertPick, Category: "sound", Turn: 3},
			want:   "turn 3 exists",
		},
		{
			name:   "speech contains",
			result: resultWithSounds(4),
			a:      Assertion{Type: AssertSpeechContains, Turn: 0, Text: "spell"},
			pass:   true,
		},
		{
			name:   "speech missing",
			result: resultWithSounds(4),
			a:      Assertion{Type: AssertSpeechContains, Turn: 0, Text: "frog"},
			want:   `contains "frog"`,
		},
		{
			name:   "final index without profile",
			result: NewResult(),
			a:      Assertion{Type: AssertFinalIndex, Category: "sound"},
			want:   "no profile persisted",
		},
		{
			name: "final index holds",
			result: &Result{
				Pass:  true,
				Final: &FinalState{Rotations: rotation.Set{Sound: rotation.State{Permutation: []int{0, 1}, Index: 1}}},
			},
			a:    Assertion{Type: AssertFinalIndex, Category: "sound", Index: 1},
			pass: true,
		},
		{
			name:   "event count holds",
			result: &Result{Pass: true, Actions: []string{"Session Start", "Launch", "Session Start"}},
			a:      Assertion{Type: AssertEventCount, Action: "Session Start", Count: 2},
			pass:   true,
		},
		{
			name:   "event count violated",
			result: &Result{Pass: true, Actions: []string{"Launch"}},
			a:      Assertion{Type: AssertEventCount, Action: "Launch", Count: 2},
			want:   `2 "Launch" events`,
		},
		{
			name:   "unknown type",
			result: NewResult(),
			a:      Assertion{Type: "nope"},
			want:   "unknown assertion type: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			EvaluateAssertions(tt.result, []Assertion{tt.a})
			if tt.pass {
				assert.True(t, tt.result.Pass, "errors: %v", tt.result.Errors)
				assert.Empty(t, tt.result.Errors)
				return
			}
			assert.False(t, tt.result.Pass)
			require.Len(t, tt.result.Errors, 1)
			assert.Contains(t, tt.result.Errors[0], tt.want)
			assert.Contains(t, tt.result.Errors[0], "assertions[0]")
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertPick,
		Expected: "x",
		Actual:   "y",
		Trace:    []TraceEvent{spellEvent(0, 3)},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: pick")
	assert.Contains(t, msg, "Expected: x")
	assert.Contains(t, msg, "Actual: y")
	assert.Contains(t, msg, "sound=3 interjection=0 after_effect=-")
}
