package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/avada/internal/rotation"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s", event.Turn, event.Session, event.Intent, event.Handler)
			if event.Selection != nil {
				fmt.Fprintf(&buf, " sound=%s interjection=%s after_effect=%s",
					formatPick(event.Selection.Sound),
					formatPick(event.Selection.Interjection),
					formatPick(event.Selection.AfterEffect))
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

func formatPick(p rotation.Pick) string {
	if !p.OK {
		return "-"
	}
	return fmt.Sprintf("%d", p.ID)
}

// EvaluateAssertions checks every assertion and records failures on result.
func EvaluateAssertions(result *Result, assertions []Assertion) {
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertDistinct:
		return assertDistinct(result, a)
	case AssertRepeats:
		return assertRepeats(result, a)
	case AssertPick:
		return assertPick(result, a)
	case AssertFinalIndex:
		return assertFinalIndex(result, a)
	case AssertSpeechContains:
		return assertSpeechContains(result, a)
	case AssertEventCount:
		return assertEventCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertDistinct checks that count consecutive spells starting at From
// picked pairwise distinct ids.
func assertDistinct(result *Result, a Assertion) error {
	spells := result.Spells(rotation.Category(a.Category))
	end := a.From + a.Count
	if end > len(spells) {
		return &AssertionError{
			Type:     AssertDistinct,
			Expected: fmt.Sprintf("at least %d %s spells", end, a.Category),
			Actual:   fmt.Sprintf("%d spells", len(spells)),
			Trace:    result.Trace,
		}
	}

	seen := make(map[int]int, a.Count)
	for i := a.From; i < end; i++ {
		if first, ok := seen[spells[i]]; ok {
			return &AssertionError{
				Type:     AssertDistinct,
				Expected: fmt.Sprintf("%s spells %d..%d distinct", a.Category, a.From, end-1),
				Actual:   fmt.Sprintf("id %d at spells %d and %d", spells[i], first, i),
				Trace:    result.Trace,
			}
		}
		seen[spells[i]] = i
	}
	return nil
}

// assertRepeats checks that every spell from From on equals the spell
// Period positions later.
func assertRepeats(result *Result, a Assertion) error {
	spells := result.Spells(rotation.Category(a.Category))
	if a.From+a.Period >= len(spells) {
		return &AssertionError{
			Type:     AssertRepeats,
			Expected: fmt.Sprintf("more than %d %s spells", a.From+a.Period, a.Category),
			Actual:   fmt.Sprintf("%d spells", len(spells)),
			Trace:    result.Trace,
		}
	}

	for i := a.From; i+a.Period < len(spells); i++ {
		if spells[i] != spells[i+a.Period] {
			return &AssertionError{
				Type:     AssertRepeats,
				Expected: fmt.Sprintf("spell %d == spell %d (period %d)", i, i+a.Period, a.Period),
				Actual:   fmt.Sprintf("%d != %d", spells[i], spells[i+a.Period]),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertPick checks the id picked for a category on one turn.
func assertPick(result *Result, a Assertion) error {
	event, err := turnEvent(result, AssertPick, a.Turn)
	if err != nil {
		return err
	}
	if event.Selection == nil {
		return &AssertionError{
			Type:     AssertPick,
			Expected: fmt.Sprintf("turn %d casts a spell", a.Turn),
			Actual:   fmt.Sprintf("handler %s cast nothing", event.Handler),
			Trace:    result.Trace,
		}
	}
	pick := event.Selection.Of(rotation.Category(a.Category))
	if !pick.OK || pick.ID != a.ID {
		return &AssertionError{
			Type:     AssertPick,
			Expected: fmt.Sprintf("turn %d %s = %d", a.Turn, a.Category, a.ID),
			Actual:   formatPick(pick),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalIndex checks the persisted cursor for a category.
func assertFinalIndex(result *Result, a Assertion) error {
	if result.Final == nil {
		return &AssertionError{
			Type:     AssertFinalIndex,
			Expected: fmt.Sprintf("persisted %s index %d", a.Category, a.Index),
			Actual:   "no profile persisted",
		}
	}
	got := result.Final.Rotations.Of(rotation.Category(a.Category)).Index
	if got != a.Index {
		return &AssertionError{
			Type:     AssertFinalIndex,
			Expected: fmt.Sprintf("%s index %d", a.Category, a.Index),
			Actual:   fmt.Sprintf("%s index %d", a.Category, got),
		}
	}
	return nil
}

// assertSpeechContains checks a substring of one turn's speech.
func assertSpeechContains(result *Result, a Assertion) error {
	event, err := turnEvent(result, AssertSpeechContains, a.Turn)
	if err != nil {
		return err
	}
	if !strings.Contains(event.Speech, a.Text) {
		return &AssertionError{
			Type:     AssertSpeechContains,
			Expected: fmt.Sprintf("turn %d speech contains %q", a.Turn, a.Text),
			Actual:   event.Speech,
		}
	}
	return nil
}

// assertEventCount checks how many stored analytics events carry an action.
func assertEventCount(result *Result, a Assertion) error {
	n := 0
	for _, action := range result.Actions {
		if action == a.Action {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %q events", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d events", n),
		}
	}
	return nil
}

func turnEvent(result *Result, kind string, turn int) (TraceEvent, error) {
	if turn < 0 || turn >= len(result.Trace) {
		return TraceEvent{}, &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("turn %d exists", turn),
			Actual:   fmt.Sprintf("%d turns", len(result.Trace)),
		}
	}
	return result.Trace[turn], nil
}
