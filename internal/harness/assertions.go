package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// AssertionError describes a failed assertion.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Index, event.Key, event.Outcome)
	}

	return buf.String()
}

// checkAssertions evaluates every assertion and records failures on r.
// The returned error is reserved for store failures.
func (h *Harness) checkAssertions(ctx context.Context, r *Result, assertions []Assertion) error {
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertOutcome:
			err = assertOutcome(r.Trace, a)
		case AssertOutcomeOrder:
			err = assertOutcomeOrder(r.Trace, a)
		case AssertArtifactCount:
			n, cerr := h.store.Count(ctx)
			if cerr != nil {
				return fmt.Errorf("failed to count documents: %w", cerr)
			}
			err = assertArtifactCount(r.Trace, n, a)
		case AssertArtifactContains:
			err = assertArtifactContains(r, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			r.AddFailure(err.Error())
		}
	}
	return nil
}

// assertOutcome checks that key was processed with the expected code.
func assertOutcome(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Key == a.Key {
			if event.Outcome == a.Code {
				return nil
			}
			return &AssertionError{
				Type:     AssertOutcome,
				Expected: fmt.Sprintf("key %s with outcome %s", a.Key, a.Code),
				Actual:   fmt.Sprintf("outcome %s", event.Outcome),
				Trace:    trace,
			}
		}
	}

	return &AssertionError{
		Type:     AssertOutcome,
		Expected: fmt.Sprintf("key %s with outcome %s", a.Key, a.Code),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertOutcomeOrder checks the trace holds exactly a.Keys, in order.
func assertOutcomeOrder(trace []TraceEvent, a Assertion) error {
	got := make([]string, len(trace))
	for i, event := range trace {
		got[i] = event.Key
	}
	if slices.Equal(got, a.Keys) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutcomeOrder,
		Expected: strings.Join(a.Keys, ", "),
		Actual:   strings.Join(got, ", "),
		Trace:    trace,
	}
}

func assertArtifactCount(trace []TraceEvent, n int, a Assertion) error {
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertArtifactCount,
		Expected: fmt.Sprintf("%d documents", a.Count),
		Actual:   fmt.Sprintf("%d documents", n),
		Trace:    trace,
	}
}

func assertArtifactContains(r *Result, a Assertion) error {
	content, ok := r.Artifacts[a.Key]
	if !ok {
		return &AssertionError{
			Type:     AssertArtifactContains,
			Expected: fmt.Sprintf("document for %s", a.Key),
			Actual:   "no document persisted",
			Trace:    r.Trace,
		}
	}
	if !strings.Contains(content, a.Text) {
		return &AssertionError{
			Type:     AssertArtifactContains,
			Expected: fmt.Sprintf("document for %s containing %q", a.Key, a.Text),
			Actual:   "text not found",
			Trace:    r.Trace,
		}
	}
	return nil
}
