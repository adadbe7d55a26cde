package harness

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/gridprefs/internal/canon"
)

// AssertionError is returned when an assertion fails.
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

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", ev.Step, ev.Op, ev.Writes)
		}
	}
	return buf.String()
}

// allWrites concatenates the writes of every step, refreshes included.
func allWrites(trace []TraceEvent) []string {
	var out []string
	for _, ev := range trace {
		out = append(out, ev.Writes...)
	}
	return out
}

// assertWriteCount counts data writes, or writes of one kind when Kind is set.
func assertWriteCount(result *Result, a Assertion) error {
	count := len(result.DataWrites())
	what := "data writes"
	if a.Kind != "" {
		count = 0
		for _, w := range allWrites(result.Trace) {
			if w == a.Kind || strings.HasPrefix(w, a.Kind+":") {
				count++
			}
		}
		what = a.Kind + " writes"
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertWriteCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertWriteOrder checks that the listed writes occur in order. Other
// writes may appear in between.
func assertWriteOrder(result *Result, a Assertion) error {
	writes := allWrites(result.Trace)
	next := 0
	for _, w := range writes {
		if next < len(a.Writes) && w == a.Writes[next] {
			next++
		}
	}
	if next == len(a.Writes) {
		return nil
	}
	return &AssertionError{
		Type:     AssertWriteOrder,
		Expected: fmt.Sprintf("writes in order: %v", a.Writes),
		Actual:   fmt.Sprintf("%s not found after %v", a.Writes[next], a.Writes[:next]),
		Trace:    result.Trace,
	}
}

func assertNotificationCount(result *Result, a Assertion) error {
	got := result.Notifications[a.Category]
	if got != a.Count {
		return &AssertionError{
			Type:     AssertNotificationCount,
			Expected: fmt.Sprintf("%d %s notifications", a.Count, a.Category),
			Actual:   fmt.Sprintf("%d notifications", got),
		}
	}
	return nil
}

// assertJSONPath evaluates a gjson path against the final state document.
func assertJSONPath(result *Result, a Assertion) error {
	return matchPath(AssertJSONPath, result.State, a)
}

// assertReport evaluates a gjson path against one step's apply report.
func assertReport(result *Result, a Assertion) error {
	rep, ok := result.Reports[a.Step]
	if !ok {
		return &AssertionError{
			Type:     AssertReport,
			Expected: fmt.Sprintf("apply report for step %d", a.Step),
			Actual:   "step produced no report",
		}
	}
	doc, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return matchPath(AssertReport, doc, a)
}

func matchPath(kind string, doc []byte, a Assertion) error {
	res := gjson.GetBytes(doc, a.Path)
	if a.Absent {
		if res.Exists() {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("%s absent", a.Path),
				Actual:   res.Raw,
			}
		}
		return nil
	}
	if !res.Exists() {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%s = %v", a.Path, a.Equals),
			Actual:   "path not found",
		}
	}
	if !canon.Equal(res.Value(), a.Equals) {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%s = %s", a.Path, canon.String(a.Equals)),
			Actual:   res.Raw,
		}
	}
	return nil
}

// EvaluateAssertions evaluates every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertWriteCount:
			err = assertWriteCount(result, a)
		case AssertWriteOrder:
			err = assertWriteOrder(result, a)
		case AssertNotificationCount:
			err = assertNotificationCount(result, a)
		case AssertJSONPath:
			err = assertJSONPath(result, a)
		case AssertReport:
			err = assertReport(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}
