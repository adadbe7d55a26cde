package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/grid"
)

// Scenario is one scripted session against a fresh controller and grid.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Grid describes the grid the controller is bound to.
	Grid GridFixture `yaml:"grid"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`

	// RunIDPrefix prefixes sequential run ids. Defaults to "run".
	RunIDPrefix string `yaml:"run_id_prefix,omitempty"`

	// dir is the scenario file's directory, used to resolve profile files.
	dir string
}

// GridFixture describes the simulated grid.
type GridFixture struct {
	Columns []grid.ColumnDef `yaml:"columns"`
	Options map[string]any   `yaml:"options,omitempty"`

	// Without withholds capabilities, e.g. [frames, refresh].
	Without []grid.Capability `yaml:"without,omitempty"`

	// FailingOptions lists option keys whose writes fail.
	FailingOptions []string `yaml:"failing_options,omitempty"`

	// Unbound leaves the controller without a grid handle.
	Unbound bool `yaml:"unbound,omitempty"`
}

// Step is one operation in a scenario.
type Step struct {
	Op string `yaml:"op"`

	// Profile is an inline profile document (apply_profile).
	Profile map[string]any `yaml:"profile,omitempty"`

	// ProfileFile is a profile path relative to the scenario (apply_profile).
	ProfileFile string `yaml:"profile_file,omitempty"`

	// Values is the partial bag for update_toolbar and update_grid_options.
	Values map[string]any `yaml:"values,omitempty"`

	// Duration is how far advance moves the scheduler, e.g. "150ms".
	Duration string `yaml:"duration,omitempty"`

	// Column and Action drive edit_column and reset_column.
	Column string          `yaml:"column,omitempty"`
	Action *convert.Action `yaml:"action,omitempty"`

	// Expect checks the step's own outcome.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect describes the expected outcome of one step.
type StepExpect struct {
	// Error is an error code (UNKNOWN_COLUMN, E230, ...). Empty expects success.
	Error string `yaml:"error,omitempty"`

	// Writes is the number of recorded data writes the step must produce.
	Writes *int `yaml:"writes,omitempty"`
}

// Step operations.
const (
	OpApplyProfile      = "apply_profile"
	OpUpdateToolbar     = "update_toolbar"
	OpUpdateGridOptions = "update_grid_options"
	OpAdvance           = "advance"
	OpFlush             = "flush"
	OpEditColumn        = "edit_column"
	OpResetColumn       = "reset_column"
	OpResetDefaults     = "reset_defaults"
	OpCollect           = "collect"
)

// Assertion validates the finished run.
type Assertion struct {
	// Type is one of write_count, write_order, notification_count,
	// json_path or report.
	Type string `yaml:"type"`

	// Count is the expected number (write_count, notification_count).
	Count int `yaml:"count,omitempty"`

	// Kind restricts write_count to one write kind, e.g. "option".
	Kind string `yaml:"kind,omitempty"`

	// Writes is the expected order of writes (write_order).
	Writes []string `yaml:"writes,omitempty"`

	// Category is the settings category (notification_count).
	Category string `yaml:"category,omitempty"`

	// Path is a gjson path (json_path, report).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value at Path. Compared canonically.
	Equals any `yaml:"equals,omitempty"`

	// Absent expects Path not to exist.
	Absent bool `yaml:"absent,omitempty"`

	// Step is the index of the step whose report is inspected (report).
	Step int `yaml:"step,omitempty"`
}

// Assertion types.
const (
	AssertWriteCount        = "write_count"
	AssertWriteOrder        = "write_order"
	AssertNotificationCount = "notification_count"
	AssertJSONPath          = "json_path"
	AssertReport            = "report"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for _, c := range s.Grid.Without {
		if !knownCapability(c) {
			return fmt.Errorf("grid.without: unknown capability %q", c)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
		if a.Type == AssertReport && a.Step >= len(s.Steps) {
			return fmt.Errorf("assertions[%d]: step %d out of range", i, a.Step)
		}
	}
	return nil
}

func validateStep(i int, st Step) error {
	switch st.Op {
	case OpApplyProfile:
		if st.Profile == nil && st.ProfileFile == "" {
			return fmt.Errorf("steps[%d]: profile or profile_file is required for %s", i, st.Op)
		}
	case OpUpdateToolbar, OpUpdateGridOptions:
		if st.Values == nil {
			return fmt.Errorf("steps[%d]: values is required for %s", i, st.Op)
		}
	case OpAdvance:
		if _, err := time.ParseDuration(st.Duration); err != nil {
			return fmt.Errorf("steps[%d]: duration: %w", i, err)
		}
	case OpEditColumn:
		if st.Column == "" || st.Action == nil {
			return fmt.Errorf("steps[%d]: column and action are required for %s", i, st.Op)
		}
	case OpResetColumn:
		if st.Column == "" {
			return fmt.Errorf("steps[%d]: column is required for %s", i, st.Op)
		}
	case OpFlush, OpResetDefaults, OpCollect:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertWriteCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", i)
		}
	case AssertWriteOrder:
		if len(a.Writes) == 0 {
			return fmt.Errorf("assertions[%d]: writes list is required for write_order", i)
		}
	case AssertNotificationCount:
		if a.Category == "" {
			return fmt.Errorf("assertions[%d]: category is required for notification_count", i)
		}
	case AssertJSONPath, AssertReport:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", i, a.Type)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

func knownCapability(c grid.Capability) bool {
	for _, known := range grid.AllCapabilities {
		if c == known {
			return true
		}
	}
	return false
}
