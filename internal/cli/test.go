package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gridprefs/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestSummary is the JSON result of the test command.
type TestSummary struct {
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <path>...",
		Short: "Run YAML settings scenarios",
		Long: `Run scenario files against the simulated grid.

Directories are searched for .yaml and .yml files. Each scenario drives the
settings pipeline step by step and checks its assertions.

Exit codes:
  0 - every scenario passed
  1 - at least one scenario failed
  2 - a path does not exist`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name or path contains this text")

	return cmd
}

func runTest(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	files, err := harness.FindScenarios(paths...)
	if err != nil {
		code := ErrCodeGeneric
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			code = ErrCodeNotFound
		}
		return f.Fail(ExitCommandError, code, err.Error(), nil)
	}

	summary := TestSummary{Scenarios: []ScenarioResult{}}
	for _, o := range harness.RunFiles(files) {
		if opts.Filter != "" && !strings.Contains(o.Name, opts.Filter) && !strings.Contains(o.Path, opts.Filter) {
			continue
		}
		r := ScenarioResult{Path: o.Path, Name: o.Name, Pass: o.Passed()}
		switch {
		case o.Err != nil:
			r.Errors = []string{o.Err.Error()}
		case o.Result != nil:
			r.Errors = o.Result.Errors
		}
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.Scenarios = append(summary.Scenarios, r)
	}

	if f.JSON() {
		if summary.Failed > 0 {
			return f.Fail(ExitFailure, ErrCodeGeneric,
				fmt.Sprintf("%d scenario(s) failed", summary.Failed), summary)
		}
		return f.Success(summary)
	}

	w := f.Writer
	for _, r := range summary.Scenarios {
		label := r.Name
		if label == "" {
			label = r.Path
		}
		if r.Pass {
			fmt.Fprintf(w, "PASS %s\n", label)
			continue
		}
		fmt.Fprintf(w, "FAIL %s\n", label)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintf(w, "%d passed, %d failed\n", summary.Passed, summary.Failed)
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}
