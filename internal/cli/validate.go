package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/gridprefs/internal/schema"
)

// FileValidation is the validation outcome of one profile file.
type FileValidation struct {
	Path   string                   `json:"path"`
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile>...",
		Short: "Check profile files against the profile schema",
		Long: `Validate JSON, YAML or TOML profile files.

Checks syntax, the profile schema (font-size tokens, non-negative borders,
known enumerations) and the rules applied to column edits.

Exit codes:
  0 - every file is valid
  1 - at least one file has errors
  2 - a file could not be read`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	v, err := schema.New()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	results := make([]FileValidation, 0, len(paths))
	failed := 0
	for _, p := range paths {
		f.VerboseLog("Validating %s", p)
		errs, err := v.ValidateFile(p)
		if err != nil {
			code := ErrCodeGeneric
			if errors.Is(err, fs.ErrNotExist) {
				code = ErrCodeNotFound
			}
			return f.Fail(ExitCommandError, code, err.Error(), nil)
		}
		results = append(results, FileValidation{Path: p, Valid: len(errs) == 0, Errors: errs})
		if len(errs) > 0 {
			failed++
		}
	}

	if f.JSON() {
		if failed > 0 {
			first := firstError(results)
			return f.Fail(ExitFailure, first.Code, first.Message, results)
		}
		return f.Success(results)
	}

	w := f.Writer
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "✓ %s\n", r.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", r.Path)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) invalid", failed, len(results)))
	}
	return nil
}

func firstError(results []FileValidation) schema.ValidationError {
	for _, r := range results {
		if len(r.Errors) > 0 {
			return r.Errors[0]
		}
	}
	return schema.ValidationError{}
}
