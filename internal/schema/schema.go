// Package schema validates profile documents before they reach the
// controller.
//
// Validation runs in two passes. The embedded CUE schema checks structure,
// enumerations and value ranges and reports the source line of each
// problem. When the structure is sound, every column override is converted
// to editable settings and checked by the same rules the column editor
// uses, so a profile can never carry a column the editor would reject.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/profile"
)

// Validation error codes (E300-E399). Column rules report convert's
// E2xx codes.
const (
	ErrSyntax   = "E300" // document is not well-formed JSON/YAML/TOML
	ErrSchema   = "E301" // document violates the profile schema
	ErrDecode   = "E302" // document passed the schema but could not be decoded
	ErrInternal = "E399" // schema could not be compiled
)

const schemaFile = "profile.cue"

//go:embed profile.cue
var schemaSource string

// ValidationError describes one problem in a profile document.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// Validator holds the compiled profile schema. Safe for sequential use;
// a cue.Context is not safe for concurrent use.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename(schemaFile))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath("#Profile"))
	if !def.Exists() {
		return nil, fmt.Errorf("profile schema: #Profile not defined")
	}
	return &Validator{ctx: ctx, schema: def}, nil
}

// ValidateFile reads path and validates it. The encoding follows the file
// extension. The error is non-nil only when the file cannot be read.
func (v *Validator) ValidateFile(path string) ([]ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return v.Validate(data, path), nil
}

// Validate checks data, encoded as filename's extension says. Returns all
// errors found (does not fail-fast), sorted by line then path.
func (v *Validator) Validate(data []byte, filename string) []ValidationError {
	enc, err := profile.EncodingFor(filename)
	if err != nil {
		return []ValidationError{{Path: filepath.Base(filename), Message: err.Error(), Code: ErrSyntax}}
	}

	doc, lines, err := v.build(data, filename, enc)
	if err == nil {
		err = doc.Err()
	}
	if err != nil {
		return sorted(fromCUE(err, filename, lines, ErrSyntax))
	}

	if err := v.schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return sorted(fromCUE(err, filename, lines, ErrSchema))
	}

	p, err := profile.Decode(data, enc)
	if err != nil {
		return []ValidationError{{Path: "", Message: err.Error(), Code: ErrDecode}}
	}
	return sorted(checkColumns(p))
}

// build turns data into a CUE value. lines reports whether positions in
// the value point into the original text.
func (v *Validator) build(data []byte, filename string, enc profile.Encoding) (doc cue.Value, lines bool, err error) {
	switch enc {
	case profile.YAML:
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, true, err
		}
		return v.ctx.BuildFile(f), true, nil
	case profile.TOML:
		js, err := profile.ToJSON(data, enc)
		if err != nil {
			return cue.Value{}, false, err
		}
		return v.ctx.CompileBytes(js, cue.Filename(filename)), false, nil
	default:
		// JSON is a subset of CUE, so positions map straight to the file.
		return v.ctx.CompileBytes(data, cue.Filename(filename)), true, nil
	}
}

func fromCUE(err error, filename string, lines bool, code string) []ValidationError {
	var out []ValidationError
	seen := map[string]bool{}
	for _, e := range errors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if msg == "" {
			msg = e.Error()
		}
		ve := ValidationError{
			Path:    strings.Join(e.Path(), "."),
			Message: msg,
			Code:    code,
		}
		if lines {
			ve.Line = lineIn(e, filename)
		}
		key := ve.Error()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Message: err.Error(), Code: code})
	}
	return out
}

// lineIn returns the first position of e inside filename; schema positions
// are skipped.
func lineIn(e errors.Error, filename string) int {
	for _, pos := range errors.Positions(e) {
		if pos.IsValid() && pos.Filename() == filename {
			return pos.Line()
		}
	}
	return 0
}

func checkColumns(p profile.Settings) []ValidationError {
	var out []ValidationError
	for i, def := range p.Custom.ColumnDefs {
		for _, e := range convert.Validate(convert.FromNative(def, def.ColID)) {
			out = append(out, ValidationError{
				Path:    fmt.Sprintf("custom.columnDefs.%d.%s", i, e.Field),
				Message: e.Message,
				Code:    e.Code,
			})
		}
	}
	return out
}

func sorted(errs []ValidationError) []ValidationError {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Line != errs[j].Line {
			return errs[i].Line < errs[j].Line
		}
		return errs[i].Path < errs[j].Path
	})
	return errs
}
