package harness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path does not exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios expands paths into scenario files. Directories are walked
// for .yaml and .yml files; plain files are taken as given. The result is
// sorted and free of duplicates.
func FindScenarios(paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ScenarioNotFoundError{Path: p}
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// golden/ holds trace fixtures, not scenarios.
				if d.Name() == "golden" {
					return filepath.SkipDir
				}
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Outcome pairs a scenario file with its run result.
type Outcome struct {
	Path   string
	Name   string
	Result *Result
	Err    error
}

// Passed reports whether the scenario loaded, ran and passed.
func (o Outcome) Passed() bool {
	return o.Err == nil && o.Result != nil && o.Result.Pass
}

// RunFiles loads and runs every scenario file in order.
func RunFiles(files []string) []Outcome {
	out := make([]Outcome, 0, len(files))
	for _, f := range files {
		o := Outcome{Path: f}
		s, err := LoadScenario(f)
		if err != nil {
			o.Err = err
			out = append(out, o)
			continue
		}
		o.Name = s.Name
		o.Result, o.Err = Run(s)
		out = append(out, o)
	}
	return out
}
