package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gridprefs/internal/controller"
	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/grid/memgrid"
	"github.com/roach88/gridprefs/internal/harness"
	"github.com/roach88/gridprefs/internal/profile"
	"github.com/roach88/gridprefs/internal/profilestore"
	"github.com/roach88/gridprefs/internal/settings"
	"github.com/roach88/gridprefs/internal/watch"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Grid    string            // grid fixture file
	Stored  bool              // treat the argument as a stored profile name
	Twice   bool              // apply a second time to show idempotence
	Watch   bool              // re-apply when the file changes
	Samples map[string]string // column id -> sample value for previews
}

// ApplyRun is the outcome of one pipeline run on the simulated grid.
type ApplyRun struct {
	Report *controller.ApplyReport `json:"report"`
	Writes []string                `json:"writes"`
	Errors []string                `json:"errors,omitempty"`
}

// ApplyOutput is the result of the apply command.
type ApplyOutput struct {
	Runs    []ApplyRun            `json:"runs"`
	Columns []grid.ResolvedColumn `json:"columns"`
}

// demoColumns back the simulated grid when no fixture is given.
func demoColumns() []grid.ColumnDef {
	return []grid.ColumnDef{
		{ColID: "name", Field: "name", HeaderName: "Name"},
		{ColID: "price", Field: "price", HeaderName: "Price", CellDataType: grid.DataTypeNumber},
		{ColID: "qty", Field: "qty", HeaderName: "Qty", CellDataType: grid.DataTypeNumber},
		{ColID: "updated", Field: "updated", HeaderName: "Updated", CellDataType: "date"},
	}
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <profile>",
		Short: "Apply a profile to a simulated grid",
		Long: `Apply a profile to an in-memory grid and report every native write.

The grid has a demo column set unless --grid names a YAML fixture with
"columns" and "options". With --stored the argument is a profile name in the
library (--db). --twice applies the profile again; the second run of an
unchanged profile writes nothing. --watch keeps running and re-applies the
file whenever it changes.

Examples:
  gridprefs apply daily.yaml
  gridprefs apply daily.yaml --twice --sample price=1234.5
  gridprefs apply --stored daily --db prefs.db
  gridprefs apply daily.toml --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Grid, "grid", "", "grid fixture (YAML with columns and options)")
	cmd.Flags().BoolVar(&opts.Stored, "stored", false, "load the profile from the library instead of a file")
	cmd.Flags().BoolVar(&opts.Twice, "twice", false, "apply the profile a second time")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "re-apply the file whenever it changes")
	cmd.Flags().StringToStringVar(&opts.Samples, "sample", nil, "sample cell value per column (col=value)")

	return cmd
}

func runApply(opts *ApplyOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger(cmd)
	if opts.Watch && opts.Stored {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "--watch needs a profile file, not --stored", nil)
	}

	fixture, err := loadGridFixture(opts.Grid)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDecode, err.Error(), nil)
	}
	p, err := loadApplyProfile(cmd.Context(), opts, arg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDecode, err.Error(), nil)
	}

	g := memgrid.New(
		memgrid.WithColumns(fixture.Columns...),
		memgrid.WithOptions(grid.OptionBag(fixture.Options)),
	)
	ctrl := controller.New(settings.New(settings.WithLogger(log)), controller.WithLogger(log))
	defer ctrl.Close()
	ctrl.SetGridApi(g)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := ApplyOutput{}
	runs := 1
	if opts.Twice {
		runs = 2
	}
	for range runs {
		run, err := applyOnce(ctx, ctrl, g, p)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeApply, err.Error(), nil)
		}
		out.Runs = append(out.Runs, run)
	}
	out.Columns = g.Resolve(parseSamples(opts.Samples))

	if err := printApply(f, out); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return watchAndApply(ctx, opts, f, ctrl, g, arg, log)
}

// applyOnce runs one pipeline and collects the writes it produced.
func applyOnce(ctx context.Context, ctrl *controller.Controller, g *memgrid.Grid, p profile.Settings) (ApplyRun, error) {
	before := len(g.Writes())
	rep, err := ctrl.ApplyProfileSettings(ctx, p)
	if err != nil {
		return ApplyRun{}, err
	}
	run := ApplyRun{Report: rep, Writes: []string{}}
	for _, w := range g.Writes()[before:] {
		run.Writes = append(run.Writes, w.String())
	}
	for _, e := range rep.Errors {
		run.Errors = append(run.Errors, e.Error())
	}
	return run, nil
}

func watchAndApply(ctx context.Context, opts *ApplyOptions, f *OutputFormatter, ctrl *controller.Controller, g *memgrid.Grid, path string, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	before := len(g.Writes())
	w, err := watch.New(path, ctrl,
		watch.WithLogger(log),
		watch.OnResult(func(r watch.Result) {
			if r.Err != nil || r.Report == nil {
				return
			}
			run := ApplyRun{Report: r.Report, Writes: []string{}}
			writes := g.Writes()
			for _, wr := range writes[before:] {
				run.Writes = append(run.Writes, wr.String())
			}
			before = len(writes)
			for _, e := range r.Report.Errors {
				run.Errors = append(run.Errors, e.Error())
			}
			_ = printApply(f, ApplyOutput{Runs: []ApplyRun{run}, Columns: g.Resolve(parseSamples(opts.Samples))})
		}),
	)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return w.Run(ctx)
}

func loadApplyProfile(ctx context.Context, opts *ApplyOptions, arg string) (profile.Settings, error) {
	if !opts.Stored {
		return profile.LoadFile(arg)
	}
	st, err := profilestore.Open(opts.DB)
	if err != nil {
		return profile.Settings{}, err
	}
	defer st.Close()
	if ctx == nil {
		ctx = context.Background()
	}
	p, _, err := st.Load(ctx, arg)
	return p, err
}

func loadGridFixture(path string) (harness.GridFixture, error) {
	if path == "" {
		return harness.GridFixture{Columns: demoColumns()}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return harness.GridFixture{}, fmt.Errorf("read grid fixture: %w", err)
	}
	var fx harness.GridFixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return harness.GridFixture{}, fmt.Errorf("parse grid fixture %s: %w", path, err)
	}
	if len(fx.Columns) == 0 {
		return harness.GridFixture{}, fmt.Errorf("grid fixture %s has no columns", path)
	}
	return fx, nil
}

// parseSamples turns flag strings into numbers where they parse as such.
func parseSamples(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out
}

func printApply(f *OutputFormatter, out ApplyOutput) error {
	if f.JSON() {
		return f.Success(out)
	}
	w := f.Writer
	for _, run := range out.Runs {
		rep := run.Report
		state := "no refresh"
		if rep.Refreshed {
			state = "refreshed"
		}
		fmt.Fprintf(w, "run %s: %d write(s), %s\n", rep.RunID, rep.Writes, state)
		for _, wr := range run.Writes {
			fmt.Fprintf(w, "  %s\n", wr)
		}
		for _, m := range rep.Missing {
			fmt.Fprintf(w, "  - missing capability %s\n", m)
		}
		for _, e := range run.Errors {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
	}
	if len(out.Columns) > 0 {
		fmt.Fprintln(w, "columns:")
		for _, col := range out.Columns {
			fmt.Fprintf(w, "  %s", col.ColID)
			if col.HeaderName != "" {
				fmt.Fprintf(w, " %q", col.HeaderName)
			}
			if len(col.Style) > 0 {
				parts := make([]string, 0, len(col.Style))
				for _, k := range slices.Sorted(maps.Keys(col.Style)) {
					parts = append(parts, k+"="+col.Style[k])
				}
				fmt.Fprintf(w, " {%s}", strings.Join(parts, " "))
			}
			if col.Formatted != "" {
				fmt.Fprintf(w, " -> %s", col.Formatted)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
