package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gridprefs/internal/profile"
	"github.com/roach88/gridprefs/internal/profilestore"
)

// ProfileResult is the JSON result of the save, set and delete subcommands.
type ProfileResult struct {
	Record  *profilestore.Record `json:"record,omitempty"`
	Changed bool                 `json:"changed"`
	Deleted string               `json:"deleted,omitempty"`
}

// ProfileDocument is the JSON result of profile show.
type ProfileDocument struct {
	Record profilestore.Record `json:"record"`
	Path   string              `json:"path,omitempty"`
	Value  json.RawMessage     `json:"value"`
}

// NewProfileCommand creates the profile command group for the stored
// profile library.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the stored profile library",
		Long: `Save, inspect and edit named profiles in a SQLite library (--db).

Saving content identical to the stored document is a no-op; every real
change bumps the revision and is kept in the history.`,
	}

	cmd.AddCommand(newProfileSaveCommand(rootOpts))
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileListCommand(rootOpts))
	cmd.AddCommand(newProfileDeleteCommand(rootOpts))
	cmd.AddCommand(newProfileSetCommand(rootOpts))
	cmd.AddCommand(newProfileHistoryCommand(rootOpts))

	return cmd
}

func newProfileSaveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "save <name> <file>",
		Short:         "Store a profile file under a name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			p, err := profile.LoadFile(args[1])
			if err != nil {
				code := ErrCodeDecode
				if errors.Is(err, os.ErrNotExist) {
					code = ErrCodeNotFound
				}
				return f.Fail(ExitCommandError, code, err.Error(), nil)
			}
			return withStore(opts, cmd, func(ctx context.Context, st *profilestore.Store) error {
				rec, changed, err := st.Save(ctx, args[0], p)
				if err != nil {
					return storeFail(f, err)
				}
				if f.JSON() {
					return f.Success(ProfileResult{Record: &rec, Changed: changed})
				}
				if !changed {
					fmt.Fprintf(f.Writer, "%s unchanged (revision %d)\n", rec.Name, rec.Revision)
					return nil
				}
				fmt.Fprintf(f.Writer, "saved %s revision %d\n", rec.Name, rec.Revision)
				return nil
			})
		},
	}
}

func newProfileShowCommand(opts *RootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored profile",
		Long: `Print a stored profile as canonical JSON.

--path selects part of the document with a gjson path, for example
"toolbar.fontSize" or "custom.columnDefs.#.colId".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withStore(opts, cmd, func(ctx context.Context, st *profilestore.Store) error {
				body, rec, err := st.Raw(ctx, args[0])
				if err != nil {
					return storeFail(f, err)
				}
				value := body
				if path != "" {
					res, ok, err := st.Get(ctx, args[0], path)
					if err != nil {
						return storeFail(f, err)
					}
					if !ok {
						return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("%s has no value at %q", args[0], path), nil)
					}
					value = []byte(res.Raw)
				}
				if f.JSON() {
					return f.Success(ProfileDocument{Record: rec, Path: path, Value: json.RawMessage(value)})
				}
				var buf bytes.Buffer
				if err := json.Indent(&buf, value, "", "  "); err != nil {
					buf.Reset()
					buf.Write(value)
				}
				buf.WriteByte('\n')
				_, err = f.Writer.Write(buf.Bytes())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "gjson path to print instead of the whole document")
	return cmd
}

func newProfileListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored profiles",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withStore(opts, cmd, func(ctx context.Context, st *profilestore.Store) error {
				recs, err := st.List(ctx)
				if err != nil {
					return storeFail(f, err)
				}
				if f.JSON() {
					if recs == nil {
						recs = []profilestore.Record{}
					}
					return f.Success(recs)
				}
				if len(recs) == 0 {
					fmt.Fprintln(f.Writer, "no profiles")
					return nil
				}
				tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tREVISION\tUPDATED\tHASH")
				for _, r := range recs {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Name, r.Revision, r.UpdatedAt.Format(time.RFC3339), shortHash(r.Hash))
				}
				return tw.Flush()
			})
		},
	}
}

func newProfileDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Remove a stored profile and its history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withStore(opts, cmd, func(ctx context.Context, st *profilestore.Store) error {
				if err := st.Delete(ctx, args[0]); err != nil {
					return storeFail(f, err)
				}
				if f.JSON() {
					return f.Success(ProfileResult{Changed: true, Deleted: args[0]})
				}
				fmt.Fprintf(f.Writer, "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newProfileSetCommand(opts *RootOptions) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "set <name> <path> [value]",
		Short: "Change one value of a stored profile",
		Long: `Change one value of a stored profile in place.

The value is parsed as JSON when it can be ("14", "true", "{...}") and is
stored as a string otherwise. --unset removes the path instead.

Examples:
  gridprefs profile set daily toolbar.fontSize 14
  gridprefs profile set daily toolbar.density compact
  gridprefs profile set daily custom.gridOptions.rowHeight --unset`,
		Args: func(cmd *cobra.Command, args []string) error {
			if unset {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			var value any
			if !unset {
				value = parseValue(args[2])
			}
			return withStore(opts, cmd, func(ctx context.Context, st *profilestore.Store) error {
				rec, changed, err := st.Patch(ctx, args[0], args[1], value)
				if err != nil {
					return storeFail(f, err)
				}
				if f.JSON() {
					return f.Success(ProfileResult{Record: &rec, Changed: changed})
				}
				if !changed {
					fmt.Fprintf(f.Writer, "%s unchanged (revision %d)\n", rec.Name, rec.Revision)
					return nil
				}
				fmt.Fprintf(f.Writer, "updated %s revision %d\n", rec.Name, rec.Revision)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "remove the value at path")
	return cmd
}

func newProfileHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <name>",
		Short:         "Show the save history of a stored profile",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			return withStore(opts, cmd, func(ctx context.Context, st *profilestore.Store) error {
				revs, err := st.History(ctx, args[0])
				if err != nil {
					return storeFail(f, err)
				}
				if f.JSON() {
					return f.Success(revs)
				}
				tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "REVISION\tSAVED\tHASH")
				for _, r := range revs {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Revision, r.SavedAt.Format(time.RFC3339), shortHash(r.Hash))
				}
				return tw.Flush()
			})
		},
	}
}

// withStore opens the library named by --db for the duration of fn.
func withStore(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, *profilestore.Store) error) error {
	st, err := profilestore.Open(opts.DB)
	if err != nil {
		return opts.formatter(cmd).Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, st)
}

func storeFail(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, profilestore.ErrNotFound):
		return f.Fail(ExitFailure, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, profilestore.ErrInvalidName):
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	default:
		return f.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
	}
}

// parseValue reads s as JSON, falling back to a plain string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
