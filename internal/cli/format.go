package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gridprefs/internal/profile"
)

// FormatOptions holds flags for the format command.
type FormatOptions struct {
	*RootOptions
	To    string
	Write bool
}

// FormatOutput is the JSON result of the format command.
type FormatOutput struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Written  string `json:"written,omitempty"`
	Content  string `json:"content,omitempty"`
}

// NewFormatCommand creates the format command.
func NewFormatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FormatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "format <profile>",
		Short: "Rewrite a profile in canonical form",
		Long: `Decode a profile and print it in canonical form.

--to converts between json, yaml and toml. With -w the result is written
next to the input (same path when the encoding is unchanged, otherwise the
extension is swapped).

Examples:
  gridprefs format daily.yaml
  gridprefs format daily.yaml --to toml -w`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "output encoding (json, yaml, toml); defaults to the input's")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "write the result to a file instead of stdout")

	return cmd
}

func runFormat(opts *FormatOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	from, err := profile.EncodingFor(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDecode, err.Error(), nil)
	}
	to := from
	if opts.To != "" {
		to, err = profile.EncodingFor("profile." + opts.To)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("unknown encoding %q", opts.To), nil)
		}
	}

	s, err := profile.LoadFile(path)
	if err != nil {
		code := ErrCodeDecode
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return f.Fail(ExitCommandError, code, err.Error(), nil)
	}
	data, err := profile.Encode(s, to)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDecode, err.Error(), nil)
	}

	out := FormatOutput{Path: path, Encoding: string(to)}
	if !opts.Write {
		if f.JSON() {
			out.Content = string(data)
			return f.Success(out)
		}
		_, err := f.Writer.Write(data)
		return err
	}

	target := path
	if to != from {
		target = strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(to)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	out.Written = target
	if f.JSON() {
		return f.Success(out)
	}
	fmt.Fprintf(f.Writer, "wrote %s\n", target)
	return nil
}
