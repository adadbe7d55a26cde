package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/profile"
)

func copyFixture(t *testing.T, src string) string {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	dst := filepath.Join(t.TempDir(), filepath.Base(src))
	require.NoError(t, os.WriteFile(dst, data, 0o644))
	return dst
}

func assertSameProfile(t *testing.T, want, got profile.Settings) {
	t.Helper()
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestFormatToStdout(t *testing.T) {
	src := filepath.Join("..", "profile", "testdata", "desk.yaml")

	buf := &bytes.Buffer{}
	cmd := NewFormatCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src, "--to", "json"})
	require.NoError(t, cmd.Execute())

	got, err := profile.Decode(buf.Bytes(), profile.JSON)
	require.NoError(t, err)
	want, err := profile.LoadFile(src)
	require.NoError(t, err)
	assertSameProfile(t, want, got)
}

func TestFormatWriteConvertsEncoding(t *testing.T) {
	src := copyFixture(t, filepath.Join("..", "profile", "testdata", "desk.yaml"))

	buf := &bytes.Buffer{}
	cmd := NewFormatCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{src, "--to", "toml", "-w"})
	require.NoError(t, cmd.Execute())

	target := filepath.Join(filepath.Dir(src), "desk.toml")
	assert.Equal(t, "wrote "+target+"\n", buf.String())

	got, err := profile.LoadFile(target)
	require.NoError(t, err)
	want, err := profile.LoadFile(src)
	require.NoError(t, err)
	assertSameProfile(t, want, got)
}

func TestFormatUnknownTarget(t *testing.T) {
	src := filepath.Join("..", "profile", "testdata", "desk.yaml")

	cmd := NewFormatCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{src, "--to", "ini"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFormatMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewFormatCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "gone.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeNotFound)
}
