package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/testutil"
)

func writeInputs(t *testing.T) (dir string, args []string) {
	t.Helper()
	docs, err := testutil.BuildDocuments()
	require.NoError(t, err)

	dir = t.TempDir()
	files := []struct {
		flag, name string
		data       []byte
	}{
		{"report", "report.xlsx", docs.Report},
		{"current", "current.docx", docs.Current},
		{"prior", "prior.html", docs.Prior},
		{"practitioners", "practitioners.xlsx", docs.Practitioners},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		require.NoError(t, os.WriteFile(path, f.data, 0644))
		args = append(args, "--"+f.flag, path)
	}
	return dir, args
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateCmd(t *testing.T) {
	t.Run("declined confirmation writes nothing", func(t *testing.T) {
		dir, args := writeInputs(t)
		outDir := filepath.Join(dir, "out")

		out, err := run(t, "n\n", append([]string{"generate", "-q", "-o", outDir}, args...)...)
		assert.ErrorIs(t, err, errAborted)
		assert.Contains(t, out, testutil.DEAGamma)
		assert.NoDirExists(t, outDir)
	})

	t.Run("confirmed at the prompt", func(t *testing.T) {
		dir, args := writeInputs(t)
		outDir := filepath.Join(dir, "out")

		out, err := run(t, "y\n", append([]string{"generate", "-q", "-o", outDir}, args...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "(10 sheets)")
		assert.FileExists(t, filepath.Join(outDir, "BA1234567_2024-01-to-2024-06.xlsx"))
	})

	t.Run("yes skips the prompt", func(t *testing.T) {
		dir, args := writeInputs(t)
		outDir := filepath.Join(dir, "out")

		out, err := run(t, "", append([]string{"generate", "--yes", "-o", outDir}, args...)...)
		require.NoError(t, err)
		assert.NotContains(t, out, "[y/N]")
		assert.Contains(t, out, "Wrote ")
	})

	t.Run("missing input flag", func(t *testing.T) {
		_, err := run(t, "", "generate", "--report", "r.xlsx")
		assert.Error(t, err)
	})

	t.Run("unreadable input", func(t *testing.T) {
		_, args := writeInputs(t)
		args[1] = filepath.Join(t.TempDir(), "absent.xlsx")
		_, err := run(t, "", append([]string{"generate", "--yes"}, args...)...)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRulesCmd(t *testing.T) {
	t.Run("export to stdout parses back", func(t *testing.T) {
		out, err := run(t, "", "rules", "export")
		require.NoError(t, err)

		table, err := aig.Parse([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, aig.DefaultTable().Rules(), table.Rules())
	})

	t.Run("export to file then check", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		_, err := run(t, "", "rules", "export", "-o", path)
		require.NoError(t, err)

		out, err := run(t, "", "rules", "check", path)
		require.NoError(t, err)
		assert.Contains(t, out, "22 rules, 20 sheets")
		assert.Contains(t, out, `shadowed: "Alprazolam" on sheet 1`)
	})

	t.Run("check rejects an invalid table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0644))
		_, err := run(t, "", "rules", "check", path)
		assert.ErrorIs(t, err, aig.ErrMissingSheet)
	})
}
