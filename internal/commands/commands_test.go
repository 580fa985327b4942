package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mlworkflow/internal/config"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
)

// runCmd executes a fresh command tree inside an empty working directory.
func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	dir := t.TempDir()
	wd, werr := os.Getwd()
	require.NoError(t, werr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerate(t *testing.T) {
	out, _, err := runCmd(t, "generate", "housing", "--rows", "20", "--head", "3", "--correlation")
	require.NoError(t, err)
	assert.Contains(t, out, "housing: 20 rows x 8 columns (seed 42)")
	assert.Contains(t, out, "sqft")
	assert.Contains(t, out, "price")
}

func TestGenerateUnknownPreset(t *testing.T) {
	_, _, err := runCmd(t, "generate", "weather")
	require.Error(t, err)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestCrossValCommand(t *testing.T) {
	plot := filepath.Join(t.TempDir(), "folds.png")
	out, logs, err := runCmd(t, "crossval", "--rows", "100", "--folds", "3",
		"--log-format", "json", "--log-level", "debug", "--plot", plot)
	require.NoError(t, err)
	assert.Contains(t, out, "Cross-validation")
	assert.Contains(t, out, "fold")
	assert.Contains(t, out, "test accuracy")
	assert.Contains(t, logs, log.RunIDKey)
	assert.FileExists(t, plot)
}

func TestRegularizeCommand(t *testing.T) {
	plot := filepath.Join(t.TempDir(), "coef.svg")
	out, _, err := runCmd(t, "regularize", "--seed", "7", "--lasso-alpha", "3000", "--plot", plot)
	require.NoError(t, err)
	assert.Contains(t, out, "Regularization comparison")
	assert.Contains(t, out, "3000")
	assert.FileExists(t, plot)
}

func TestImputeCommand(t *testing.T) {
	out, _, err := runCmd(t, "impute", "--strategy", "regression", "--head", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "strategy regression")
	assert.Contains(t, out, "income")
	assert.Contains(t, out, "credit_score")
}

func TestImputeRejectsBadFlag(t *testing.T) {
	_, _, err := runCmd(t, "impute", "--weights", "cosine")
	require.Error(t, err)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestAllCommand(t *testing.T) {
	out, _, err := runCmd(t, "all", "--rows", "100", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Cross-validation")
	assert.Contains(t, out, "Regularization comparison")
	assert.Contains(t, out, "Imputation")
}

func TestInvalidGlobalFlags(t *testing.T) {
	_, _, err := runCmd(t, "crossval", "--log-format", "xml")
	require.Error(t, err)

	_, _, err = runCmd(t, "crossval", "--rows", "-3")
	require.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	out, _, err := runCmd(t, "config", "init", "-o", path, "--seed", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, _, err = runCmd(t, "config", "init", "-o", path)
	require.Error(t, err, "existing file must not be overwritten without --force")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), c.Dataset.Seed)

	out, _, err = runCmd(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "seed: 11")
	assert.Contains(t, out, "lasso_alpha:")
}
