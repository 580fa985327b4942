// Package commands implements the mlworkflow command tree.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mlworkflow/internal/config"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/workflow"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	seed      uint64
	rows      int

	cfg    *config.Config
	logger log.Logger
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mlworkflow",
		Short: "Run cross-validation, regularization and imputation workflows on synthetic data",
		Long: `mlworkflow generates small seeded datasets in-process and runs three
machine-learning workflows on them: k-fold cross-validation of a logistic
regression, a comparison of unregularized, ridge and lasso regression, and
KNN or regression based imputation of injected missing values.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+" when present)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	f.StringVar(&a.logFormat, "log-format", "", "log format: json or console (overrides config)")
	f.Uint64Var(&a.seed, "seed", 0, "random seed for data generation and splitting (overrides config)")
	f.IntVar(&a.rows, "rows", 0, "rows of every generated dataset (overrides config)")

	root.AddCommand(
		a.newCrossValCommand(),
		a.newRegularizeCommand(),
		a.newImputeCommand(),
		a.newAllCommand(),
		a.newGenerateCommand(),
		a.newConfigCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		c.Log.Level = a.logLevel
	}
	if f.Changed("log-format") {
		c.Log.Format = a.logFormat
	}
	if f.Changed("seed") {
		c.Dataset.Seed = a.seed
	}
	if f.Changed("rows") {
		c.Dataset.Rows = a.rows
	}
	if err := c.Validate(); err != nil {
		return err
	}
	a.cfg = c

	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	zl := log.NewZerologLogger(cmd.ErrOrStderr(), level, c.Log.Format == "console")
	zl.InstallWarnings()
	a.logger = zl.With(log.ComponentKey, "cli")
	return nil
}

func (a *app) runOptions() []workflow.Option {
	return []workflow.Option{workflow.WithLogger(a.logger)}
}
