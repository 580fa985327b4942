// Package config loads the mlworkflow CLI configuration with viper.
//
// Precedence: flags > environment (MLWORKFLOW_*) > config file > defaults.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/workflow"
)

// EnvPrefix is the prefix of environment overrides, e.g. MLWORKFLOW_CROSSVAL_FOLDS.
const EnvPrefix = "MLWORKFLOW"

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "mlworkflow.yaml"

// Config is the full CLI configuration.
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Dataset        DatasetConfig        `mapstructure:"dataset" yaml:"dataset"`
	CrossVal       CrossValConfig       `mapstructure:"crossval" yaml:"crossval"`
	Regularization RegularizationConfig `mapstructure:"regularization" yaml:"regularization"`
	Imputation     ImputationConfig     `mapstructure:"imputation" yaml:"imputation"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DatasetConfig applies to every pipeline. Rows 0 keeps each pipeline's own row count.
type DatasetConfig struct {
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
	Rows int    `mapstructure:"rows" yaml:"rows"`
}

type CrossValConfig struct {
	Rows     int     `mapstructure:"rows" yaml:"rows"`
	TestSize float64 `mapstructure:"test_size" yaml:"test_size"`
	Folds    int     `mapstructure:"folds" yaml:"folds"`
	Stratify bool    `mapstructure:"stratify" yaml:"stratify"`
	Scaling  string  `mapstructure:"scaling" yaml:"scaling"`
	C        float64 `mapstructure:"c" yaml:"c"`
	MaxIter  int     `mapstructure:"max_iter" yaml:"max_iter"`
}

type RegularizationConfig struct {
	Rows         int     `mapstructure:"rows" yaml:"rows"`
	TestSize     float64 `mapstructure:"test_size" yaml:"test_size"`
	RidgeAlpha   float64 `mapstructure:"ridge_alpha" yaml:"ridge_alpha"`
	LassoAlpha   float64 `mapstructure:"lasso_alpha" yaml:"lasso_alpha"`
	Scaling      string  `mapstructure:"scaling" yaml:"scaling"`
	LassoMaxIter int     `mapstructure:"lasso_max_iter" yaml:"lasso_max_iter"`
	LassoTol     float64 `mapstructure:"lasso_tol" yaml:"lasso_tol"`
}

type ImputationConfig struct {
	Rows      int                    `mapstructure:"rows" yaml:"rows"`
	Strategy  string                 `mapstructure:"strategy" yaml:"strategy"`
	Neighbors int                    `mapstructure:"neighbors" yaml:"neighbors"`
	Weights   string                 `mapstructure:"weights" yaml:"weights"`
	Missing   []workflow.MissingSpec `mapstructure:"missing" yaml:"missing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cv := workflow.DefaultCrossValidationConfig()
	reg := workflow.DefaultRegularizationConfig()
	imp := workflow.DefaultImputationConfig()
	return &Config{
		Log:     LogConfig{Level: "info", Format: "console"},
		Dataset: DatasetConfig{Seed: 42},
		CrossVal: CrossValConfig{
			Rows: cv.Rows, TestSize: cv.TestSize, Folds: cv.Folds, Stratify: cv.Stratify,
			Scaling: cv.Scaling, C: cv.C, MaxIter: cv.MaxIter,
		},
		Regularization: RegularizationConfig{
			Rows: reg.Rows, TestSize: reg.TestSize, RidgeAlpha: reg.RidgeAlpha, LassoAlpha: reg.LassoAlpha,
			Scaling: reg.Scaling, LassoMaxIter: reg.LassoMaxIter, LassoTol: reg.LassoTol,
		},
		Imputation: ImputationConfig{
			Rows: imp.Rows, Strategy: imp.Strategy, Neighbors: imp.Neighbors,
			Weights: imp.Weights, Missing: imp.Missing,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("dataset.seed", d.Dataset.Seed)
	v.SetDefault("dataset.rows", d.Dataset.Rows)

	v.SetDefault("crossval.rows", d.CrossVal.Rows)
	v.SetDefault("crossval.test_size", d.CrossVal.TestSize)
	v.SetDefault("crossval.folds", d.CrossVal.Folds)
	v.SetDefault("crossval.stratify", d.CrossVal.Stratify)
	v.SetDefault("crossval.scaling", d.CrossVal.Scaling)
	v.SetDefault("crossval.c", d.CrossVal.C)
	v.SetDefault("crossval.max_iter", d.CrossVal.MaxIter)

	v.SetDefault("regularization.rows", d.Regularization.Rows)
	v.SetDefault("regularization.test_size", d.Regularization.TestSize)
	v.SetDefault("regularization.ridge_alpha", d.Regularization.RidgeAlpha)
	v.SetDefault("regularization.lasso_alpha", d.Regularization.LassoAlpha)
	v.SetDefault("regularization.scaling", d.Regularization.Scaling)
	v.SetDefault("regularization.lasso_max_iter", d.Regularization.LassoMaxIter)
	v.SetDefault("regularization.lasso_tol", d.Regularization.LassoTol)

	v.SetDefault("imputation.rows", d.Imputation.Rows)
	v.SetDefault("imputation.strategy", d.Imputation.Strategy)
	v.SetDefault("imputation.neighbors", d.Imputation.Neighbors)
	v.SetDefault("imputation.weights", d.Imputation.Weights)
	v.SetDefault("imputation.missing", d.Imputation.Missing)
}

// Load reads defaults, then cfgFile (or ./mlworkflow.yaml when it exists),
// then MLWORKFLOW_* environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.SetConfigFile(DefaultFile)
		if _, err := os.Stat(DefaultFile); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read config %s", DefaultFile)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// Save writes c as YAML to path.
func Save(c *Config, path string) error {
	b, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

// YAML renders c as YAML.
func (c *Config) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal yaml")
	}
	return b, nil
}

func (c *Config) rows(own int) int {
	if c.Dataset.Rows > 0 {
		return c.Dataset.Rows
	}
	return own
}

// CrossValidation returns the pipeline configuration for RunCrossValidation.
func (c *Config) CrossValidation() workflow.CrossValidationConfig {
	return workflow.CrossValidationConfig{
		Rows:     c.rows(c.CrossVal.Rows),
		Seed:     c.Dataset.Seed,
		TestSize: c.CrossVal.TestSize,
		Folds:    c.CrossVal.Folds,
		Stratify: c.CrossVal.Stratify,
		Scaling:  c.CrossVal.Scaling,
		C:        c.CrossVal.C,
		MaxIter:  c.CrossVal.MaxIter,
	}
}

// RegularizationPipeline returns the pipeline configuration for RunRegularization.
func (c *Config) RegularizationPipeline() workflow.RegularizationConfig {
	return workflow.RegularizationConfig{
		Rows:         c.rows(c.Regularization.Rows),
		Seed:         c.Dataset.Seed,
		TestSize:     c.Regularization.TestSize,
		RidgeAlpha:   c.Regularization.RidgeAlpha,
		LassoAlpha:   c.Regularization.LassoAlpha,
		Scaling:      c.Regularization.Scaling,
		LassoMaxIter: c.Regularization.LassoMaxIter,
		LassoTol:     c.Regularization.LassoTol,
	}
}

// ImputationPipeline returns the pipeline configuration for RunImputation.
func (c *Config) ImputationPipeline() workflow.ImputationConfig {
	return workflow.ImputationConfig{
		Rows:      c.rows(c.Imputation.Rows),
		Seed:      c.Dataset.Seed,
		Strategy:  c.Imputation.Strategy,
		Neighbors: c.Imputation.Neighbors,
		Weights:   c.Imputation.Weights,
		Missing:   c.Imputation.Missing,
	}
}

// Validate rejects out-of-range values in every section.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errors.NewValidationError("log.format", "must be json or console", c.Log.Format)
	}
	if c.Dataset.Rows < 0 {
		return errors.NewValidationError("dataset.rows", "must not be negative", c.Dataset.Rows)
	}
	if err := c.CrossValidation().Validate(); err != nil {
		return errors.Wrap(err, "crossval")
	}
	if err := c.RegularizationPipeline().Validate(); err != nil {
		return errors.Wrap(err, "regularization")
	}
	if err := c.ImputationPipeline().Validate(); err != nil {
		return errors.Wrap(err, "imputation")
	}
	return nil
}
