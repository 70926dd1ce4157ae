package cmd

import (
	"fmt"
	"io"
	"os"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagHome      = "home"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagActor     = "actor"
)

// NewRootCmd creates the dualoracled root command.
func NewRootCmd() *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:          "dualoracled",
		Short:        "Dual-source price oracle aggregation and risk-validation daemon",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String(flagHome, DefaultHome(), "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String(flagLogFormat, "json", "log format (json|plain)")
	mustBind(v, "home", rootCmd.PersistentFlags().Lookup(flagHome))
	mustBind(v, "log.level", rootCmd.PersistentFlags().Lookup(flagLogLevel))
	mustBind(v, "log.format", rootCmd.PersistentFlags().Lookup(flagLogFormat))

	rootCmd.AddCommand(
		StartCmd(v),
		DryRunCmd(v),
		FeedsCmd(v),
		ValidateGenesisCmd(),
		ExportCmd(v),
		PauseCmd(v),
		ResumeCmd(v),
	)
	return rootCmd
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// loadRuntime reads the configuration and builds the logger for a command.
func loadRuntime(v *viper.Viper, out io.Writer) (Config, log.Logger, error) {
	cfg, err := LoadConfig(v)
	if err != nil {
		return Config{}, nil, err
	}
	logger, err := newLogger(cfg.Log, out)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg LogConfig, out io.Writer) (log.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if out == nil {
		out = os.Stderr
	}

	opts := []log.Option{log.LevelOption(level)}
	if cfg.Format == "json" {
		opts = append(opts, log.OutputJSONOption())
	} else {
		opts = append(opts, log.ColorOption(false))
	}
	return log.NewLogger(out, opts...), nil
}
