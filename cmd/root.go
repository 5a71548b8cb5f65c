package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Azure/aimbiztalk-sub006/internal/config"
	"github.com/Azure/aimbiztalk-sub006/internal/observability"
)

// ErrAnalysisFailed is returned by analyze when the run produced error
// diagnostics and analysis.fail_on_error is set.
var ErrAnalysisFailed = errors.New("analysis reported error diagnostics")

type configKey struct{}

func withConfig(ctx context.Context, cfg config.Interface) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey{}).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in command context")
	}
	return cfg, nil
}

// NewRootCommand builds the aim command tree.
func NewRootCommand() *cobra.Command {
	return newRootCmd(NewStoreProvider())
}

func newRootCmd(provider storeProvider) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "aim",
		Short: "aim analyzes integration applications for migration to a cloud messaging platform.",
		// Version is set at build time. See cmd/version.go.
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)
			if err := initializeConfig(v, cfgFile); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting aim", zap.String("version", Version))

			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./aim.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(
		newAnalyzeCmd(provider),
		newReportCmd(provider),
		newVersionCmd(),
	)
	return rootCmd
}

// initializeConfig reads the config file, if any, and enables AIM_
// environment overrides.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("aim")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrAnalysisFailed) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	return err
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrAnalysisFailed):
		return 2
	default:
		return 1
	}
}
