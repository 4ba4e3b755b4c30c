// Package cli provides the command-line interface for modforge.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgelabs/modforge/internal/cli/commands"
	"github.com/forgelabs/modforge/internal/config"
	"github.com/forgelabs/modforge/internal/resolve"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modforge",
		Short: "modforge - HPC buildspec resolution",
		Long: `modforge resolves declarative build specifications for HPC software:
it normalizes parameters against the schema, resolves dependency graphs with
toolchain inheritance, expands templates and derives module identities.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			resolver := resolve.New(cfg, logger)
			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithResolver(ctx, resolver)
			cmd.SetContext(ctx)

			if cfg.Verbose && cfg.ConfigFileUsed != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", cfg.ConfigFileUsed)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./modforge.yaml)")
	rootCmd.PersistentFlags().StringSliceP("robot", "r", nil, "Search roots for buildspec discovery")
	rootCmd.PersistentFlags().String("naming-scheme", "", "Module naming scheme (flat|hierarchical)")
	rootCmd.PersistentFlags().StringSlice("filter-deps", nil, "Software names to filter from dependency lists")
	rootCmd.PersistentFlags().StringSlice("only-blocks", nil, "Restrict resolution to the named blocks")
	rootCmd.PersistentFlags().Bool("check-os-deps", false, "Probe the host for declared OS dependencies")
	rootCmd.PersistentFlags().Bool("hidden", false, "Install modules as hidden")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("naming-scheme", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"flat", "hierarchical"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))
	rootCmd.AddCommand(commands.NewResolveCommand())
	rootCmd.AddCommand(commands.NewDumpCommand())
	rootCmd.AddCommand(commands.NewDepsCommand())
	rootCmd.AddCommand(commands.NewFindCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

