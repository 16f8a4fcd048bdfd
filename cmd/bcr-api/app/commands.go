// Package app provides the entry point for the BCR API application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackb/bcr-api/internal/config"
	"github.com/stackb/bcr-api/internal/versions"
)

// NewRootCmd creates a new root command for the BCR API.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "bcr-api",
		DisableAutoGenTag: true,
		Short:             "Bazel Central Registry API server",
		Long: `bcr-api serves a queryable view of the Bazel Central Registry.

The registry snapshot is downloaded once per process, decoded in memory and
served as JSON or protobuf depending on the request's Accept header.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to configuration file (YAML format, optional)")
	flags.String("registry-url", "", "Registry snapshot location (http(s):// URL, file:// URL or path)")
	flags.String("registry-timeout", "", "Timeout for downloading the registry snapshot (e.g. 30s)")

	bindFlag(flags.Lookup("config"), "config")
	bindFlag(flags.Lookup("registry-url"), "registry.url")
	bindFlag(flags.Lookup("registry-timeout"), "registry.timeout")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInspectCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to read format flag: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(out, string(output))
				return err
			}

			_, err = fmt.Fprintf(out, "bcr-api %s\n  commit:   %s\n  branch:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n",
				info.Version, info.GitCommit, info.GitBranch, info.BuildTimestamp, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig reads the optional configuration file and applies flag and environment overrides
func loadConfig() (*config.Config, error) {
	var opts []config.Option
	if path := viper.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if viper.IsSet("address") {
		cfg.Address = viper.GetString("address")
	}
	if viper.IsSet("registry.url") {
		cfg.Registry.URL = viper.GetString("registry.url")
	}
	if viper.IsSet("registry.timeout") {
		cfg.Registry.Timeout = viper.GetString("registry.timeout")
	}
	if viper.IsSet("registry.prefetch") {
		cfg.Registry.Prefetch = viper.GetBool("registry.prefetch")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func bindFlag(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		slog.Error("Error binding flag", "flag", flag.Name, "error", err)
	}
}
