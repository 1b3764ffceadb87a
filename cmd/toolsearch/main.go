package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taaft-ai/toolsearch/pkg/config"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "toolsearch",
		Short:         "toolsearch: natural-language search over an AI tool catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "toolsearch.yaml", "path to config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newImportCmd(),
		newKeywordsCmd(),
		newStatsCmd(),
		newCacheCmd(),
		newQueryLogCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

// loadConfig reads the config file. A missing default file falls back to
// built-in defaults; an explicitly named file must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		slog.Debug("config file not found, using defaults", "path", configPath)
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}
