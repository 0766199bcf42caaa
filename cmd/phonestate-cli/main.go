package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/phonestate-go/internal/registry"
)

var (
	// Global flags
	activeSlots int
	logLevel    string
	envFile     string

	// Resolved configuration shared by subcommands
	config *registry.Config
	logger *slog.Logger
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phonestate-cli",
		Short: "Telephony state registry command line interface",
		Long: `phonestate-cli drives an in-process telephony state registry.
It runs scripted scenarios, offers an interactive shell for issuing
notifications and registrations, lists the event catalog and mints
permission grant tokens.`,
		PersistentPreRunE: initializeConfig,
		SilenceUsage:      true,
	}

	// Add global flags
	rootCmd.PersistentFlags().IntVar(&activeSlots, "slots", registry.DefaultActiveSlots, "Number of active modem slots (overrides PHONESTATE_ACTIVE_SLOTS)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", registry.DefaultLogLevel, "Log level: debug, info, warn or error (overrides PHONESTATE_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before reading configuration")

	// Add subcommands
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newShellCommand())
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newApnTypesCommand())
	rootCmd.AddCommand(newGrantCommand())

	return rootCmd
}

// initializeConfig merges the .env file, PHONESTATE_* variables and flags
func initializeConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		// A missing .env in the working directory is fine
		_ = godotenv.Load()
	}

	cfg, err := registry.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("slots") {
		cfg.WithActiveSlots(activeSlots)
	}
	if flags.Changed("log-level") {
		cfg.WithLogLevel(logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	config = cfg
	logger = cfg.NewLogger(cmd.ErrOrStderr())
	config.WithLogger(logger)
	return nil
}
