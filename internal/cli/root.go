// Package cli wires configuration, logging and the chatbot components into
// the ragchat command tree.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/internal/config"
	"ragchat/internal/logger"
)

var (
	configPath string
	logLevel   string

	// set up by the root command before any subcommand runs
	appCfg *config.AppConfig
	appLog *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with a family knowledge file",
	Long: `ragchat answers questions about a plain text knowledge file using
retrieval-augmented generation against a local OpenAI-compatible backend
such as Ollama. New facts can be taught with "remember: <fact>".`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default ./config.yaml, then ~/.config/ragchat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Pretty: cfg.Log.Pretty,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	appCfg, appLog = cfg, lg
	return nil
}

func teardown(*cobra.Command, []string) error {
	if appLog != nil {
		return appLog.Close()
	}
	return nil
}
