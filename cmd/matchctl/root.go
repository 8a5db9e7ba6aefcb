package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"swiftjobs-backend/config"
	"swiftjobs-backend/internal/bootstrap"
	"swiftjobs-backend/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const app = "matchctl"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "matchctl is an operator cli for the swiftjobs matching and negotiation backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("database-url", "", "postgres connection string (default $DATABASE_URL, empty uses the in-memory store)")
	rootCmd.PersistentFlags().String("gemini-api-key", "", "Gemini API key (default $GEMINI_API_KEY)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	for _, key := range []string{"database-url", "gemini-api-key", "debug", "json"} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
	_ = viper.BindEnv("database-url", "DATABASE_URL")
	_ = viper.BindEnv("gemini-api-key", "GEMINI_API_KEY")
}

// loadConfig reads the service configuration and lets flags override it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if v := viper.GetString("database-url"); v != "" {
		cfg.DBUrl = v
	}
	if v := viper.GetString("gemini-api-key"); v != "" {
		cfg.GeminiAPIKey = v
	}
	// the cli never publishes notifications
	cfg.RedisURL = ""

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, log, nil
}

func newApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, log)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
