package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reviewrag/config"
	"reviewrag/internal/logger"
	"reviewrag/internal/metrics"
)

var (
	cfgFile     string
	cfg         *config.Config
	rootDir     string
	langFlag    string
	logLevel    string
	metricsAddr string

	log           *zap.Logger
	metricsServer *http.Server
)

var rootCmd = &cobra.Command{
	Use:   "reviewrag",
	Short: "Ask questions about Google Maps reviews",
	Long: `reviewrag scrapes Google Maps reviews, indexes them as vectors and answers
questions about a business from the most relevant reviews.

Example usage:
  reviewrag scrape "https://www.google.com/maps/place/..."   # Scrape and index reviews
  reviewrag ask "Is it good for families?" -b "Test Cafe"    # Answer from reviews
  reviewrag search "parking" -k 10                           # Show matching reviews
  reviewrag interactive                                      # Chat about the reviews`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if langFlag != "" {
			cfg.LLM.Language = langFlag
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if metricsAddr != "" {
			cfg.Metrics.Addr = metricsAddr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err = logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		metrics.Register()
		if cfg.Metrics.Addr != "" {
			metricsServer = metrics.Serve(cfg.Metrics.Addr, log)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = metricsServer.Shutdown(ctx)
			cancel()
		}
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./reviewrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "data root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "prompt and label language: en or zh (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
