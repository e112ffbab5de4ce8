// Package geoai implements the geoai command line.
package geoai

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-geoai/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "geoai",
	Short: "Ask questions about tabular and geospatial datasets",
	Long: `geoai answers natural-language questions about CSV, Parquet and GeoJSON
datasets. A language model decides what kind of answer is wanted, writes a Go
snippet that computes it, and the snippet runs in an interpreter sandbox.
Results are cached by prompt and dataset content.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	rootCmd.PersistentFlags().String("llm-provider", "openai", "LLM provider (openai, openai_compatible, ollama, anthropic, gemini)")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model (provider default when empty)")
	rootCmd.PersistentFlags().String("llm-base-url", "", "LLM base URL")
	rootCmd.PersistentFlags().Float32("llm-temperature", 0, "LLM temperature")

	rootCmd.PersistentFlags().String("cache-backend", "fs", "Result cache backend (fs, badger, sqlite, none)")
	rootCmd.PersistentFlags().String("cache-dir", ".geoai_cache", "Result cache directory")

	rootCmd.PersistentFlags().Int("max-fix-attempts", 5, "How often a failing snippet is sent back for repair")
	rootCmd.PersistentFlags().Bool("telemetry", false, "Record warnings and token usage in DuckDB")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))
	_ = viper.BindPFlag("llm.base_url", rootCmd.PersistentFlags().Lookup("llm-base-url"))
	_ = viper.BindPFlag("llm.temperature", rootCmd.PersistentFlags().Lookup("llm-temperature"))
	_ = viper.BindPFlag("cache.backend", rootCmd.PersistentFlags().Lookup("cache-backend"))
	_ = viper.BindPFlag("cache.dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("sandbox.max_fix_attempts", rootCmd.PersistentFlags().Lookup("max-fix-attempts"))
	_ = viper.BindPFlag("telemetry.enabled", rootCmd.PersistentFlags().Lookup("telemetry"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("GEOAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("llm.api_key", "GEOAI_LLM_API_KEY")

	if cfgFile == "" {
		return
	}
	if err := config.ReadFile(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
