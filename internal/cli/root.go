package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// ErrReported is returned when a command has already written its failure
// to stdout; main exits non-zero without printing it again.
var ErrReported = errors.New("error already reported")

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "affidavit",
	Short: "Affidavit of Service (Form 11) generator",
	Long: `affidavit fills the Magistrates Court of Western Australia Form 11
Affidavit of Service with case details: registry, case number, claimant and
up to six defendants.

Case details come from JSON, or are extracted from the text of a General
Procedure Claim with an LLM provider. Documents can be generated one at a
time (generate), in bulk (batch), over HTTP (serve) or as MCP tools (mcp).`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as serve and batch.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "affidavit %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.affidavit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("template", "", "Form 11 .docx template (default: embedded)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or console")
	rootCmd.PersistentFlags().String("llm-provider", "", "LLM provider for claim extraction (openai, anthropic, ollama)")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model name")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("template.path", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match AFFIDAVIT_*, e.g. AFFIDAVIT_SERVER_ADDR
	viper.SetEnvPrefix("AFFIDAVIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".affidavit"), nil
}

// setDefaults registers every config key so env vars and Unmarshal see it.
func setDefaults() {
	d := model.DefaultConfig()
	for key, value := range map[string]any{
		"template.path":                     d.Template.Path,
		"template.format_names":             d.Template.FormatNames,
		"template.prefill_place":            d.Template.PrefillPlace,
		"template.process_name":             d.Template.ProcessName,
		"server.addr":                       d.Server.Addr,
		"server.base64_body":                d.Server.Base64Body,
		"server.allow_origin":               d.Server.AllowOrigin,
		"server.max_body_bytes":             d.Server.MaxBodyBytes,
		"server.read_timeout":               d.Server.ReadTimeout,
		"server.write_timeout":              d.Server.WriteTimeout,
		"llm.provider":                      d.LLM.Provider,
		"llm.model":                         d.LLM.Model,
		"llm.api_key":                       d.LLM.APIKey,
		"llm.base_url":                      d.LLM.BaseURL,
		"llm.timeout":                       d.LLM.Timeout,
		"llm.max_tokens":                    d.LLM.MaxTokens,
		"llm.http_proxy":                    d.LLM.HTTPProxy,
		"llm.https_proxy":                   d.LLM.HTTPSProxy,
		"llm.no_proxy":                      d.LLM.NoProxy,
		"cache.enabled":                     d.Cache.Enabled,
		"cache.dir":                         d.Cache.Dir,
		"cache.memory_ttl":                  d.Cache.MemoryTTL,
		"cache.disk_ttl":                    d.Cache.DiskTTL,
		"concurrency.workers":               d.Concurrency.Workers,
		"rate_limiting.requests_per_second": d.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":          d.RateLimiting.BurstSize,
		"output.dir":                        d.Output.Dir,
		"output.verbose":                    d.Output.Verbose,
		"log.level":                         d.Log.Level,
		"log.format":                        d.Log.Format,
	} {
		viper.SetDefault(key, value)
	}
}

// loadConfig resolves flags, env vars, the config file and defaults into a
// Config. Provider API keys fall back to their conventional env vars.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	if cfg.Output.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to stderr; stdout is kept for
// command output.
func newLogger(cfg model.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// setup loads config and builds the logger for a command.
func setup() (*model.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
