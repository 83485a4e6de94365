package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile  string
	envFile  string
	logLevel string
	verbose  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factsift",
	Short: "factsift - fact-check orchestration service",
	Long: `factsift checks a claim or news snippet against several sources.

The query is translated to a pivot language, searched in a public
fact-check database, and analysed by a language model whose prompt is
enriched with prior user feedback and optional reference material.

factsift reports what its sources say. It is not an oracle.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "factsift v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factsift/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file, .env and ENV variables
func initConfig() {
	if err := loadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting defaults: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".factsift"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	configureEnv(viper.GetViper())

	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	case cfgFile != "":
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

// loadDotEnv loads path without overriding variables already set. A
// missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key of cfg so that environment variables
// are honored for keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&tree); err != nil {
		return err
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		// search_links is a free-form map and is kept whole
		if sub, ok := value.(map[string]any); ok && key != "search_links" {
			walkDefaults(v, full, sub)
			continue
		}
		v.SetDefault(full, value)
	}
}

// configureEnv reads environment variables that match FACTSIFT_*
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("FACTSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindConventionalEnv(v)
}

// bindConventionalEnv honors the provider variables users already have
func bindConventionalEnv(v *viper.Viper) {
	_ = v.BindEnv("translate.api_key", "FACTSIFT_TRANSLATE_API_KEY", "GOOGLE_TRANSLATE_API_KEY")
	_ = v.BindEnv("factcheck.api_key", "FACTSIFT_FACTCHECK_API_KEY", "FACTCHECK_API_KEY")
	_ = v.BindEnv("feedback.host", "FACTSIFT_FEEDBACK_HOST", "DB_HOST")
	_ = v.BindEnv("feedback.user", "FACTSIFT_FEEDBACK_USER", "DB_USER")
	_ = v.BindEnv("feedback.password", "FACTSIFT_FEEDBACK_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("feedback.name", "FACTSIFT_FEEDBACK_NAME", "DB_NAME")
	_ = v.BindEnv("feedback.port", "FACTSIFT_FEEDBACK_PORT", "DB_PORT")
	_ = v.BindEnv("http.http_proxy", "FACTSIFT_HTTP_HTTP_PROXY", "HTTP_PROXY")
	_ = v.BindEnv("http.https_proxy", "FACTSIFT_HTTP_HTTPS_PROXY", "HTTPS_PROXY")
	_ = v.BindEnv("http.no_proxy", "FACTSIFT_HTTP_NO_PROXY", "NO_PROXY")
}

// loadConfig builds the effective configuration
func loadConfig() (*model.Config, error) {
	return configFrom(viper.GetViper())
}

func configFrom(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider keys fall back to the provider's own variable
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini", "google":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if verbose && logLevel == "" {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
