package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-screener/internal/scoring"
	"github.com/spigell/cv-screener/internal/server"
)

const (
	app = "cv-screener"
)

type Config struct {
	AI      *AIConfig      `mapstructure:"ai"`
	Parser  *ParserConfig  `mapstructure:"parser"`
	Scoring *ScoringConfig `mapstructure:"scoring"`
	Server  *server.Config `mapstructure:"server"`
	Screen  *ScreenConfig  `mapstructure:"screen"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ParserConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxCVLength int           `mapstructure:"max-cv-length"`
}

type ScoringConfig struct {
	// Mode is empty unless configured, so analyze knows when to ask.
	Mode         string `mapstructure:"mode"`
	KeywordsFile string `mapstructure:"keywords-file"`
	Weights      struct {
		Standard scoring.Weights `mapstructure:"standard"`
		Enhanced scoring.Weights `mapstructure:"enhanced"`
	} `mapstructure:"weights"`
	Thresholds scoring.Thresholds `mapstructure:"thresholds"`
}

type ScreenConfig struct {
	MinimumScore   float64  `mapstructure:"minimum-score"`
	Concurrency    int      `mapstructure:"concurrency"`
	ParseAttempts  int      `mapstructure:"parse-attempts"`
	MustHaveSkills []string `mapstructure:"must-have-skills"`
	ExcludeFile    string   `mapstructure:"exclude-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-screener parses CVs with a language model and scores them against job requirements",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 1)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("parser.timeout", "60s")
	viper.SetDefault("parser.max-cv-length", 50000)

	viper.SetDefault("scoring.thresholds.strong", 70)
	viper.SetDefault("scoring.thresholds.moderate", 50)

	viper.SetDefault("server.listen", server.DefaultListen)
	viper.SetDefault("server.max-job-description-length", 10000)
	viper.SetDefault("server.rate-limit.requests-per-minute", 30)
	viper.SetDefault("server.rate-limit.burst", 10)

	viper.SetDefault("screen.minimum-score", 0)
	viper.SetDefault("screen.concurrency", 4)
	viper.SetDefault("screen.parse-attempts", 1)
}

func initConfig() {
	// version needs no config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Every key has a default, so only an explicit or broken config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
