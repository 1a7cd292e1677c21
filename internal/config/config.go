package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Ollama   OllamaConfig   `mapstructure:"ollama"`
	Whisper  WhisperConfig  `mapstructure:"whisper"`
	Media    MediaConfig    `mapstructure:"media"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // sqlite or postgres
	Path         string `mapstructure:"path"`   // sqlite file path
	DSN          string `mapstructure:"dsn"`    // postgres connection string
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type OllamaConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
}

type WhisperConfig struct {
	Binary   string `mapstructure:"binary"`
	ModelDir string `mapstructure:"model_dir"`
	Model    string `mapstructure:"model"` // model size: tiny, base, small
	Language string `mapstructure:"language"`
}

type MediaConfig struct {
	YtdlpBinary     string        `mapstructure:"ytdlp_binary"`
	WorkDir         string        `mapstructure:"work_dir"`
	SubtitleLangs   []string      `mapstructure:"subtitle_langs"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	AudioFormat     string        `mapstructure:"audio_format"`
}

type EnrichConfig struct {
	PageSize      int           `mapstructure:"page_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	RecordDelay   time.Duration `mapstructure:"record_delay"`
	CheckpointDir string        `mapstructure:"checkpoint_dir"`
	MaxJobs       int           `mapstructure:"max_jobs"`
	JobRetention  time.Duration `mapstructure:"job_retention"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/clipstack.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2:3b")
	v.SetDefault("ollama.timeout", 120*time.Second)
	v.SetDefault("ollama.max_retries", 3)
	v.SetDefault("ollama.backoff_initial", 2*time.Second)
	v.SetDefault("whisper.binary", "whisper-cli")
	v.SetDefault("whisper.model_dir", "./models")
	v.SetDefault("whisper.model", "base")
	v.SetDefault("whisper.language", "es")
	v.SetDefault("media.ytdlp_binary", "yt-dlp")
	v.SetDefault("media.work_dir", "./data/media")
	v.SetDefault("media.subtitle_langs", []string{"es", "en"})
	v.SetDefault("media.download_timeout", 300*time.Second)
	v.SetDefault("media.audio_format", "m4a")
	v.SetDefault("enrich.page_size", 1000)
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("enrich.record_delay", 500*time.Millisecond)
	v.SetDefault("enrich.checkpoint_dir", "./data/checkpoints")
	v.SetDefault("enrich.max_jobs", 10)
	v.SetDefault("enrich.job_retention", time.Hour)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for deployment overrides
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.path", "DB_PATH")
	v.BindEnv("database.dsn", "DATABASE_URL")
	v.BindEnv("ollama.base_url", "OLLAMA_BASE_URL")
	v.BindEnv("ollama.model", "OLLAMA_MODEL")
	v.BindEnv("whisper.binary", "WHISPER_BINARY")
	v.BindEnv("whisper.model_dir", "WHISPER_MODEL_DIR")
	v.BindEnv("whisper.model", "WHISPER_MODEL")
	v.BindEnv("media.ytdlp_binary", "YTDLP_BINARY")
	v.BindEnv("enrich.checkpoint_dir", "CHECKPOINT_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
