package config

import "time"

// Config holds all application configuration.
// It is resolved once at process start and passed explicitly to the
// components that need it; there is no ambient global configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis" validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	ImageGen ImageGenConfig `mapstructure:"imagegen" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Artifact ArtifactConfig `mapstructure:"artifact" validate:"required"`
	Memegen  MemegenConfig  `mapstructure:"memegen" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// WorkerToken authenticates the internal worker upload endpoint.
	// Optional: when empty the endpoint is disabled.
	WorkerToken string `mapstructure:"worker_token"`
}

// RedisConfig contains task state backend settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`

	// ResultTTL bounds how long terminal task state is retained.
	ResultTTL time.Duration `mapstructure:"result_ttl" validate:"required"`
}

// BrokerConfig contains message broker settings.
type BrokerConfig struct {
	URL string `mapstructure:"url" validate:"required"`

	// Queue is the primary work queue name; a "_high" suffixed queue is
	// declared alongside it for priority submissions.
	Queue string `mapstructure:"queue" validate:"required"`

	// Prefetch bounds unacknowledged deliveries per worker. The image
	// backend is GPU-bound, so the default is 1.
	Prefetch int `mapstructure:"prefetch" validate:"gt=0"`
}

// LLMConfig contains language model backend settings.
type LLMConfig struct {
	// GeminiAPIKey may be empty for processes that never call the LLM;
	// the adapter constructor rejects an empty key.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// PromptTimeout and CaptionTimeout bound the two text generation calls
	// made per pipeline run.
	PromptTimeout  time.Duration `mapstructure:"prompt_timeout" validate:"required"`
	CaptionTimeout time.Duration `mapstructure:"caption_timeout" validate:"required"`
}

// ImageGenConfig contains Stable Diffusion WebUI settings.
type ImageGenConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	Steps        int           `mapstructure:"steps" validate:"gt=0"`
	Width        int           `mapstructure:"width" validate:"gt=0"`
	Height       int           `mapstructure:"height" validate:"gt=0"`
	Sampler      string        `mapstructure:"sampler" validate:"required"`
	CFGScale     float64       `mapstructure:"cfg_scale" validate:"gt=0"`
	RestoreFaces bool          `mapstructure:"restore_faces"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"required"`
}

// TaskConfig contains orchestrator retry and time limit settings.
type TaskConfig struct {
	// MaxRetries bounds automatic re-execution after a transient failure.
	// A task is attempted at most MaxRetries+1 times.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt up
	// to RetryMaxDelay, with jitter applied on top.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"required"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay" validate:"required"`

	// SoftTimeLimit bounds pipeline execution; HardTimeLimit bounds the
	// whole attempt including state bookkeeping.
	SoftTimeLimit time.Duration `mapstructure:"soft_time_limit" validate:"required"`
	HardTimeLimit time.Duration `mapstructure:"hard_time_limit" validate:"required"`
}

// ArtifactConfig contains artifact storage and housekeeping settings.
type ArtifactConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`

	// FontPath locates the caption font; empty selects the built-in face.
	FontPath string `mapstructure:"font_path"`

	// Retention is the age beyond which housekeeping deletes artifacts.
	Retention time.Duration `mapstructure:"retention" validate:"required"`

	// CleanupInterval is how often the housekeeping job runs.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"required"`
}

// MemegenConfig contains settings for the template-gallery meme path.
type MemegenConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"required"`
}
