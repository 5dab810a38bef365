package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Redis      RedisConfig
	Auth       AuthConfig
	OIDC       OIDCConfig
	Gateway    GatewayConfig
	RateLimit  RateLimitConfig
	Video      VideoConfig
	ElevenLabs ElevenLabsConfig
	R2         R2Config
	Database   DatabaseConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	ApiDomain      string
	RequestTimeout time.Duration
	AllowedOrigins []string
	VideosDir      string
	Debug          bool
}

type LogConfig struct {
	Level      string
	Output     string // stdout, file or both
	File       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	JSON       bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig covers HS256 tokens issued by the hosted auth provider.
type AuthConfig struct {
	JWTSecret string
	Audience  string
	Required  bool
}

type OIDCConfig struct {
	Issuer   string
	ClientID string
}

type GatewayConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	ScriptPerMin int
	VideoPerHour int
}

// VideoConfig is the only input to provider selection.
type VideoConfig struct {
	ForceMock        bool
	RunwayAPIKey     string
	RunwayBaseURL    string
	RunwayModel      string
	StabilityAPIKey  string
	StabilityBaseURL string
	PollInterval     time.Duration
	MaxWait          time.Duration
	JobTimeout       time.Duration
}

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type DatabaseConfig struct {
	URL string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	readSecret("REDIS_PASSWORD")
	readSecret("RUNWAY_API_KEY")
	readSecret("STABILITY_API_KEY")
	readSecret("ELEVENLABS_API_KEY")
	readSecret("SUPABASE_JWT_SECRET")
	readSecret("DATABASE_URL")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV", "ENV")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("server.request_timeout_seconds", "REQUEST_TIMEOUT_SECONDS")
	_ = v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
	_ = v.BindEnv("server.videos_dir", "VIDEOS_DIR")
	_ = v.BindEnv("server.debug", "DEBUG")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.output", "LOG_OUTPUT")
	_ = v.BindEnv("log.file", "LOG_FILE")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("auth.jwt_secret", "SUPABASE_JWT_SECRET")
	_ = v.BindEnv("auth.audience", "AUTH_AUDIENCE")
	_ = v.BindEnv("auth.required", "AUTH_REQUIRED")
	_ = v.BindEnv("oidc.issuer", "OIDC_ISSUER")
	_ = v.BindEnv("oidc.client_id", "OIDC_CLIENT_ID")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = v.BindEnv("ratelimit.script_per_min", "RATELIMIT_SCRIPT_PER_MIN")
	_ = v.BindEnv("ratelimit.video_per_hour", "RATELIMIT_VIDEO_PER_HOUR")
	_ = v.BindEnv("video.force_mock", "USE_MOCK_VIDEO")
	_ = v.BindEnv("video.runway_api_key", "RUNWAY_API_KEY")
	_ = v.BindEnv("video.runway_base_url", "RUNWAY_BASE_URL")
	_ = v.BindEnv("video.runway_model", "RUNWAY_MODEL")
	_ = v.BindEnv("video.stability_api_key", "STABILITY_API_KEY")
	_ = v.BindEnv("video.stability_base_url", "STABILITY_BASE_URL")
	_ = v.BindEnv("video.poll_interval_seconds", "VIDEO_POLL_INTERVAL_SECONDS")
	_ = v.BindEnv("video.max_wait_seconds", "VIDEO_MAX_WAIT_SECONDS")
	_ = v.BindEnv("video.job_timeout_seconds", "VIDEO_JOB_TIMEOUT_SECONDS")
	_ = v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	_ = v.BindEnv("elevenlabs.base_url", "ELEVENLABS_BASE_URL")
	_ = v.BindEnv("elevenlabs.voice_id", "ELEVENLABS_VOICE_ID")
	_ = v.BindEnv("elevenlabs.model_id", "ELEVENLABS_MODEL_ID")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("database.url", "DATABASE_URL")

	// Defaults
	v.SetDefault("server.port", "8002")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.request_timeout_seconds", 10)
	v.SetDefault("server.allowed_origins", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000")
	v.SetDefault("server.videos_dir", "./videos")
	v.SetDefault("server.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/api.log")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 14)
	v.SetDefault("log.compress", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.audience", "authenticated")
	v.SetDefault("auth.required", false)
	v.SetDefault("gateway.enabled", false)
	v.SetDefault("ratelimit.script_per_min", 30)
	v.SetDefault("ratelimit.video_per_hour", 20)

	// Mock mode is on unless explicitly disabled.
	v.SetDefault("video.force_mock", true)
	v.SetDefault("video.runway_base_url", "https://api.dev.runwayml.com")
	v.SetDefault("video.runway_model", "gen4_turbo")
	v.SetDefault("video.stability_base_url", "https://api.stability.ai")
	v.SetDefault("video.poll_interval_seconds", 5)
	v.SetDefault("video.max_wait_seconds", 300)
	v.SetDefault("video.job_timeout_seconds", 900)

	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("elevenlabs.model_id", "eleven_monolingual_v1")

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	env := v.GetString("server.env")

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			Env:            env,
			ApiDomain:      v.GetString("server.api_domain"),
			RequestTimeout: seconds(v.GetInt("server.request_timeout_seconds")),
			AllowedOrigins: splitList(v.GetString("server.allowed_origins")),
			VideosDir:      v.GetString("server.videos_dir"),
			Debug:          v.GetBool("server.debug"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Output:     v.GetString("log.output"),
			File:       v.GetString("log.file"),
			MaxSize:    v.GetInt("log.max_size"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAge:     v.GetInt("log.max_age"),
			Compress:   v.GetBool("log.compress"),
			JSON:       env == "production",
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Audience:  v.GetString("auth.audience"),
			Required:  v.GetBool("auth.required"),
		},
		OIDC: OIDCConfig{
			Issuer:   v.GetString("oidc.issuer"),
			ClientID: v.GetString("oidc.client_id"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
		RateLimit: RateLimitConfig{
			ScriptPerMin: v.GetInt("ratelimit.script_per_min"),
			VideoPerHour: v.GetInt("ratelimit.video_per_hour"),
		},
		Video: VideoConfig{
			ForceMock:        v.GetBool("video.force_mock"),
			RunwayAPIKey:     v.GetString("video.runway_api_key"),
			RunwayBaseURL:    v.GetString("video.runway_base_url"),
			RunwayModel:      v.GetString("video.runway_model"),
			StabilityAPIKey:  v.GetString("video.stability_api_key"),
			StabilityBaseURL: v.GetString("video.stability_base_url"),
			PollInterval:     seconds(v.GetInt("video.poll_interval_seconds")),
			MaxWait:          seconds(v.GetInt("video.max_wait_seconds")),
			JobTimeout:       seconds(v.GetInt("video.job_timeout_seconds")),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  v.GetString("elevenlabs.api_key"),
			BaseURL: v.GetString("elevenlabs.base_url"),
			VoiceID: v.GetString("elevenlabs.voice_id"),
			ModelID: v.GetString("elevenlabs.model_id"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}

	return cfg, nil
}

// Warnings reports configuration problems worth surfacing at startup.
// None of them prevent the server from running.
func (c *Config) Warnings() []string {
	var warnings []string

	if !c.Video.ForceMock && c.Video.RunwayAPIKey == "" && c.Video.StabilityAPIKey == "" {
		warnings = append(warnings,
			"no video provider configured; set RUNWAY_API_KEY or STABILITY_API_KEY, or USE_MOCK_VIDEO=true for development")
	}

	if c.Server.Env == "production" {
		if c.Server.Debug {
			warnings = append(warnings, "debug mode enabled in production")
		}
		for _, origin := range c.Server.AllowedOrigins {
			if origin == "*" {
				warnings = append(warnings, "CORS allows all origins (*) in production")
				break
			}
		}
		if c.Auth.JWTSecret == "" && c.OIDC.Issuer == "" && !c.Gateway.Enabled {
			warnings = append(warnings, "authentication not configured in production")
		}
	}

	return warnings
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
