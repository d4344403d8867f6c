package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/studymate/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string
	LogFile  string

	GenerationBackend string

	VertexProject  string
	VertexLocation string
	VertexModel    string

	OllamaURL      string
	OllamaGenModel string

	SpeechURL    string
	SpeechModel  string
	SpeechVoice  string
	SpeechAPIKey string

	NATSURL     string
	NATSSubject string

	MaxUploadBytes int64

	APIKey              string
	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration
	CORSAllowedOrigins  []string

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls int

	OTLPEndpoint string

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),
		LogFile:  mustEnv("LOG_FILE", ""),

		GenerationBackend: strings.ToLower(mustEnv("GENERATION_BACKEND", "ollama")),

		VertexProject:  mustEnv("VERTEX_PROJECT", ""),
		VertexLocation: mustEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:    mustEnv("VERTEX_MODEL", "gemini-2.0-flash"),

		OllamaURL:      mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel: mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),

		SpeechURL:    mustEnv("SPEECH_URL", ""),
		SpeechModel:  mustEnv("SPEECH_MODEL", "tts-1"),
		SpeechVoice:  mustEnv("SPEECH_VOICE", "alloy"),
		SpeechAPIKey: mustEnv("SPEECH_API_KEY", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "studymate.actions"),

		MaxUploadBytes: int64(mustEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		APIKey:              mustEnv("API_KEY", ""),
		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 32),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT", 250*time.Millisecond),
		CORSAllowedOrigins:  mustEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RetryMaxAttempts:    mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoff: mustEnvDuration("RETRY_INITIAL_BACKOFF", 250*time.Millisecond),
		RetryMaxBackoff:     mustEnvDuration("RETRY_MAX_BACKOFF", 2*time.Second),
		RetryMultiplier:     mustEnvFloat("RETRY_MULTIPLIER", 2.0),

		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio:     mustEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeout:      mustEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 1),

		OTLPEndpoint: mustEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// Resilience maps the RETRY_* and BREAKER_* keys onto the executor config.
func (c Config) Resilience() resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        c.RetryMaxAttempts,
		RetryInitialBackoff:     c.RetryInitialBackoff,
		RetryMaxBackoff:         c.RetryMaxBackoff,
		RetryMultiplier:         c.RetryMultiplier,
		BreakerEnabled:          c.BreakerEnabled,
		BreakerMinRequests:      uint32(max(c.BreakerMinRequests, 0)),
		BreakerFailureRatio:     c.BreakerFailureRatio,
		BreakerOpenTimeout:      c.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(c.BreakerHalfOpenMaxCalls, 0)),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
