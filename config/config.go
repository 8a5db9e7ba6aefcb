package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBUrl       string
	RedisURL    string
	JWTSecret   string
	FrontendURL string
	JWKSURL     string
	LogJSON     bool
	LogDebug    bool
	// Gemini (text generation + embeddings)
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string
	// Match scorer weights, must sum to 1
	ScoreEmbeddingWeight float64
	ScoreSkillWeight     float64
	// Negotiation engine
	NegotiationMaxTurns      int
	NegotiationHireThreshold int
	NegotiationFitWeight     float64
	NegotiationSalaryWeight  float64
	NegotiationCandidateFlex float64
	NegotiationSalaryDecay   float64
	NegotiationStaleAfter    time.Duration
	NegotiationSweepSpec     string
	// External call policy (embedding + text generation)
	ExternalTimeout        time.Duration
	ExternalMaxAttempts    int
	ExternalBackoffInitial time.Duration
	ExternalBackoffMax     time.Duration
	ExternalConcurrency    int
	// Notifications
	NotifyChannel string
}

func LoadConfig() (*Config, error) {
	// .env is optional, only present in local setups
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		JWKSURL:     getEnv("JWKS_URL", ""),
		LogJSON:     getEnvBool("LOG_JSON", true),
		LogDebug:    getEnvBool("LOG_DEBUG", false),

		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiEmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),

		ScoreEmbeddingWeight: getEnvFloat("SCORE_EMBEDDING_WEIGHT", 0.7),
		ScoreSkillWeight:     getEnvFloat("SCORE_SKILL_WEIGHT", 0.3),

		NegotiationMaxTurns:      getEnvInt("NEGOTIATION_MAX_TURNS", 10), // 5 exchanges
		NegotiationHireThreshold: getEnvInt("NEGOTIATION_HIRE_THRESHOLD", 70),
		NegotiationFitWeight:     getEnvFloat("NEGOTIATION_FIT_WEIGHT", 0.5),
		NegotiationSalaryWeight:  getEnvFloat("NEGOTIATION_SALARY_WEIGHT", 0.5),
		NegotiationCandidateFlex: getEnvFloat("NEGOTIATION_CANDIDATE_FLEX", 0.1),
		NegotiationSalaryDecay:   getEnvFloat("NEGOTIATION_SALARY_DECAY", 0.5),
		NegotiationStaleAfter:    getEnvDuration("NEGOTIATION_STALE_AFTER", 30*time.Minute),
		NegotiationSweepSpec:     getEnv("NEGOTIATION_SWEEP_SPEC", "@every 5m"),

		ExternalTimeout:        getEnvDuration("EXTERNAL_TIMEOUT", 30*time.Second),
		ExternalMaxAttempts:    getEnvInt("EXTERNAL_MAX_ATTEMPTS", 3),
		ExternalBackoffInitial: getEnvDuration("EXTERNAL_BACKOFF_INITIAL", 500*time.Millisecond),
		ExternalBackoffMax:     getEnvDuration("EXTERNAL_BACKOFF_MAX", 5*time.Second),
		ExternalConcurrency:    getEnvInt("EXTERNAL_CONCURRENCY", 4),

		NotifyChannel: getEnv("NOTIFY_CHANNEL", "EVENT_MATCH_CREATED"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Falling back to the in-memory store.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Match notifications will only be logged.")
	}
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		log.Println("WARNING: JWT_SECRET and JWKS_URL not configured. Requests are not authenticated.")
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not configured. Scoring explanations and negotiations will fail.")
	}

	return cfg, nil
}

// Validate checks the invariants the scorer and negotiation engine rely on.
func (c *Config) Validate() error {
	if !sumsToOne(c.ScoreEmbeddingWeight, c.ScoreSkillWeight) {
		return fmt.Errorf("SCORE_EMBEDDING_WEIGHT + SCORE_SKILL_WEIGHT must equal 1, got %.3f + %.3f",
			c.ScoreEmbeddingWeight, c.ScoreSkillWeight)
	}
	if !sumsToOne(c.NegotiationFitWeight, c.NegotiationSalaryWeight) {
		return fmt.Errorf("NEGOTIATION_FIT_WEIGHT + NEGOTIATION_SALARY_WEIGHT must equal 1, got %.3f + %.3f",
			c.NegotiationFitWeight, c.NegotiationSalaryWeight)
	}
	if c.NegotiationMaxTurns < 1 {
		return fmt.Errorf("NEGOTIATION_MAX_TURNS must be positive")
	}
	if c.ExternalMaxAttempts < 1 {
		return fmt.Errorf("EXTERNAL_MAX_ATTEMPTS must be positive")
	}
	if c.ExternalConcurrency < 1 {
		return fmt.Errorf("EXTERNAL_CONCURRENCY must be positive")
	}
	return nil
}

func sumsToOne(a, b float64) bool {
	return a >= 0 && b >= 0 && math.Abs(a+b-1) < 1e-9
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
