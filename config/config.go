// Package config loads engine configuration from the environment.
// A .env file is honored when present (loaded by the CLI entrypoint).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Fetch modes for the page fetcher.
const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// Config holds every runtime knob for the engine.
type Config struct {
	Port           string
	AllowedOrigins string
	DataDir        string

	// BaselineURL is the reference site all competitors are compared against.
	BaselineURL string

	MaxDepth        int
	MaxPages        int
	Concurrency     int
	PageTimeout     time.Duration
	PipelineTimeout time.Duration
	CacheTTL        time.Duration

	// FetchMode selects the page fetcher: "browser" renders client-side
	// script with headless Chrome, "http" does a plain GET.
	FetchMode string

	RateLimitPerMin int
	RateLimitBurst  int

	GeminiAPIKey string
	GeminiModel  string

	// Keywords are the tokens checked by the keyword-in-URL rule.
	Keywords []string

	LogLevel  string
	LogPretty bool

	// Operator-supplied authority metrics. The crawler cannot observe
	// these, so they stay unset (nil) unless configured.
	DomainAgeYears   *float64
	DomainAuthority  *float64
	TotalBacklinks   *float64
	ReferringDomains *float64
	OrganicKeywords  *float64
	TrustSignals     *float64
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		DataDir:        getEnv("DATA_DIR", "./data"),

		BaselineURL: getEnv("BASELINE_URL", "https://www.bajajlifeinsurance.com/"),

		MaxDepth:        getEnvInt("MAX_CRAWL_DEPTH", 3),
		MaxPages:        getEnvInt("MAX_PAGES", 25),
		Concurrency:     getEnvInt("CRAWL_CONCURRENCY", 4),
		PageTimeout:     getEnvDuration("PAGE_TIMEOUT", 25*time.Second),
		PipelineTimeout: getEnvDuration("PIPELINE_TIMEOUT", 180*time.Second),
		CacheTTL:        getEnvDuration("CACHE_TTL", 15*time.Minute),

		FetchMode: getEnv("FETCH_MODE", FetchModeBrowser),

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 30),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		Keywords: getEnvList("SEO_KEYWORDS", "insurance,life,plan,policy"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),

		DomainAgeYears:   getEnvFloat("EST_DOMAIN_AGE_YEARS"),
		DomainAuthority:  getEnvFloat("EST_DOMAIN_AUTHORITY"),
		TotalBacklinks:   getEnvFloat("EST_TOTAL_BACKLINKS"),
		ReferringDomains: getEnvFloat("EST_REFERRING_DOMAINS"),
		OrganicKeywords:  getEnvFloat("EST_ORGANIC_KEYWORDS"),
		TrustSignals:     getEnvFloat("EST_DOMAIN_TRUST_SIGNALS"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvDuration accepts either a Go duration string ("90s", "3m") or a
// bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvFloat(key string) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func getEnvList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
