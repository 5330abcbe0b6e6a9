package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Destination strategies selectable with DESTINATION_SOURCE.
const (
	DestinationCountry = "country"
	DestinationDataset = "dataset"
)

type Config struct {
	HTTPAddr string
	LogLevel slog.Level

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	LLMModel          string
	LLMFallbackModels []string
	LLMTimeout        time.Duration

	RedditBaseURL      string
	RedditOAuthURL     string
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string
	HTTPTimeout        time.Duration

	ShareSubreddit   string
	AppPostID        string
	DefaultSubreddit string

	DestinationSource string
	PlacesDataset     string
	RandomCountryURL  string

	DatabaseURL string
	SessionTTL  time.Duration
}

// Load reads the environment, after merging an optional .env file from the
// working directory.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	c := Config{
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:           envOr("LLM_MODEL", "gpt-3.5-turbo"),
		LLMFallbackModels:  parseList(os.Getenv("LLM_FALLBACK_MODELS")),
		RedditBaseURL:      envOr("REDDIT_BASE_URL", "https://www.reddit.com"),
		RedditOAuthURL:     envOr("REDDIT_OAUTH_URL", "https://oauth.reddit.com"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUsername:     os.Getenv("REDDIT_USERNAME"),
		RedditPassword:     os.Getenv("REDDIT_PASSWORD"),
		RedditUserAgent:    envOr("REDDIT_USER_AGENT", "tripspin/1.0"),
		ShareSubreddit:     os.Getenv("SHARE_SUBREDDIT"),
		AppPostID:          os.Getenv("APP_POST_ID"),
		DefaultSubreddit:   envOr("DEFAULT_SUBREDDIT", "solotravel"),
		DestinationSource:  strings.ToLower(envOr("DESTINATION_SOURCE", DestinationCountry)),
		PlacesDataset:      os.Getenv("PLACES_DATASET"),
		RandomCountryURL:   os.Getenv("RANDOM_COUNTRY_URL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
	}

	var err error
	if c.LLMTimeout, err = durationOr("LLM_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if c.HTTPTimeout, err = durationOr("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if c.SessionTTL, err = durationOr("SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	switch c.DestinationSource {
	case DestinationCountry, DestinationDataset:
	default:
		return Config{}, fmt.Errorf("invalid DESTINATION_SOURCE %q", c.DestinationSource)
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
