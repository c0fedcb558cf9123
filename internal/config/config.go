// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	ReleaseFeeds  []string
	CheckInterval time.Duration

	AutoApproveThreshold float64
	AutoTrackSequels     bool
	AvoidRepacks         bool

	ClassifierURL     string
	ClassifierTimeout time.Duration

	ResolverURL         string
	ResolverTimeout     time.Duration
	ResolverConcurrency int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	var feeds []string
	for _, s := range strings.Split(os.Getenv("RELEASE_FEEDS"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			feeds = append(feeds, s)
		}
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("RELEASE_FEEDS is required")
	}

	checkMinutes, err := intEnv("CHECK_INTERVAL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if checkMinutes < 1 || checkMinutes > 1440 {
		return nil, fmt.Errorf("CHECK_INTERVAL_MINUTES must be between 1 and 1440")
	}

	threshold, err := floatEnv("AUTO_APPROVE_THRESHOLD", 0.85)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("AUTO_APPROVE_THRESHOLD must be in (0,1]")
	}

	classifierTimeout, err := intEnv("CLASSIFIER_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	resolverTimeout, err := intEnv("RESOLVER_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	resolverConcurrency, err := intEnv("RESOLVER_CONCURRENCY", 5)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken:     token,
		DatabasePath:         dbPath,
		LogLevel:             logLevel,
		AllowedUsers:         allowedUsers,
		ReleaseFeeds:         feeds,
		CheckInterval:        time.Duration(checkMinutes) * time.Minute,
		AutoApproveThreshold: threshold,
		AutoTrackSequels:     os.Getenv("AUTO_TRACK_SEQUELS") == "true",
		AvoidRepacks:         os.Getenv("AVOID_REPACKS") == "true",
		ClassifierURL:        os.Getenv("CLASSIFIER_URL"),
		ClassifierTimeout:    time.Duration(classifierTimeout) * time.Second,
		ResolverURL:          os.Getenv("RESOLVER_URL"),
		ResolverTimeout:      time.Duration(resolverTimeout) * time.Second,
		ResolverConcurrency:  resolverConcurrency,
	}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
