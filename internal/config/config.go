package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Feeds        domain.FeedURLs
	FetchTimeout time.Duration

	// Scheduling.
	Schedule       string
	CollectOnStart bool

	// Kafka sink. Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// KafkaEnabled reports whether snapshots are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	collectOnStart, err := strconv.ParseBool(sharedcfg.EnvOrDefault("COLLECT_ON_START", "true"))
	if err != nil {
		return nil, errors.New("invalid COLLECT_ON_START")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Feeds: domain.FeedURLs{
			Lookup:    sharedcfg.EnvOrDefault("FEED_LOOKUP_URL", domain.DefaultLookupURL),
			Confirmed: sharedcfg.EnvOrDefault("FEED_CONFIRMED_URL", domain.DefaultConfirmedURL),
			Deaths:    sharedcfg.EnvOrDefault("FEED_DEATHS_URL", domain.DefaultDeathsURL),
			Recovered: sharedcfg.EnvOrDefault("FEED_RECOVERED_URL", domain.DefaultRecoveredURL),
		},
		FetchTimeout:    fetchTimeout,
		Schedule:        sharedcfg.EnvOrDefault("COLLECT_SCHEDULE", "@every 6h"),
		CollectOnStart:  collectOnStart,
		KafkaBrokers:    brokers,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "covid-region-metrics"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	for _, f := range domain.Feeds {
		if cfg.Feeds.URL(f) == "" {
			return nil, fmt.Errorf("feed URL for %s is required", f)
		}
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid COLLECT_SCHEDULE: %w", err)
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}
