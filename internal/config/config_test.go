package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedHost = "https://feeds.example.com/"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultFeedURLs(), cfg.Feeds)
	assert.Equal(t, 60*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "@every 6h", cfg.Schedule)
	assert.True(t, cfg.CollectOnStart)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "covid-region-metrics", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FEED_LOOKUP_URL", testFeedHost+"lookup.csv")
	t.Setenv("FEED_CONFIRMED_URL", testFeedHost+"confirmed.csv")
	t.Setenv("FEED_DEATHS_URL", testFeedHost+"deaths.csv")
	t.Setenv("FEED_RECOVERED_URL", testFeedHost+"recovered.csv")
	t.Setenv("FETCH_TIMEOUT", "15s")
	t.Setenv("COLLECT_SCHEDULE", "0 */2 * * *")
	t.Setenv("COLLECT_ON_START", "false")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.FeedURLs{
		Lookup:    testFeedHost + "lookup.csv",
		Confirmed: testFeedHost + "confirmed.csv",
		Deaths:    testFeedHost + "deaths.csv",
		Recovered: testFeedHost + "recovered.csv",
	}, cfg.Feeds)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "0 */2 * * *", cfg.Schedule)
	assert.False(t, cfg.CollectOnStart)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_NegativeFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_InvalidSchedule(t *testing.T) {
	t.Setenv("COLLECT_SCHEDULE", "every now and then")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLLECT_SCHEDULE")
}

func TestLoad_InvalidCollectOnStart(t *testing.T) {
	t.Setenv("COLLECT_ON_START", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLLECT_ON_START")
}
