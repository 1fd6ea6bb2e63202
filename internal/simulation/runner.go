package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/gpluscb/instant-glicko-2/pkg/logger"
)

// Drain polling constants.
const (
	drainPollInterval = 500 * time.Millisecond
	drainTimeout      = 5 * time.Minute
	drainSettleDelay  = 2 * time.Second
)

// Run executes the complete match simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting match simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("matches", config.NumMatches),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Any("seed", config.Seed),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	rng := rand.New(rand.NewSource(config.Seed))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register players
	players, err := registerPlayers(ctx, config, rng, stats)
	if err != nil {
		return fmt.Errorf("player registration failed: %w", err)
	}

	// Step 3: Generate matches
	matches, err := generateMatches(ctx, config, players, rng, stats)
	if err != nil {
		return fmt.Errorf("match generation failed: %w", err)
	}

	// Step 4: Submit matches concurrently
	if err := submitMatches(ctx, config, matches, stats); err != nil {
		return fmt.Errorf("match submission failed: %w", err)
	}

	// Step 5: Wait for the queue to drain
	if err := waitForDrain(ctx, config); err != nil {
		return fmt.Errorf("waiting for processing failed: %w", err)
	}

	// Step 6: Retrieve ratings concurrently
	ratings, err := retrieveRatings(ctx, config, players, stats)
	if err != nil {
		return fmt.Errorf("rating retrieval failed: %w", err)
	}

	// Step 7: Get leaderboard
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 8: Verify results
	if err := verifyResults(ctx, config, players, ratings, leaderboard); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls /stats until the match queue reports empty, then waits
// a short settle delay for in-flight matches to land.
func waitForDrain(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "waiting for the match queue to drain")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/stats"
	deadline := time.Now().Add(drainTimeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while draining: %w", ctx.Err())
		case <-time.After(drainPollInterval):
		}

		length, err := queueLength(ctx, client, url)
		if err != nil {
			logger.Get().Warn(ctx, "stats poll failed", logger.Error(err))
			continue
		}
		if length == 0 {
			time.Sleep(drainSettleDelay)
			logger.Get().Info(ctx, "match queue drained")
			return nil
		}
		if config.Verbose {
			logger.Get().Info(ctx, "queue still draining", logger.Int("queueLength", length))
		}
	}

	return fmt.Errorf("queue did not drain within %s", drainTimeout)
}

// queueLength reads the queueLength field from /stats.
func queueLength(ctx context.Context, client *HTTPClient, url string) (int, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var stats struct {
		QueueLength int `json:"queueLength"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return stats.QueueLength, nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, matchesPerSecond float64

	if stats.MatchesSubmitted > 0 {
		successRate = float64(stats.MatchesAccepted) / float64(stats.MatchesSubmitted) * 100
	}

	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playersRegistered", stats.PlayersRegistered),
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("matchesSubmitted", stats.MatchesSubmitted),
		logger.Int("matchesAccepted", stats.MatchesAccepted),
		logger.Int("matchesDuplicate", stats.MatchesDuplicate),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("ratingsRetrieved", stats.RatingsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}
