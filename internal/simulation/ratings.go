package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveRatings retrieves ratings for all players concurrently.
func retrieveRatings(ctx context.Context, config *Config, players []Player, stats *Stats) ([]RatingEntry, error) {
	log.Printf("🏆 Retrieving ratings for %d players with %d workers...", len(players), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	ratings := make([]RatingEntry, len(players))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	playerChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of IDs
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for index := range playerChan {
				select {
				case <-ctx.Done():
					return
				default:
					playerID := players[index].ID
					entry, err := retrieveSingleRating(ctx, client, config.BaseURL, playerID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get rating for %d: %v", playerID, err)
						}
					} else {
						ratings[index] = entry
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						ret := atomic.LoadInt64(&retrieved)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Rating progress: %d/%d retrieved (success: %d, failed: %d)",
								total, len(players), ret, fail)
						} else {
							log.Printf("\r🏆 Ratings: %d/%d retrieved (success: %d, failed: %d)",
								total, len(players), ret, fail)
						}
					}
				}
			}
		}(i)
	}

	// Send player indices to workers
	go func() {
		defer close(playerChan)
		for i := range players {
			select {
			case <-ctx.Done():
				return
			case playerChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		log.Println() // New line after progress indicator
	}

	// Filter out empty entries (failed retrievals)
	validRatings := make([]RatingEntry, 0, len(ratings))
	for _, entry := range ratings {
		if entry.PlayerID != 0 { // Zero PlayerID indicates failed retrieval
			validRatings = append(validRatings, entry)
		}
	}

	// Update stats
	stats.RatingsRetrieved = len(validRatings)

	log.Printf(`✅ Rating retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRatings), int(atomic.LoadInt64(&failed)))

	return validRatings, nil
}

// retrieveSingleRating retrieves the rating for a single player.
func retrieveSingleRating(ctx context.Context, client *HTTPClient, baseURL string, playerID uint64) (RatingEntry, error) {
	url := fmt.Sprintf("%s/rating/%d", baseURL, playerID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return RatingEntry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return RatingEntry{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return RatingEntry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry RatingEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return RatingEntry{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return entry, nil
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("🥇 Getting top %d leaderboard entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/leaderboard?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Entry
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	log.Printf("✅ Retrieved %d leaderboard entries", len(leaderboard))

	return leaderboard, nil
}
