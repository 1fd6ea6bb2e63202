package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gpluscb/instant-glicko-2/pkg/logger"
)

// Strength distribution constants. Strengths live on the internal Glicko-2
// scale, where a difference of 1.0 is roughly 174 display rating points.
const (
	strengthSpread = 1.2
	drawChance     = 0.08
)

// registerPlayers registers the configured number of players and assigns
// each a hidden strength drawn from the seeded generator.
func registerPlayers(ctx context.Context, config *Config, rng *rand.Rand, stats *Stats) ([]Player, error) {
	logger.Get().Info(ctx, "registering players", logger.Int("numPlayers", config.NumPlayers))

	// Strengths are drawn up front so the draw order is deterministic
	// regardless of registration concurrency.
	strengths := make([]float64, config.NumPlayers)
	for i := range strengths {
		strengths[i] = rng.NormFloat64() * strengthSpread
	}

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/players"

	players := make([]Player, config.NumPlayers)
	var (
		registered int64
		failed     int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					id, err := registerSinglePlayer(ctx, client, url)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to register player %d: %v", i, err)
						}
						continue
					}
					players[i] = Player{ID: id, Strength: strengths[i]}
					atomic.AddInt64(&registered, 1)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < config.NumPlayers; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	if failed > 0 {
		return nil, fmt.Errorf("failed to register %d of %d players", failed, config.NumPlayers)
	}

	stats.PlayersRegistered = int(registered)
	logger.Get().Info(ctx, "registered players successfully", logger.Int("count", int(registered)))

	return players, nil
}

// registerSinglePlayer registers one player at the server defaults.
func registerSinglePlayer(ctx context.Context, client *HTTPClient, url string) (uint64, error) {
	resp, err := client.Post(ctx, url, struct{}{})
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusCreated {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var created struct {
		PlayerID uint64 `json:"player_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if created.PlayerID == 0 {
		return 0, fmt.Errorf("server returned zero player id")
	}

	return created.PlayerID, nil
}

// generateMatches builds the match list. Pairings are uniform; outcomes are
// sampled so the probability of the stronger player winning follows the
// logistic curve of the strength difference.
func generateMatches(ctx context.Context, config *Config, players []Player, rng *rand.Rand, stats *Stats) ([]Match, error) {
	logger.Get().Info(ctx, "generating matches", logger.Int("numMatches", config.NumMatches))

	if len(players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, have %d", len(players))
	}

	matches := make([]Match, 0, config.NumMatches)
	now := time.Now().UTC()

	for i := 0; i < config.NumMatches; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during match generation: %w", ctx.Err())
		default:
		}

		a := rng.Intn(len(players))
		b := rng.Intn(len(players) - 1)
		if b >= a {
			b++
		}

		matches = append(matches, Match{
			MatchID: fmt.Sprintf("sim_%d_%d", config.Seed, i),
			PlayerA: players[a].ID,
			PlayerB: players[b].ID,
			Outcome: sampleOutcome(rng, players[a].Strength, players[b].Strength),
			TS:      now.Format(time.RFC3339),
		})
	}

	stats.MatchesGenerated = len(matches)
	logger.Get().Info(ctx, "generated matches successfully", logger.Int("count", len(matches)))

	return matches, nil
}

// sampleOutcome returns the outcome from player A's perspective.
func sampleOutcome(rng *rand.Rand, strengthA, strengthB float64) string {
	if rng.Float64() < drawChance {
		return "draw"
	}

	winProbability := 1.0 / (1.0 + math.Exp(strengthB-strengthA))
	if rng.Float64() < winProbability {
		return "win"
	}
	return "loss"
}
