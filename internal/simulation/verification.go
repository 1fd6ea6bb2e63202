package simulation

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults checks the retrieved ratings and leaderboard for
// consistency, and compares the rating order against the hidden strengths.
func verifyResults(ctx context.Context, config *Config, players []Player, ratings []RatingEntry, leaderboard []Entry) error {
	log.Println("🔍 Verifying results...")

	if len(ratings) == 0 {
		return fmt.Errorf("no ratings to verify")
	}

	// Sort ratings descending to get the observed order
	sortedRatings := make([]RatingEntry, len(ratings))
	copy(sortedRatings, ratings)
	sort.Slice(sortedRatings, func(i, j int) bool {
		return sortedRatings[i].Rating > sortedRatings[j].Rating
	})

	// Verify leaderboard consistency if we have leaderboard data
	if len(leaderboard) > 0 {
		if err := verifyLeaderboardConsistency(sortedRatings, leaderboard); err != nil {
			log.Printf("⚠️  Leaderboard consistency warning: %v", err)
		} else {
			log.Println("✅ Leaderboard consistency verified")
		}
	}

	// Compare the rating order against the hidden strength order
	reportStrengthAgreement(players, ratings)

	// Display top players
	displayTopPlayers(sortedRatings, leaderboard, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyLeaderboardConsistency checks if the leaderboard matches the
// individually retrieved ratings.
func verifyLeaderboardConsistency(sortedRatings []RatingEntry, leaderboard []Entry) error {
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}

	// The top leaderboard entry should match the highest retrieved rating.
	// Ratings keep moving while matches are in flight, so allow a small gap.
	const ratingSlack = 1.0
	topRating := sortedRatings[0]
	topLeaderboard := leaderboard[0]

	if topLeaderboard.Rating < topRating.Rating-ratingSlack {
		return fmt.Errorf("top leaderboard rating (%.3f) is below top retrieved rating (%.3f)",
			topLeaderboard.Rating, topRating.Rating)
	}

	// Check if leaderboard is properly sorted
	for i := 1; i < len(leaderboard); i++ {
		if leaderboard[i].Rating > leaderboard[i-1].Rating {
			return fmt.Errorf("leaderboard not properly sorted: entry %d has higher rating than entry %d",
				i, i-1)
		}
		if leaderboard[i].Rank != leaderboard[i-1].Rank+1 {
			return fmt.Errorf("leaderboard ranks not contiguous at entry %d", i)
		}
	}

	return nil
}

// reportStrengthAgreement measures how often the pairwise rating order
// agrees with the hidden strength order. With enough matches per player this
// should be well above chance.
func reportStrengthAgreement(players []Player, ratings []RatingEntry) {
	strengthByID := make(map[uint64]float64, len(players))
	for _, p := range players {
		strengthByID[p.ID] = p.Strength
	}

	agree, total := 0, 0
	for i := 0; i < len(ratings); i++ {
		for j := i + 1; j < len(ratings); j++ {
			si, oki := strengthByID[ratings[i].PlayerID]
			sj, okj := strengthByID[ratings[j].PlayerID]
			if !oki || !okj || si == sj {
				continue
			}
			total++
			if (ratings[i].Rating > ratings[j].Rating) == (si > sj) {
				agree++
			}
		}
	}

	if total == 0 {
		log.Println("⚠️  Not enough data to compare ratings against strengths")
		return
	}

	agreement := float64(agree) / float64(total) * 100
	log.Printf("📈 Rating/strength pairwise agreement: %.1f%% (%d of %d pairs)", agreement, agree, total)
}

// displayTopPlayers shows the top players from ratings and leaderboard.
func displayTopPlayers(sortedRatings []RatingEntry, leaderboard []Entry, verbose bool) {
	topN := 10
	if len(sortedRatings) < topN {
		topN = len(sortedRatings)
	}

	log.Printf("🏆 Top %d players from ratings:", topN)
	for i := 0; i < topN; i++ {
		entry := sortedRatings[i]
		log.Printf("   %d. player %d - Rating: %.1f ± %.1f", i+1, entry.PlayerID, entry.Rating, entry.Deviation)
	}

	if len(leaderboard) > 0 {
		leaderboardTopN := topN
		if len(leaderboard) < leaderboardTopN {
			leaderboardTopN = len(leaderboard)
		}

		log.Printf("🥇 Top %d players from leaderboard:", leaderboardTopN)
		for i := 0; i < leaderboardTopN; i++ {
			entry := leaderboard[i]
			log.Printf("   %d. player %d - Rating: %.1f ± %.1f", entry.Rank, entry.PlayerID, entry.Rating, entry.Deviation)
		}
	}

	if verbose {
		// Show some statistics
		if len(sortedRatings) > 0 {
			avgRating := calculateAverageRating(sortedRatings)
			maxRating := sortedRatings[0].Rating
			minRating := sortedRatings[len(sortedRatings)-1].Rating

			log.Printf(`📊 Rating statistics:
   Average: %.1f
   Maximum: %.1f
   Minimum: %.1f
`, avgRating, maxRating, minRating)
		}
	}
}

// calculateAverageRating calculates the average rating.
func calculateAverageRating(ratings []RatingEntry) float64 {
	if len(ratings) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range ratings {
		sum += entry.Rating
	}

	return sum / float64(len(ratings))
}
