package simulation

import "time"

// Config holds configuration for the match simulation.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumPlayers int           // Number of players to register
	NumMatches int           // Number of matches to generate
	TopN       int           // Number of top entries to fetch
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Seed for the match generator
	LogFile    string        // Log file for simulation output
	Verbose    bool          // Enable verbose logging
}

// Player pairs a registered player id with the hidden strength used to
// simulate outcomes.
type Player struct {
	ID       uint64
	Strength float64
}

// Match represents a match to be submitted.
type Match struct {
	MatchID string `json:"match_id"`
	PlayerA uint64 `json:"player_a"`
	PlayerB uint64 `json:"player_b"`
	Outcome string `json:"outcome"`
	TS      string `json:"ts"`
}

// RatingEntry represents a player rating response.
type RatingEntry struct {
	PlayerID   uint64  `json:"player_id"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerID   uint64  `json:"player_id"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// AckResponse represents the response from match submission.
type AckResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds simulation statistics.
type Stats struct {
	PlayersRegistered  int
	MatchesGenerated   int
	MatchesSubmitted   int
	MatchesAccepted    int
	MatchesDuplicate   int
	MatchesFailed      int
	RatingsRetrieved   int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
