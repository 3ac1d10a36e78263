package models

// GameResult is the per-player outcome handed to the stats recorder once a
// session ends. Recording is idempotent per (lobby, player).
type GameResult struct {
	Won            bool   `json:"won"`
	Score          int    `json:"score"`
	Category       string `json:"category"`
	OpponentID     string `json:"opponentId"`
	ItemsSubmitted int    `json:"itemsSubmitted"`
	ValidItems     int    `json:"validItems"`
}
