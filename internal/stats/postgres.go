// internal/stats/postgres.go
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

// PostgresRecorder writes results to a game_results table. The primary key
// (lobby_id, player_id) plus ON CONFLICT DO NOTHING gives at-most-once
// semantics per player per lobby.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// EnsureSchema creates the results table if missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	q := `
		CREATE TABLE IF NOT EXISTS game_results (
			lobby_id        TEXT NOT NULL,
			player_id       TEXT NOT NULL,
			won             BOOLEAN NOT NULL,
			score           INT NOT NULL,
			category        TEXT NOT NULL,
			opponent_id     TEXT,
			items_submitted INT NOT NULL DEFAULT 0,
			valid_items     INT NOT NULL DEFAULT 0,
			recorded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (lobby_id, player_id)
		)
	`
	_, err := r.pool.Exec(ctx, q)
	if err != nil {
		return fmt.Errorf("ensure game_results schema: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, lobbyID, playerID string, result models.GameResult) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO game_results (lobby_id, player_id, won, score, category, opponent_id, items_submitted, valid_items)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (lobby_id, player_id) DO NOTHING
		`
		_, e := tx.Exec(ctx, q, lobbyID, playerID, result.Won, result.Score, result.Category,
			result.OpponentID, result.ItemsSubmitted, result.ValidItems)
		return e
	})
	if err != nil {
		return fmt.Errorf("record result for %s in %s: %w", playerID, lobbyID, err)
	}
	return nil
}

func (r *PostgresRecorder) History(ctx context.Context, playerID string) ([]HistoryEntry, error) {
	q := `
		SELECT lobby_id, category, won, score, recorded_at
		FROM game_results
		WHERE player_id = $1
		ORDER BY recorded_at DESC
	`
	rows, err := r.pool.Query(ctx, q, playerID)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", playerID, err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var recordedAt time.Time
		if err := rows.Scan(&e.LobbyID, &e.Category, &e.Won, &e.Score, &recordedAt); err != nil {
			return nil, err
		}
		e.RecordedAt = recordedAt
		out = append(out, e)
	}
	return out, rows.Err()
}
