package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/bloodrecall/internal/cache"
)

// Match statuses stored in matches.status.
const (
	MatchInProgress = "in_progress"
	MatchCompleted  = "completed"
	MatchAbandoned  = "abandoned"
)

// MatchResult is one participant's line in match_results.
type MatchResult struct {
	PlayerID string
	Relic    string
	LifeLeft int
	DidWin   bool
}

// UpsertMatchStart records a match as in progress along with its opening
// snapshot.
func UpsertMatchStart(ctx context.Context, matchID uuid.UUID, ranked bool, initial any) error {
	if DB == nil {
		return ErrNotConnected
	}
	snap, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("failed to encode initial state: %w", err)
	}
	q := `
	INSERT INTO matches (id, status, ranked, initial_state, start_time, last_activity)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE
	SET status = EXCLUDED.status, ranked = EXCLUDED.ranked, initial_state = EXCLUDED.initial_state, last_activity = NOW()
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, matchID, MatchInProgress, ranked, snap)
		return err
	})
}

// RecordMatchResult closes a match with its final snapshot and the
// per-participant results.
func RecordMatchResult(ctx context.Context, matchID uuid.UUID, winnerID string, turns int, final any, results []MatchResult) error {
	if DB == nil {
		return ErrNotConnected
	}
	snap, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("failed to encode final state: %w", err)
	}

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE matches
			SET status=$1, final_state=$2, winner_id=$3, turns=$4, end_time=NOW(), last_activity=NOW()
			WHERE id=$5
		`, MatchCompleted, snap, winnerID, turns, matchID)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, r := range results {
			batch.Queue(`
				INSERT INTO match_results (match_id, player_id, relic, life_left, did_win)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (match_id, player_id) DO UPDATE
				SET relic=EXCLUDED.relic, life_left=EXCLUDED.life_left, did_win=EXCLUDED.did_win
			`, matchID, r.PlayerID, r.Relic, r.LifeLeft, r.DidWin)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to record match result: %w", err)
	}
	return nil
}

// InsertMatchActions writes a batch of logged actions in one transaction and
// bumps last_activity on every match touched. Replayed entries are ignored.
func InsertMatchActions(ctx context.Context, recs []cache.MatchActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if DB == nil {
		return ErrNotConnected
	}

	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		touched := make(map[uuid.UUID]time.Time)
		for _, r := range recs {
			if _, ok := touched[r.MatchID]; !ok {
				touched[r.MatchID] = time.Time{}
				// Actions can outrun the start record; a stub row keeps the foreign key satisfied.
				batch.Queue(`INSERT INTO matches (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, r.MatchID)
			}
		}
		for _, r := range recs {
			payload := r.ActionPayload
			if payload == nil {
				payload = map[string]any{}
			}
			batch.Queue(`
				INSERT INTO match_actions (match_id, action_index, actor_id, action_type, action_payload, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (match_id, action_index) DO NOTHING
			`, r.MatchID, r.ActionIndex, r.ActorID, r.ActionType, payload, time.UnixMilli(r.Timestamp))
			if ts := time.UnixMilli(r.Timestamp); ts.After(touched[r.MatchID]) {
				touched[r.MatchID] = ts
			}
		}
		for id, ts := range touched {
			batch.Queue(`UPDATE matches SET last_activity = GREATEST(last_activity, $1) WHERE id = $2`, ts, id)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// MarkAbandonedMatches flags in-progress matches with no activity since
// cutoff and returns how many were changed.
func MarkAbandonedMatches(ctx context.Context, cutoff time.Time) (int64, error) {
	if DB == nil {
		return 0, ErrNotConnected
	}
	var n int64
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE matches SET status=$1, end_time=NOW()
			WHERE status=$2 AND last_activity < $3
		`, MatchAbandoned, MatchInProgress, cutoff)
		n = tag.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark abandoned matches: %w", err)
	}
	return n, nil
}
