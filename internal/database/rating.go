package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/bloodrecall/internal/models"
)

// CommitRatedResult stores the post-match ratings of both users and logs the
// change in the ratings table. before and after are indexed [winner, loser].
func CommitRatedResult(ctx context.Context, matchID uuid.UUID, before, after [2]models.User) error {
	if DB == nil {
		return ErrNotConnected
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for i := range after {
			u := after[i]
			if _, err := tx.Exec(ctx,
				`UPDATE users SET rating=$1, rating_deviation=$2, volatility=$3 WHERE id=$4`,
				u.Rating, u.RatingDeviation, u.Volatility, u.ID,
			); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO ratings (user_id, match_id, old_rating, new_rating)
			VALUES ($1, $2, $3, $4), ($5, $6, $7, $8)
			ON CONFLICT (user_id, match_id) DO NOTHING
		`,
			after[0].ID, matchID, before[0].Rating, after[0].Rating,
			after[1].ID, matchID, before[1].Rating, after[1].Rating,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to commit rated result: %w", err)
	}
	return nil
}
