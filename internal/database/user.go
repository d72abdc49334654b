package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/bloodrecall/internal/auth"
	"github.com/jason-s-yu/bloodrecall/internal/models"
	"github.com/jason-s-yu/bloodrecall/internal/rating"
)

// ErrInvalidCredentials is returned by AuthenticateUser for an unknown email
// or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const userColumns = `id, COALESCE(email, ''), password, username, is_ephemeral, is_admin,
	       rating, rating_deviation, volatility`

func CreateUser(ctx context.Context, user *models.User) error {
	if DB == nil {
		return ErrNotConnected
	}
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash
	*user = rating.InitialRating(*user)

	q := `INSERT INTO users (id, email, password, username, is_ephemeral, is_admin,
	                         rating, rating_deviation, volatility)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, nullable(user.Email), user.Password, user.Username,
			user.IsEphemeral, user.IsAdmin,
			user.Rating, user.RatingDeviation, user.Volatility,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// nullable maps "" to NULL so guests without an email don't collide on the
// unique index.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Username,
		&u.IsEphemeral, &u.IsAdmin,
		&u.Rating, &u.RatingDeviation, &u.Volatility,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if DB == nil {
		return nil, ErrNotConnected
	}
	return scanUser(DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if DB == nil {
		return nil, ErrNotConnected
	}
	return scanUser(DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// AuthenticateUser checks the credentials and returns a signed token and the
// user.
func AuthenticateUser(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := GetUserByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return "", nil, fmt.Errorf("failed to create jwt: %w", err)
	}
	user.Password = ""
	return token, user, nil
}

// SaveUserRating stores the user's rating, deviation and volatility.
func SaveUserRating(ctx context.Context, u *models.User) error {
	if DB == nil {
		return ErrNotConnected
	}
	q := `
	UPDATE users
	SET rating=$1, rating_deviation=$2, volatility=$3
	WHERE id=$4
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, u.Rating, u.RatingDeviation, u.Volatility, u.ID)
		return err
	})
}
