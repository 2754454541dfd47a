package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cuongbtq/swayam-be/internal/domain"
	"github.com/jmoiron/sqlx"
)

const userColumns = `
	user_id, name, email, phone, role, verified,
	completed_jobs, rating, total_ratings, safety_score, created_at`

// CreateUser inserts a profile. It returns ErrDuplicate when the email is
// already registered for the same role.
func (s *Storage) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `
		) VALUES (
			:user_id, :name, :email, :phone, :role, :verified,
			:completed_jobs, :rating, :total_ratings, :safety_score, :created_at
		)
		ON CONFLICT (email, role) DO NOTHING
	`

	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicate
	}

	return nil
}

// FindUser retrieves a user by ID. A non-empty role must also match.
func (s *Storage) FindUser(ctx context.Context, userID, role string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	args := []interface{}{userID}

	if role != "" {
		query += " AND role = ?"
		args = append(args, role)
	}

	var user domain.User
	if err := s.db.GetContext(ctx, &user, s.rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// FindUserByEmail retrieves a user by email and role
func (s *Storage) FindUserByEmail(ctx context.Context, email, role string) (*domain.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ? AND role = ?`)

	var user domain.User
	if err := s.db.GetContext(ctx, &user, query, email, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// CreateRating stores a rating and folds it into the ratee's running
// average in one transaction. A second rating of the same job by the same
// rater returns ErrDuplicate.
func (s *Storage) CreateRating(ctx context.Context, rating *domain.Rating) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO ratings (
				rating_id, job_id, rater_id, ratee_id, score, review, created_at
			) VALUES (
				:rating_id, :job_id, :rater_id, :ratee_id, :score, :review, :created_at
			)
			ON CONFLICT (job_id, rater_id) DO NOTHING
		`

		result, err := tx.NamedExecContext(ctx, insert, rating)
		if err != nil {
			return fmt.Errorf("failed to insert rating: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrDuplicate
		}

		update := tx.Rebind(`
			UPDATE users
			SET rating = (COALESCE(rating, 0) * total_ratings + ?) / (total_ratings + 1),
			    total_ratings = total_ratings + 1
			WHERE user_id = ?
		`)

		result, err = tx.ExecContext(ctx, update, float64(rating.Score), rating.RateeID)
		if err != nil {
			return fmt.Errorf("failed to update user rating: %w", err)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// ListRatingsForUser lists ratings received by a user, newest first
func (s *Storage) ListRatingsForUser(ctx context.Context, userID string) ([]domain.Rating, error) {
	query := s.rebind(`
		SELECT rating_id, job_id, rater_id, ratee_id, score, review, created_at
		FROM ratings
		WHERE ratee_id = ?
		ORDER BY created_at DESC, rating_id DESC
	`)

	ratings := []domain.Rating{}
	if err := s.db.SelectContext(ctx, &ratings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	return ratings, nil
}
