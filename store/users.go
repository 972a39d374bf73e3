package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskman/models"
)

// Users is the Postgres-backed UserStore.
type Users struct {
	db *pgxpool.Pool
}

func NewUsers(db *pgxpool.Pool) *Users {
	return &Users{db: db}
}

func (s *Users) Create(ctx context.Context, name, email string, passwordHash []byte) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id;`

	u := models.User{Name: name, Email: email, PasswordHash: passwordHash}
	err := s.db.QueryRow(ctx, stmt, name, email, passwordHash).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is unique_violation, here only possible on email.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Users) ByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `SELECT id, name, email, password_hash FROM users WHERE email = $1;`

	var u models.User
	err := s.db.QueryRow(ctx, stmt, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

func (s *Users) ByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `SELECT id, name, email, password_hash FROM users WHERE id = $1;`

	var u models.User
	err := s.db.QueryRow(ctx, stmt, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return u, nil
}

func (s *Users) EmailInUse(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1);`

	var exists bool
	if err := s.db.QueryRow(ctx, stmt, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (s *Users) UpdatePassword(ctx context.Context, email string, passwordHash []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `UPDATE users SET password_hash = $1 WHERE email = $2;`

	tag, err := s.db.Exec(ctx, stmt, passwordHash, email)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
