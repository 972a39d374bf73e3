// Package store is the persistence boundary: Postgres-backed user and
// task repositories plus a Redis-backed store for one-time password
// reset codes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskman/models"
)

var (
	// ErrNotFound is returned both when a row does not exist and when
	// it exists but belongs to another user. Callers cannot tell the
	// two apart, which keeps ownership unguessable.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already exists")
)

// Filter narrows a task listing. Search keeps tasks whose title
// contains the substring (case-sensitive). Status keeps tasks with that
// exact status. Page and PageSize drive LIMIT/OFFSET; callers are
// expected to have normalized them already.
type Filter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

// TaskPatch carries the fields of a partial update. Nil fields are
// left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
}

type UserStore interface {
	Create(ctx context.Context, name, email string, passwordHash []byte) (models.User, error)
	ByEmail(ctx context.Context, email string) (models.User, error)
	ByID(ctx context.Context, id uuid.UUID) (models.User, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, email string, passwordHash []byte) error
}

// TaskStore operations are all owner-scoped: a task id belonging to a
// different user behaves exactly like a nonexistent id.
type TaskStore interface {
	Create(ctx context.Context, owner uuid.UUID, title, description string) (models.Task, error)
	ByID(ctx context.Context, owner uuid.UUID, id int64) (models.Task, error)
	List(ctx context.Context, owner uuid.UUID, f Filter) ([]models.Task, error)
	Update(ctx context.Context, owner uuid.UUID, id int64, patch TaskPatch) (models.Task, error)
	Delete(ctx context.Context, owner uuid.UUID, id int64) error
}

// ResetStore holds one-time password-reset codes with a TTL. This is
// deliberately outside the token trust model: access/refresh tokens
// stay stateless and unrevocable.
type ResetStore interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	ConsumeCode(ctx context.Context, email, code string) (bool, error)
}
