package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskman/models"
)

const taskColumns = "id, user_id, title, description, status, created_at"

// Tasks is the Postgres-backed TaskStore. Every query filters on
// user_id, so a task owned by someone else reads as no row at all.
type Tasks struct {
	db *pgxpool.Pool
}

func NewTasks(db *pgxpool.Pool) *Tasks {
	return &Tasks{db: db}
}

func (s *Tasks) Create(ctx context.Context, owner uuid.UUID, title, description string) (models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `INSERT INTO tasks (user_id, title, description)
		VALUES ($1, $2, $3)
		RETURNING ` + taskColumns + `;`

	return s.scanOne(s.db.QueryRow(ctx, stmt, owner, title, description), "insert task")
}

func (s *Tasks) ByID(ctx context.Context, owner uuid.UUID, id int64) (models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2;`

	return s.scanOne(s.db.QueryRow(ctx, stmt, id, owner), "select task")
}

func (s *Tasks) List(ctx context.Context, owner uuid.UUID, f Filter) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt, args := buildListQuery(owner, f)
	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read task rows: %w", err)
	}
	return tasks, nil
}

func (s *Tasks) Update(ctx context.Context, owner uuid.UUID, id int64, patch TaskPatch) (models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// COALESCE leaves a column untouched when its patch field is nil.
	stmt := `UPDATE tasks SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			status = COALESCE($5, status)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns + `;`

	row := s.db.QueryRow(ctx, stmt, id, owner, patch.Title, patch.Description, patch.Status)
	return s.scanOne(row, "update task")
}

func (s *Tasks) Delete(ctx context.Context, owner uuid.UUID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stmt := `DELETE FROM tasks WHERE id = $1 AND user_id = $2;`

	tag, err := s.db.Exec(ctx, stmt, id, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Tasks) scanOne(row pgx.Row, op string) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
