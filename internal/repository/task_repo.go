package repository

import (
	"context"
	"errors"
	"fmt"

	"taskora/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const taskColumns = `id::text, title, description, status, created_at, updated_at`

// TaskRepository stores tasks in Postgres. See migrations/001_create_tasks.sql.
type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *TaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return res, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

// TitleTaken reports whether a task other than excludeID already uses titleKey.
func (r *TaskRepository) TitleTaken(ctx context.Context, titleKey, excludeID string) (bool, error) {
	var taken bool
	var err error
	if _, perr := uuid.Parse(excludeID); perr != nil {
		err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE title_key = $1)`, titleKey).Scan(&taken)
	} else {
		err = r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tasks WHERE title_key = $1 AND id <> $2)`,
			titleKey, excludeID,
		).Scan(&taken)
	}
	if err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return taken, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	t.ID = uuid.NewString()
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, title, title_key, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Title, domain.TitleKey(t.Title), t.Description, t.Status.String(), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		t.ID = ""
		return mapWriteErr("insert task", err)
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}

	var title, titleKey, status *string
	if patch.Title != nil {
		key := domain.TitleKey(*patch.Title)
		title, titleKey = patch.Title, &key
	}
	if patch.Status != nil {
		s := patch.Status.String()
		status = &s
	}

	t, err := scanTask(r.db.QueryRow(ctx,
		`UPDATE tasks SET
			title       = COALESCE($2, title),
			title_key   = COALESCE($3, title_key),
			description = COALESCE($4, description),
			status      = COALESCE($5, status),
			updated_at  = $6
		 WHERE id = $1
		 RETURNING `+taskColumns,
		id, title, titleKey, patch.Description, status, patch.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, mapWriteErr("update task", err)
	}
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrTaskNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var status string
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	s, perr := domain.ParseStatus(status)
	if perr != nil {
		return nil, fmt.Errorf("task %s has unknown status %q", t.ID, status)
	}
	t.Status = s
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrDuplicateTitle
	}
	return fmt.Errorf("%s: %w", op, err)
}
