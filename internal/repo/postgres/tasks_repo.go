package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, owner_id, title, description, priority, due_date, category, tags, completed, created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		pool: pool,
		prom: prom,
	}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t        task.Task
		priority string
		due      *time.Time
	)

	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&priority,
		&due,
		&t.Category,
		&t.Tags,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}

	t.Priority = task.Priority(priority)
	if due != nil {
		d := task.DateOf(*due)
		t.DueDate = &d
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()

	return t, nil
}

func dueArg(d *task.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	t, err := t.Normalize()
	if err != nil {
		return task.Task{}, err
	}

	err = r.prom.ObserveDB("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			t.ID, t.OwnerID, t.Title, t.Description, string(t.Priority), dueArg(t.DueDate),
			t.Category, t.Tags, t.Completed, t.CreatedAt, t.UpdatedAt,
		)
		return e
	})
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		var e error
		t, e = scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}

	return t, nil
}

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderBy mirrors task.ListFilter.Compare so both stores return the same order.
func orderBy(f task.ListFilter) string {
	dir := "DESC"
	if f.SortOrder == task.SortAsc {
		dir = "ASC"
	}

	switch f.SortBy {
	case task.SortByPriority:
		return fmt.Sprintf(
			"CASE priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END %s, created_at DESC, id ASC", dir)
	case task.SortByDueDate:
		return fmt.Sprintf("due_date %s NULLS LAST, created_at DESC, id ASC", dir)
	default:
		return fmt.Sprintf("created_at %s, id ASC", dir)
	}
}

// buildListQuery translates a filter into SQL. The owner condition is always
// first, so no filter combination can widen the result past one owner.
func buildListQuery(ownerID string, f task.ListFilter) (string, []any) {
	f = f.Normalized()

	conds := []string{"owner_id = $1"}
	args := []any{ownerID}

	argsPosition := 2

	if f.Completed != nil {
		conds = append(conds, fmt.Sprintf("completed = $%d", argsPosition))
		args = append(args, *f.Completed)
		argsPosition++
	}

	if f.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *f.Category)
		argsPosition++
	}

	if f.Search != nil {
		conds = append(conds, fmt.Sprintf(
			`(title ILIKE $%[1]d ESCAPE '\' OR description ILIKE $%[1]d ESCAPE '\' OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%[1]d ESCAPE '\'))`,
			argsPosition,
		))
		args = append(args, "%"+escapeLike(*f.Search)+"%")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY ` + orderBy(f)

	return query, args
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	query, args := buildListQuery(ownerID, filter)

	output := make([]task.Task, 0)

	err := r.prom.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			output = append(output, t)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return output, nil
}

// Update merges req into the stored row inside one transaction holding the
// row lock, so concurrent readers see either the old or the new task.
func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest, now time.Time) (updated task.Task, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current task.Task
	err = r.prom.ObserveDB("tasks.update.lock", func() error {
		var e error
		current, e = scanTask(tx.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
			id, ownerID,
		))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = task.ErrNotFound
		}
		return
	}

	updated, err = current.Merge(req, now)
	if err != nil {
		return
	}

	err = r.prom.ObserveDB("tasks.update.write", func() error {
		_, e := tx.Exec(ctx, `
			UPDATE tasks
			SET title = $3,
				description = $4,
				priority = $5,
				due_date = $6,
				category = $7,
				tags = $8,
				completed = $9,
				updated_at = $10
			WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
			updated.Title, updated.Description, string(updated.Priority), dueArg(updated.DueDate),
			updated.Category, updated.Tags, updated.Completed, updated.UpdatedAt,
		)
		return e
	})
	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// SetCompleted only bumps updated_at when the flag actually changes, so a
// repeated call leaves the row exactly as it was.
func (r *TasksRepo) SetCompleted(ctx context.Context, ownerID, id string, completed bool, now time.Time) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.set_completed", func() error {
		var e error
		t, e = scanTask(r.pool.QueryRow(ctx, `
			UPDATE tasks
			SET updated_at = CASE WHEN completed = $3 THEN updated_at ELSE $4 END,
				completed = $3
			WHERE id = $1 AND owner_id = $2
			RETURNING `+taskColumns,
			id, ownerID, completed, now.UTC().Truncate(time.Microsecond),
		))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("set completed: %w", err)
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	var affected int64

	err := r.prom.ObserveDB("tasks.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	// nothing deleted: absent or someone else's
	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}
