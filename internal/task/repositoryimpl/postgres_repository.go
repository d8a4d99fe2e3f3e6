package repositoryimpl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/kazz187/agentboard/internal/db"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/cerr"
)

var _ task.Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, task_id, title, description, status, sprint, assigned_agent_id,
	priority, tags, comments_count, attachments_count, created_at, updated_at`

func (r *PostgresRepository) Fetch(ctx context.Context, userID string) ([]task.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, dbError("query tasks", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var (
			t                          task.Task
			description, sprint, agent sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.TaskID, &t.Title, &description, &t.Status, &sprint, &agent,
			&t.Priority, pq.Array(&t.Tags), &t.CommentsCount, &t.AttachmentsCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, dbError("scan task", err)
		}
		t.Description = description.String
		t.Sprint = sprint.String
		t.AssignedAgentID = agent.String
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate tasks", err)
	}
	return tasks, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, userID string, t task.Task) (task.Task, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, `+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		userID, t.ID, t.TaskID, t.Title, db.NullString(t.Description), t.Status, db.NullString(t.Sprint),
		db.NullString(t.AssignedAgentID), t.Priority, pq.Array(tagsOrEmpty(t.Tags)), t.CommentsCount,
		t.AttachmentsCount, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return task.Task{}, dbError("insert task", err)
	}
	return t, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, t task.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET task_id = $3, title = $4, description = $5, status = $6, sprint = $7,
			assigned_agent_id = $8, priority = $9, tags = $10, comments_count = $11,
			attachments_count = $12, created_at = $13, updated_at = $14
		WHERE user_id = $1 AND id = $2`,
		userID, t.ID, t.TaskID, t.Title, db.NullString(t.Description), t.Status, db.NullString(t.Sprint),
		db.NullString(t.AssignedAgentID), t.Priority, pq.Array(tagsOrEmpty(t.Tags)), t.CommentsCount,
		t.AttachmentsCount, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return dbError("update task", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return dbError("delete task", err)
	}
	return requireOneRow(res)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("rows affected", err)
	}
	if n == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func dbError(op string, err error) error {
	return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to %s: %w", op, err))
}
