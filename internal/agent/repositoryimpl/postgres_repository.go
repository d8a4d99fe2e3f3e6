package repositoryimpl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/db"
	"github.com/kazz187/agentboard/pkg/cerr"
)

var _ agent.Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Fetch(ctx context.Context, userID string) ([]agent.Agent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, avatar, avatar_color, created_at
		FROM agents WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, dbError("query agents", err)
	}
	defer rows.Close()

	var agents []agent.Agent
	for rows.Next() {
		var (
			a                                agent.Agent
			description, avatar, avatarColor sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &description, &avatar, &avatarColor, &a.CreatedAt); err != nil {
			return nil, dbError("scan agent", err)
		}
		a.Description = description.String
		a.Avatar = avatar.String
		a.AvatarColor = avatarColor.String
		agents = append(agents, a.WithDefaults())
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate agents", err)
	}
	return agents, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, userID string, a agent.Agent) (agent.Agent, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (id, user_id, name, description, avatar, avatar_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, userID, a.Name, db.NullString(a.Description), db.NullString(a.Avatar),
		db.NullString(a.AvatarColor), a.CreatedAt)
	if err != nil {
		return agent.Agent{}, dbError("insert agent", err)
	}
	return a.WithDefaults(), nil
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, a agent.Agent) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE agents SET name = $3, description = $4, avatar = $5, avatar_color = $6
		WHERE user_id = $1 AND id = $2`,
		userID, a.ID, a.Name, db.NullString(a.Description), db.NullString(a.Avatar), db.NullString(a.AvatarColor))
	if err != nil {
		return dbError("update agent", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agents WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return dbError("delete agent", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("rows affected", err)
	}
	if n == 0 {
		return cerr.NewError(cerr.NotFound, "agent not found", nil)
	}
	return nil
}

func dbError(op string, err error) error {
	return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to %s: %w", op, err))
}
