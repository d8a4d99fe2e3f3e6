package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/pkg/cerr"
)

var _ auth.UserRepository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func (r *PostgresRepository) Create(ctx context.Context, u auth.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return cerr.NewError(cerr.AlreadyExists, "email is already registered", err)
	}
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert user: %w", err))
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (auth.User, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email))
}

func (r *PostgresRepository) scan(row *sql.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	if err != nil {
		return auth.User{}, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to query user: %w", err))
	}
	return u, nil
}
