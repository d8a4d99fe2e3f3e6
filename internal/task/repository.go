package task

import "context"

// Repository persists one user's task collection. Fetch returns newest first.
type Repository interface {
	Fetch(ctx context.Context, userID string) ([]Task, error)
	Insert(ctx context.Context, userID string, t Task) (Task, error)
	Replace(ctx context.Context, userID string, t Task) error
	Remove(ctx context.Context, userID, id string) error
}
