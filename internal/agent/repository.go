package agent

import "context"

// Repository persists one user's agents. Fetch returns oldest first.
type Repository interface {
	Fetch(ctx context.Context, userID string) ([]Agent, error)
	Insert(ctx context.Context, userID string, a Agent) (Agent, error)
	Replace(ctx context.Context, userID string, a Agent) error
	Remove(ctx context.Context, userID, id string) error
}
