package repositoryimpl

import (
	"cmp"
	"context"
	"slices"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/collection"
	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

// StorageKey is the blob name of the agent collection.
const StorageKey = "kanban_coding_agents_agents"

var _ agent.Repository = (*BlobRepository)(nil)

type BlobRepository struct {
	agents *collection.Collection[agent.Agent]
}

func NewBlobRepository(s storage.Storage) *BlobRepository {
	return &BlobRepository{agents: collection.New[agent.Agent](s, StorageKey, "agent")}
}

func (r *BlobRepository) Fetch(ctx context.Context, userID string) ([]agent.Agent, error) {
	agents, err := r.agents.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(agents, func(a, b agent.Agent) int {
		return cmp.Compare(a.CreatedAt.UnixMilli(), b.CreatedAt.UnixMilli())
	})
	for i := range agents {
		agents[i] = agents[i].WithDefaults()
	}
	return agents, nil
}

func (r *BlobRepository) Insert(ctx context.Context, userID string, a agent.Agent) (agent.Agent, error) {
	err := r.agents.Mutate(ctx, userID, func(agents []agent.Agent) ([]agent.Agent, error) {
		if slices.ContainsFunc(agents, func(e agent.Agent) bool { return e.ID == a.ID }) {
			return nil, cerr.NewError(cerr.AlreadyExists, "agent already exists", nil)
		}
		return append(agents, a), nil
	})
	if err != nil {
		return agent.Agent{}, err
	}
	return a.WithDefaults(), nil
}

func (r *BlobRepository) Replace(ctx context.Context, userID string, a agent.Agent) error {
	return r.agents.Mutate(ctx, userID, func(agents []agent.Agent) ([]agent.Agent, error) {
		i := slices.IndexFunc(agents, func(e agent.Agent) bool { return e.ID == a.ID })
		if i < 0 {
			return nil, r.agents.NotFound()
		}
		agents[i] = a
		return agents, nil
	})
}

func (r *BlobRepository) Remove(ctx context.Context, userID, id string) error {
	return r.agents.Mutate(ctx, userID, func(agents []agent.Agent) ([]agent.Agent, error) {
		i := slices.IndexFunc(agents, func(e agent.Agent) bool { return e.ID == id })
		if i < 0 {
			return nil, r.agents.NotFound()
		}
		return slices.Delete(agents, i, i+1), nil
	})
}
