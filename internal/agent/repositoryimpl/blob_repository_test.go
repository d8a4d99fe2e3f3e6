package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

func TestBlobRepository(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewBlobRepository(s)

	newer := agent.Agent{ID: "b", Name: "Bob Builder", CreatedAt: time.UnixMilli(2000)}
	older := agent.Agent{ID: "a", Name: "Jane Doe", CreatedAt: time.UnixMilli(1000)}
	got, err := repo.Insert(ctx, "u1", newer)
	require.NoError(t, err)
	assert.Equal(t, "BB", got.Avatar)
	_, err = repo.Insert(ctx, "u1", older)
	require.NoError(t, err)

	agents, err := repo.Fetch(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "a", agents[0].ID, "oldest first")
	assert.Equal(t, "JD", agents[0].Avatar)

	older.Name = "Jane Smith"
	require.NoError(t, repo.Replace(ctx, "u1", older))
	require.NoError(t, repo.Remove(ctx, "u1", "b"))

	agents, err = repo.Fetch(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Jane Smith", agents[0].Name)

	err = repo.Remove(ctx, "u1", "missing")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	data, err := s.Read(ctx, "users/u1/kanban_coding_agents_agents.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"Jane Smith"`)
}
