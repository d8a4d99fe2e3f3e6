package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentboard/internal/agent"
	agentrepo "github.com/kazz187/agentboard/internal/agent/repositoryimpl"
	"github.com/kazz187/agentboard/internal/board"
	"github.com/kazz187/agentboard/internal/eventbus"
	"github.com/kazz187/agentboard/internal/store"
	"github.com/kazz187/agentboard/internal/task"
	taskrepo "github.com/kazz187/agentboard/internal/task/repositoryimpl"
	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

var now = time.UnixMilli(1_700_000_000_000)

type flakyTasks struct {
	*taskrepo.BlobRepository
	failReplace   bool
	fetchFailures int
}

func (r *flakyTasks) Fetch(ctx context.Context, userID string) ([]task.Task, error) {
	if r.fetchFailures > 0 {
		r.fetchFailures--
		return nil, cerr.NewError(cerr.Internal, "server error", errors.New("connection reset"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.BlobRepository.Fetch(ctx, userID)
}

func (r *flakyTasks) Replace(ctx context.Context, userID string, t task.Task) error {
	if r.failReplace {
		return cerr.NewError(cerr.Internal, "server error", errors.New("disk full"))
	}
	return r.BlobRepository.Replace(ctx, userID, t)
}

func newManager(t *testing.T) (*Manager, *flakyTasks, *eventbus.Bus) {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	tasks := &flakyTasks{BlobRepository: taskrepo.NewBlobRepository(s)}
	bus := eventbus.New()
	seq := 0
	m := NewManager(tasks, agentrepo.NewBlobRepository(s), bus, time.Hour,
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%02d", seq)
		}),
	)
	return m, tasks, bus
}

func TestSession_CreateTasks(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	s := m.Get("u1")

	first, err := s.CreateTask(ctx, board.Draft{Title: "Fix login bug", Priority: 4, Tags: "bug, urgent"})
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", first.TaskID)
	assert.Equal(t, task.StatusBacklog, first.Status)
	assert.Equal(t, []string{"bug", "urgent"}, first.Tags)
	assert.Equal(t, 0, first.CommentsCount)

	second, err := s.CreateTask(ctx, board.Draft{Title: "Write docs"})
	require.NoError(t, err)
	assert.Equal(t, "TASK-2", second.TaskID)

	// The gap left by TASK-1 is not refilled.
	require.NoError(t, s.DeleteTask(ctx, first.ID))
	third, err := s.CreateTask(ctx, board.Draft{Title: "Another"})
	require.NoError(t, err)
	assert.Equal(t, "TASK-3", third.TaskID)

	_, err = s.CreateTask(ctx, board.Draft{Title: " "})
	assert.ErrorIs(t, err, board.ErrTitleRequired)
	assert.Len(t, s.Tasks.Items(), 2)
}

func TestSession_MoveTask(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	s := m.Get("u1")
	created, err := s.CreateTask(ctx, board.Draft{Title: "x"})
	require.NoError(t, err)

	_, moved, err := s.MoveTask(ctx, created.ID, board.Prev)
	require.NoError(t, err)
	assert.False(t, moved)

	got, moved, err := s.MoveTask(ctx, created.ID, board.Next)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, task.StatusInProgress, got.Status)

	_, _, err = s.MoveTask(ctx, "missing", board.Next)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestSession_CreateAgentDefaults(t *testing.T) {
	m, _, _ := newManager(t)
	a, err := m.Get("u1").CreateAgent(context.Background(), AgentDraft{Name: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, "JD", a.Avatar)
	assert.Equal(t, agent.AvatarColor("Jane Doe"), a.AvatarColor)

	_, err = m.Get("u1").CreateAgent(context.Background(), AgentDraft{Name: ""})
	assert.Equal(t, []string{"name.required"}, cerr.Violations(err))
}

func TestSession_AssignAndCascadeDelete(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	s := m.Get("u1")

	a, err := s.CreateAgent(ctx, AgentDraft{Name: "Claude"})
	require.NoError(t, err)
	t1, err := s.CreateTask(ctx, board.Draft{Title: "one"})
	require.NoError(t, err)
	t2, err := s.CreateTask(ctx, board.Draft{Title: "two"})
	require.NoError(t, err)

	_, err = s.AssignTask(ctx, t1.ID, "ghost")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	_, err = s.AssignTask(ctx, t1.ID, a.ID)
	require.NoError(t, err)
	_, err = s.AssignTask(ctx, t2.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteAgent(ctx, a.ID))
	for _, tk := range s.Tasks.Items() {
		assert.Empty(t, tk.AssignedAgentID)
	}
	assert.Empty(t, s.Agents.Items())

	// A fresh session reading the same storage sees the cleared assignments.
	m.Drop("u1")
	fresh := m.Get("u1")
	require.NoError(t, fresh.Load(ctx))
	require.Len(t, fresh.Tasks.Items(), 2)
	for _, tk := range fresh.Tasks.Items() {
		assert.Empty(t, tk.AssignedAgentID)
	}
}

func TestSession_FailedUpdateLeavesRecord(t *testing.T) {
	m, repo, _ := newManager(t)
	ctx := context.Background()
	s := m.Get("u1")
	created, err := s.CreateTask(ctx, board.Draft{Title: "stable"})
	require.NoError(t, err)

	repo.failReplace = true
	changed := created.Clone()
	changed.Title = "changed"
	_, err = s.UpdateTask(ctx, changed)
	assert.True(t, cerr.IsCode(err, cerr.Internal))

	got, ok := s.Tasks.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "stable", got.Title)
}

func TestSession_UpdateTaskValidation(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()
	s := m.Get("u1")
	created, err := s.CreateTask(ctx, board.Draft{Title: "x"})
	require.NoError(t, err)

	bad := created.Clone()
	bad.Status = "blocked"
	_, err = s.UpdateTask(ctx, bad)
	assert.Equal(t, []string{"status.in"}, cerr.Violations(err))

	bad = created.Clone()
	bad.Priority = 9
	_, err = s.UpdateTask(ctx, bad)
	assert.Equal(t, []string{"priority.range"}, cerr.Violations(err))

	good := created.Clone()
	good.TaskID = "TASK-999"
	good.Sprint = "   "
	good.Description = "more detail"
	updated, err := s.UpdateTask(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", updated.TaskID, "display id is immutable")
	assert.Empty(t, updated.Sprint)
	assert.Equal(t, "more detail", updated.Description)
}

func TestSession_Unauthenticated(t *testing.T) {
	m, _, _ := newManager(t)
	s := m.Get("")
	assert.False(t, s.Authenticated())
	assert.True(t, s.Loaded())

	v, err := s.Board(context.Background(), board.AllSprints)
	require.NoError(t, err)
	assert.Zero(t, v.Total)

	_, err = s.CreateTask(context.Background(), board.Draft{Title: "x"})
	assert.ErrorIs(t, err, store.ErrNotReady)
	assert.Zero(t, m.Len(), "anonymous sessions are not cached")
}

func TestManager_SessionsAreSharedAndInvalidated(t *testing.T) {
	m, _, bus := newManager(t)
	ctx := context.Background()
	_, events := bus.Subscribe(16)

	s := m.Get("u1")
	assert.Same(t, s, m.Get("u1"))
	assert.NotSame(t, s, m.Get("u2"))

	_, err := s.CreateTask(ctx, board.Draft{Title: "x"})
	require.NoError(t, err)
	ev := <-events
	assert.Equal(t, eventbus.TaskCreated, ev.Type)
	assert.Equal(t, "u1", ev.UserID)

	assert.True(t, m.Invalidate("u1"))
	assert.False(t, m.Invalidate("nobody"))
	assert.Equal(t, eventbus.BoardReloaded, (<-events).Type)
	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.Tasks.Items(), 1)
}

func TestSession_RecoversFromFailedFetch(t *testing.T) {
	m, tasks, _ := newManager(t)
	ctx := context.Background()
	tasks.fetchFailures = 1
	s := m.Get("u1")

	view, err := s.Board(ctx, board.AllSprints)
	require.Error(t, err)
	assert.Equal(t, store.FetchFailed, s.Tasks.State())
	assert.True(t, s.Loaded())
	for _, c := range view.Columns {
		assert.Empty(t, c.Cards)
	}

	created, err := s.CreateTask(ctx, board.Draft{Title: "Retry works"})
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", created.TaskID)
	assert.Equal(t, store.Ready, s.Tasks.State())
}

func TestSession_CancelledRequestDoesNotBlockWrites(t *testing.T) {
	m, _, _ := newManager(t)
	s := m.Get("u1")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = s.Board(cancelled, board.AllSprints)

	created, err := s.CreateTask(context.Background(), board.Draft{Title: "After a dropped page load"})
	require.NoError(t, err)
	assert.Equal(t, "TASK-1", created.TaskID)

	view, err := s.Board(context.Background(), board.AllSprints)
	require.NoError(t, err)
	assert.Len(t, view.Columns[0].Cards, 1)
}
