// Package session holds the per-user state: one task store and one agent
// store, each loaded independently.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/board"
	"github.com/kazz187/agentboard/internal/eventbus"
	"github.com/kazz187/agentboard/internal/store"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/cerr"
)

type Session struct {
	UserID string
	Tasks  *store.Store[task.Task]
	Agents *store.Store[agent.Agent]

	now   func() time.Time
	newID func() string
	// create serialises task creation so two drafts never get the same display id.
	create sync.Mutex
}

type deps struct {
	tasks  task.Repository
	agents agent.Repository
	bus    *eventbus.Bus
	now    func() time.Time
	newID  func() string
}

func newSession(userID string, d deps) *Session {
	s := &Session{UserID: userID, now: d.now, newID: d.newID}
	if userID == "" {
		s.Tasks = store.New[task.Task](nil, store.Options[task.Task]{Name: "tasks"})
		s.Agents = store.New[agent.Agent](nil, store.Options[agent.Agent]{Name: "agents"})
		s.Tasks.ResolveAuth(false)
		s.Agents.ResolveAuth(false)
		return s
	}
	s.Tasks = store.New(store.ForUser[task.Task](d.tasks, userID), store.Options[task.Task]{
		Name:     "tasks",
		Touch:    task.Touch,
		OnChange: publish[task.Task](d.bus, userID, eventbus.TaskCreated, eventbus.TaskUpdated, eventbus.TaskDeleted),
		Now:      d.now,
	})
	s.Agents = store.New(store.ForUser[agent.Agent](d.agents, userID), store.Options[agent.Agent]{
		Name:     "agents",
		OnChange: publish[agent.Agent](d.bus, userID, eventbus.AgentCreated, eventbus.AgentUpdated, eventbus.AgentDeleted),
		Now:      d.now,
	})
	s.Tasks.ResolveAuth(true)
	s.Agents.ResolveAuth(true)
	return s
}

func publish[T store.Entity](bus *eventbus.Bus, userID string, created, updated, deleted eventbus.Type) func(store.Change[T]) {
	return func(c store.Change[T]) {
		if bus == nil {
			return
		}
		t := updated
		switch c.Kind {
		case store.Created:
			t = created
		case store.Deleted:
			t = deleted
		}
		bus.PublishNew(t, userID, c.ID)
	}
}

func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Load loads both collections. A failed fetch leaves its store loaded and
// empty until the next Load retries it; the first error is returned so
// callers can report it.
func (s *Session) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Tasks.Load(ctx) })
	g.Go(func() error { return s.Agents.Load(ctx) })
	return g.Wait()
}

// Loaded is false while either collection is still resolving.
func (s *Session) Loaded() bool {
	return s.Tasks.Loaded() && s.Agents.Loaded()
}

func (s *Session) Invalidate() {
	s.Tasks.Invalidate()
	s.Agents.Invalidate()
}

// Board loads the collections if needed and builds the view. The view is
// valid even when err is not nil.
func (s *Session) Board(ctx context.Context, f board.SprintFilter) (board.View, error) {
	err := s.Load(ctx)
	return board.Build(s.Tasks.Items(), s.Agents.Items(), f), err
}

func (s *Session) CreateTask(ctx context.Context, d board.Draft) (task.Task, error) {
	if err := s.Load(ctx); err != nil {
		return task.Task{}, err
	}
	s.create.Lock()
	defer s.create.Unlock()
	t, err := board.NewTask(d, s.Tasks.Items(), s.now(), s.newID)
	if err != nil {
		return task.Task{}, err
	}
	return s.Tasks.Add(ctx, t)
}

// MoveTask reports false when the task is already in the first or last column.
func (s *Session) MoveTask(ctx context.Context, id string, dir board.Direction) (task.Task, bool, error) {
	t, err := s.task(ctx, id)
	if err != nil {
		return task.Task{}, false, err
	}
	moved, ok := board.Move(t, dir)
	if !ok {
		return t, false, nil
	}
	updated, err := s.Tasks.Update(ctx, moved)
	if err != nil {
		return task.Task{}, false, err
	}
	return updated, true, nil
}

// AssignTask assigns an existing agent, or clears the assignment when
// agentID is empty.
func (s *Session) AssignTask(ctx context.Context, id, agentID string) (task.Task, error) {
	t, err := s.task(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	if agentID != "" {
		if _, ok := s.Agents.Get(agentID); !ok {
			return task.Task{}, cerr.NewError(cerr.NotFound, "agent not found", nil)
		}
	}
	return s.Tasks.Update(ctx, board.Assign(t, agentID))
}

// UpdateTask replaces the whole record. Identity fields are kept from the
// stored record.
func (s *Session) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	current, err := s.task(ctx, t.ID)
	if err != nil {
		return task.Task{}, err
	}
	if err := validateTask(t); err != nil {
		return task.Task{}, err
	}
	t.TaskID = current.TaskID
	t.CreatedAt = current.CreatedAt
	t.Title = strings.TrimSpace(t.Title)
	t.Sprint = board.NormalizeSprint(t.Sprint)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return s.Tasks.Update(ctx, t)
}

func (s *Session) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.task(ctx, id); err != nil {
		return err
	}
	return s.Tasks.Delete(ctx, id)
}

type AgentDraft struct {
	Name        string
	Description string
	Avatar      string
	AvatarColor string
}

func (s *Session) CreateAgent(ctx context.Context, d AgentDraft) (agent.Agent, error) {
	if err := s.Load(ctx); err != nil {
		return agent.Agent{}, err
	}
	if strings.TrimSpace(d.Name) == "" {
		return agent.Agent{}, cerr.NewValidationError("name.required", "name is required")
	}
	a := agent.Agent{
		ID:          s.newID(),
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Avatar:      strings.TrimSpace(d.Avatar),
		AvatarColor: d.AvatarColor,
		CreatedAt:   s.now(),
	}.WithDefaults()
	return s.Agents.Add(ctx, a)
}

func (s *Session) UpdateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	if err := s.Load(ctx); err != nil {
		return agent.Agent{}, err
	}
	current, ok := s.Agents.Get(a.ID)
	if !ok {
		return agent.Agent{}, cerr.NewError(cerr.NotFound, "agent not found", nil)
	}
	if strings.TrimSpace(a.Name) == "" {
		return agent.Agent{}, cerr.NewValidationError("name.required", "name is required")
	}
	a.Name = strings.TrimSpace(a.Name)
	a.CreatedAt = current.CreatedAt
	return s.Agents.Update(ctx, a.WithDefaults())
}

// DeleteAgent clears the agent from every task assigned to it, then removes
// the agent. If clearing fails the agent is kept.
func (s *Session) DeleteAgent(ctx context.Context, id string) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	if _, ok := s.Agents.Get(id); !ok {
		return cerr.NewError(cerr.NotFound, "agent not found", nil)
	}
	for _, t := range board.ClearAssignments(s.Tasks.Items(), id) {
		if _, err := s.Tasks.Update(ctx, t); err != nil {
			return err
		}
	}
	return s.Agents.Delete(ctx, id)
}

func (s *Session) task(ctx context.Context, id string) (task.Task, error) {
	if err := s.Load(ctx); err != nil {
		return task.Task{}, err
	}
	t, ok := s.Tasks.Get(id)
	if !ok {
		return task.Task{}, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t.Clone(), nil
}

func validateTask(t task.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return board.ErrTitleRequired
	}
	if !t.Status.Valid() {
		return cerr.NewValidationError("status.in", "status must be one of backlog, in-progress, review, done")
	}
	if !task.ValidPriority(t.Priority) {
		return board.ErrPriorityRange
	}
	for _, tag := range t.Tags {
		if strings.TrimSpace(tag) == "" {
			return cerr.NewValidationError("tags.non_empty", "tags must not be empty")
		}
	}
	return nil
}
