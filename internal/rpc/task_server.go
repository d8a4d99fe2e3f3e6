package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/kazz187/agentboard/internal/board"
	"github.com/kazz187/agentboard/internal/session"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
	"github.com/kazz187/agentboard/pkg/cerr"
)

var _ agentboardv1.TaskServiceHandler = (*TaskServer)(nil)

type TaskServer struct {
	sessions *session.Manager
}

func NewTaskServer(sessions *session.Manager) *TaskServer {
	return &TaskServer{sessions: sessions}
}

func (s *TaskServer) ListTasks(ctx context.Context, req *connect.Request[agentboardv1.ListTasksRequest]) (*connect.Response[agentboardv1.ListTasksResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	tasks := board.FilterBySprint(sess.Tasks.Items(), board.ParseSprintFilter(req.Msg.Sprint))
	if tasks == nil {
		tasks = []task.Task{}
	}
	return connect.NewResponse(&agentboardv1.ListTasksResponse{Tasks: tasks}), nil
}

func (s *TaskServer) CreateTask(ctx context.Context, req *connect.Request[agentboardv1.CreateTaskRequest]) (*connect.Response[agentboardv1.CreateTaskResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	t, err := sess.CreateTask(ctx, board.Draft{
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		Priority:    req.Msg.Priority,
		Tags:        strings.Join(req.Msg.Tags, ","),
		Sprint:      req.Msg.Sprint,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.CreateTaskResponse{Task: t}), nil
}

func (s *TaskServer) MoveTask(ctx context.Context, req *connect.Request[agentboardv1.MoveTaskRequest]) (*connect.Response[agentboardv1.MoveTaskResponse], error) {
	dir, ok := board.ParseDirection(req.Msg.Direction)
	if !ok {
		return nil, cerr.NewValidationError("direction.in", "direction must be next or prev")
	}
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	t, moved, err := sess.MoveTask(ctx, req.Msg.ID, dir)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.MoveTaskResponse{Task: t, Moved: moved}), nil
}

func (s *TaskServer) AssignTask(ctx context.Context, req *connect.Request[agentboardv1.AssignTaskRequest]) (*connect.Response[agentboardv1.AssignTaskResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	t, err := sess.AssignTask(ctx, req.Msg.ID, req.Msg.AgentID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.AssignTaskResponse{Task: t}), nil
}

func (s *TaskServer) UpdateTask(ctx context.Context, req *connect.Request[agentboardv1.UpdateTaskRequest]) (*connect.Response[agentboardv1.UpdateTaskResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	t, err := sess.UpdateTask(ctx, req.Msg.Task)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.UpdateTaskResponse{Task: t}), nil
}

func (s *TaskServer) DeleteTask(ctx context.Context, req *connect.Request[agentboardv1.DeleteTaskRequest]) (*connect.Response[agentboardv1.DeleteTaskResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if err := sess.DeleteTask(ctx, req.Msg.ID); err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.DeleteTaskResponse{}), nil
}
