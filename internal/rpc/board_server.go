package rpc

import (
	"context"

	"connectrpc.com/connect"

	"github.com/kazz187/agentboard/internal/board"
	"github.com/kazz187/agentboard/internal/eventbus"
	"github.com/kazz187/agentboard/internal/session"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
)

var _ agentboardv1.BoardServiceHandler = (*BoardServer)(nil)

type BoardServer struct {
	sessions *session.Manager
	eventBus *eventbus.Bus
}

func NewBoardServer(sessions *session.Manager, eventBus *eventbus.Bus) *BoardServer {
	return &BoardServer{sessions: sessions, eventBus: eventBus}
}

func (s *BoardServer) GetBoard(ctx context.Context, req *connect.Request[agentboardv1.GetBoardRequest]) (*connect.Response[agentboardv1.GetBoardResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	view, err := sess.Board(ctx, board.ParseSprintFilter(req.Msg.Sprint))
	if err != nil {
		return nil, err
	}
	res := boardResponse(view)
	res.Loaded = sess.Loaded()
	return connect.NewResponse(res), nil
}

func boardResponse(view board.View) *agentboardv1.GetBoardResponse {
	res := &agentboardv1.GetBoardResponse{
		Columns:             make([]agentboardv1.BoardColumn, 0, len(view.Columns)),
		Agents:              view.Agents,
		SprintOptions:       view.SprintOptions,
		HasUnassignedSprint: view.HasUnassignedSprint,
	}
	for _, c := range view.Columns {
		col := agentboardv1.BoardColumn{Status: c.Status, Title: c.Title, Tasks: make([]task.Task, 0, len(c.Cards))}
		for _, card := range c.Cards {
			col.Tasks = append(col.Tasks, card.Task)
		}
		res.Columns = append(res.Columns, col)
	}
	return res
}

// WatchBoard streams the caller's board events until the client goes away.
func (s *BoardServer) WatchBoard(ctx context.Context, req *connect.Request[agentboardv1.WatchBoardRequest], stream *connect.ServerStream[agentboardv1.BoardEvent]) error {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return err
	}
	subID, ch := s.eventBus.Subscribe(64)
	defer s.eventBus.Unsubscribe(subID)
	// Flush headers so the client knows the subscription is live.
	if err := stream.Send(nil); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if event.UserID != sess.UserID {
				continue
			}
			if err := stream.Send(&agentboardv1.BoardEvent{
				ID:         event.ID,
				Type:       string(event.Type),
				ResourceID: event.ResourceID,
				CreatedAt:  event.CreatedAt,
			}); err != nil {
				return err
			}
		}
	}
}
