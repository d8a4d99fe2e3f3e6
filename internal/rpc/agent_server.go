package rpc

import (
	"context"

	"connectrpc.com/connect"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/session"
	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
)

var _ agentboardv1.AgentServiceHandler = (*AgentServer)(nil)

type AgentServer struct {
	sessions *session.Manager
}

func NewAgentServer(sessions *session.Manager) *AgentServer {
	return &AgentServer{sessions: sessions}
}

func (s *AgentServer) ListAgents(ctx context.Context, req *connect.Request[agentboardv1.ListAgentsRequest]) (*connect.Response[agentboardv1.ListAgentsResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	agents := sess.Agents.Items()
	if agents == nil {
		agents = []agent.Agent{}
	}
	return connect.NewResponse(&agentboardv1.ListAgentsResponse{Agents: agents}), nil
}

func (s *AgentServer) CreateAgent(ctx context.Context, req *connect.Request[agentboardv1.CreateAgentRequest]) (*connect.Response[agentboardv1.CreateAgentResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	a, err := sess.CreateAgent(ctx, session.AgentDraft{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		Avatar:      req.Msg.Avatar,
		AvatarColor: req.Msg.AvatarColor,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.CreateAgentResponse{Agent: a}), nil
}

func (s *AgentServer) UpdateAgent(ctx context.Context, req *connect.Request[agentboardv1.UpdateAgentRequest]) (*connect.Response[agentboardv1.UpdateAgentResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	a, err := sess.UpdateAgent(ctx, req.Msg.Agent)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.UpdateAgentResponse{Agent: a}), nil
}

// DeleteAgent also clears the agent from every task assigned to it.
func (s *AgentServer) DeleteAgent(ctx context.Context, req *connect.Request[agentboardv1.DeleteAgentRequest]) (*connect.Response[agentboardv1.DeleteAgentResponse], error) {
	sess, err := sessionFrom(ctx, s.sessions)
	if err != nil {
		return nil, err
	}
	if err := sess.DeleteAgent(ctx, req.Msg.ID); err != nil {
		return nil, err
	}
	return connect.NewResponse(&agentboardv1.DeleteAgentResponse{}), nil
}
