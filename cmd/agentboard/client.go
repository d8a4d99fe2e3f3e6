package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
)

type bearerInterceptor struct {
	token string
}

func (i *bearerInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if i.token != "" {
			req.Header().Set("Authorization", "Bearer "+i.token)
		}
		return next(ctx, req)
	}
}

func (i *bearerInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if i.token != "" {
			conn.RequestHeader().Set("Authorization", "Bearer "+i.token)
		}
		return conn
	}
}

func (i *bearerInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

func newClient(cfg *cliConfig) *agentboardv1.Client {
	return agentboardv1.NewClient(http.DefaultClient, cfg.Server,
		connect.WithInterceptors(&bearerInterceptor{token: cfg.Token}))
}

// login calls the JSON auth API and returns the issued session.
func login(ctx context.Context, server, email, password string) (auth.Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return auth.Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return auth.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return auth.Session{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Message == "" {
			e.Message = res.Status
		}
		return auth.Session{}, fmt.Errorf("login failed: %s", e.Message)
	}
	var sess auth.Session
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return auth.Session{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	return sess, nil
}

// resolveTask accepts a display id ("TASK-3", any case) or a record id.
func resolveTask(tasks []task.Task, ref string) (task.Task, error) {
	for _, t := range tasks {
		if t.ID == ref || strings.EqualFold(t.TaskID, ref) {
			return t, nil
		}
	}
	return task.Task{}, fmt.Errorf("no task %q", ref)
}

// resolveAgent accepts an agent id or an exact, case-insensitive name.
func resolveAgent(agents []agent.Agent, ref string) (agent.Agent, error) {
	var matches []agent.Agent
	for _, a := range agents {
		if a.ID == ref {
			return a, nil
		}
		if strings.EqualFold(a.Name, ref) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return agent.Agent{}, fmt.Errorf("no agent %q", ref)
	case 1:
		return matches[0], nil
	default:
		return agent.Agent{}, fmt.Errorf("%d agents are named %q, use the id", len(matches), ref)
	}
}
