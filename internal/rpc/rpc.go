// Package rpc serves the agentboard.v1 services on top of per-user sessions.
package rpc

import (
	"context"

	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/internal/session"
	"github.com/kazz187/agentboard/pkg/cerr"
)

var errUnauthenticated = cerr.NewError(cerr.Unauthenticated, "sign in required", nil)

func sessionFrom(ctx context.Context, sessions *session.Manager) (*session.Session, error) {
	sess := sessions.Get(auth.UserID(ctx))
	if !sess.Authenticated() {
		return nil, errUnauthenticated
	}
	return sess, nil
}
