package auth

import (
	"context"

	"connectrpc.com/connect"

	"github.com/kazz187/agentboard/pkg/clog"
)

type userLogInterceptor struct{}

// NewUserLogInterceptor tags the RPC access log with the caller resolved by
// Middleware. It must run inside the clog interceptor.
func NewUserLogInterceptor() connect.Interceptor {
	return &userLogInterceptor{}
}

func (i *userLogInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if uid := UserID(ctx); uid != "" && !req.Spec().IsClient {
			clog.AddUserID(ctx, uid)
		}
		return next(ctx, req)
	}
}

func (i *userLogInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *userLogInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if uid := UserID(ctx); uid != "" {
			clog.AddUserID(ctx, uid)
		}
		return next(ctx, conn)
	}
}
