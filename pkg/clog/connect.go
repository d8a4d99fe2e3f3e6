package clog

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
)

type slogConnectInterceptor struct {
	filter func(connect.Spec) bool
}

type ConnectOption func(*slogConnectInterceptor)

func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return func(i *slogConnectInterceptor) {
		i.filter = filter
	}
}

// DefaultConnectHealthCheckFilter drops health check calls from the access log.
func DefaultConnectHealthCheckFilter(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

// NewSlogConnectInterceptor logs one line per handled RPC, at a level chosen
// from the resulting connect code.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	i := &slogConnectInterceptor{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		start := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"method":      req.HTTPMethod(),
			"procedure":   req.Spec().Procedure,
			"stream_type": req.Spec().StreamType.String(),
		})
		resp, err := next(ctx, req)
		i.finish(ctx, req.Spec(), start, err)
		return resp, err
	}
}

func (i *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		ctx = ContextWithSlog(ctx)
		AddAttributes(ctx, map[string]any{
			"procedure":   conn.Spec().Procedure,
			"stream_type": conn.Spec().StreamType.String(),
		})
		logAt(ctx, ConnectCodeToLevel(connect.CodeCanceled), "Connected")
		err := next(ctx, conn)
		i.finish(ctx, conn.Spec(), start, err)
		return err
	}
}

func (i *slogConnectInterceptor) finish(ctx context.Context, spec connect.Spec, start time.Time, err error) {
	if i.filter != nil && !i.filter(spec) {
		return
	}
	AddAttribute(ctx, "duration", time.Since(start))
	if err == nil {
		AddAttribute(ctx, "code", "ok")
		logAt(ctx, ConnectCodeToLevel(0), "Finished")
		return
	}
	var ce *connect.Error
	if !errors.As(err, &ce) {
		ce = connect.NewError(connect.CodeUnknown, err)
	}
	AddAttribute(ctx, "code", ce.Code().String())
	if len(ce.Details()) > 0 {
		AddAttribute(ctx, "err_details", len(ce.Details()))
	}
	logAt(ctx, ConnectCodeToLevel(ce.Code()), ce.Message())
}
