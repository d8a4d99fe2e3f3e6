package clog

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
)

func HTTPStatusToLevel(status int) slog.Level {
	switch {
	case status == 499:
		return slog.LevelInfo
	case status >= 100 && status < 400:
		return slog.LevelInfo
	case status >= 400 && status < 500:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func ConnectCodeToLevel(code connect.Code) slog.Level {
	switch code {
	case connect.CodeUnknown,
		connect.CodeResourceExhausted,
		connect.CodeUnimplemented,
		connect.CodeInternal,
		connect.CodeUnavailable,
		connect.CodeDataLoss:
		return slog.LevelError
	}
	return slog.LevelInfo
}

func logAt(ctx context.Context, level slog.Level, msg string) {
	slog.Log(ctx, level, msg)
}
