package observability

import (
	"context"
	"io"
	"log/slog"
)

type contextKey string

const (
	chatroomIDKey contextKey = "chatroom_id"
	userIDKey     contextKey = "user_id"
)

var logger *slog.Logger

// InitLogger initializes the global structured logger writing to w
func InitLogger(w io.Writer, level, format string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: level == "debug",
	}

	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Logger returns the global logger, or slog's default if InitLogger was never called
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// FromContext returns a logger with context values attached
func FromContext(ctx context.Context) *slog.Logger {
	return With(ctx, Logger())
}

// With attaches the chatroom and user ids carried by ctx to base
func With(ctx context.Context, base *slog.Logger) *slog.Logger {
	attrs := make([]any, 0, 2)

	if chatroomID, ok := ctx.Value(chatroomIDKey).(string); ok && chatroomID != "" {
		attrs = append(attrs, slog.String("chatroom_id", chatroomID))
	}

	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}

	if len(attrs) > 0 {
		return base.With(attrs...)
	}
	return base
}

// WithChatroomID adds chatroom ID to context
func WithChatroomID(ctx context.Context, chatroomID string) context.Context {
	return context.WithValue(ctx, chatroomIDKey, chatroomID)
}

// WithUserID adds user ID to context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// parseLevel converts string level to slog.Level
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
