package musicbox

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ArtistCreated(ctx context.Context, artist *Artist) error { return nil }

func (n *NoopEventSink) ArtistRemoved(ctx context.Context, artist *Artist) error { return nil }

func (n *NoopEventSink) RoleChanged(ctx context.Context, userID int64, from, to Role) error {
	return nil
}

func (n *NoopEventSink) CleanupFailed(ctx context.Context, key string, err error) error {
	return nil
}

// LoggingEventSink writes every event to a structured logger.
// Useful for development and for feeding log-based alerting on cleanup failures.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a logging event sink. A nil logger uses slog.Default.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger.With("component", "events")}
}

func (l *LoggingEventSink) ArtistCreated(ctx context.Context, artist *Artist) error {
	l.logger.InfoContext(ctx, "artist created", "artist_id", artist.ID, "user_id", artist.UserID)
	return nil
}

func (l *LoggingEventSink) ArtistRemoved(ctx context.Context, artist *Artist) error {
	l.logger.InfoContext(ctx, "artist removed", "artist_id", artist.ID, "user_id", artist.UserID)
	return nil
}

func (l *LoggingEventSink) RoleChanged(ctx context.Context, userID int64, from, to Role) error {
	l.logger.InfoContext(ctx, "user role changed", "user_id", userID, "from", from, "to", to)
	return nil
}

func (l *LoggingEventSink) CleanupFailed(ctx context.Context, key string, err error) error {
	l.logger.WarnContext(ctx, "orphaned resource left in storage", "key", key, "error", err)
	return nil
}
