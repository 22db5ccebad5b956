package notify

import (
	"context"
	"log/slog"
)

// PushTransport is the device-level send collaborator. Implementations are
// external; Send is invoked only after a passing compliance check.
type PushTransport interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) (delivered bool, err error)
}

// LogTransport writes sends to the log instead of a push provider. Used in
// development and as the default when no provider is configured.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, deviceToken, title, body string, data map[string]string) (bool, error) {
	slog.Info("Push (log transport)",
		slog.String("type", "notify"),
		slog.String("device", deviceToken),
		slog.String("title", title),
		slog.String("body", body),
		slog.Int("data_keys", len(data)),
	)
	return true, nil
}
