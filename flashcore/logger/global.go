package logger

import (
	"log/slog"
	"time"
)

// LogClaim logs a claim attempt outcome
func LogClaim(offerID, userID string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "claim"),
		slog.String("offer_id", offerID),
		slog.String("user_id", userID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Claim failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Claim succeeded", attrs...)
	}
}

// LogQuery logs database operations
func LogQuery(query string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Query failed", append(attrs,
			slog.String("query", query),
			slog.Any("error", err),
		)...)
	} else {
		slog.Info("Query executed", append(attrs,
			slog.String("query", query),
		)...)
	}
}

// LogNotify logs outbound notification dispatch
func LogNotify(notificationType string, recipients int, delivered int, failed int) {
	slog.Info("Notification dispatched",
		slog.String("type", "notify"),
		slog.String("notification_type", notificationType),
		slog.Int("recipients", recipients),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed),
	)
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
