package claimerr

import "log/slog"

type logSink struct{}

// NewLogSink returns the default sink, recording errors through slog.
func NewLogSink() Sink {
	return logSink{}
}

func (logSink) RecordClaimError(e *ClaimError) {
	slog.Error("Claim error created",
		slog.String("type", "error"),
		slog.String("error_id", e.ID),
		slog.String("error_type", string(e.Type)),
		slog.String("classification", string(e.Classification)),
		slog.String("guidance", e.Guidance),
		slog.Bool("retryable", e.Retryable),
		slog.Time("created_at", e.CreatedAt),
		slog.Any("error", e.Original),
	)
}
