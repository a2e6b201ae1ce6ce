package mailer

import (
	"context"
	"log/slog"
)

// LogSender logs messages instead of delivering them. Development only: the
// magic-link URL ends up in the log output.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender creates a sender that writes to the given logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "verification email (not sent)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.BodyText),
	)
	return nil
}
