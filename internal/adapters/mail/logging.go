package mail

import (
	"context"
	"log/slog"
)

// LoggingMailer logs instead of sending, for local/dev runs without SMTP.
type LoggingMailer struct {
	logger *slog.Logger
}

func NewLoggingMailer(logger *slog.Logger) *LoggingMailer {
	return &LoggingMailer{logger: logger}
}

func (m *LoggingMailer) SendVerification(ctx context.Context, to, token string) error {
	m.logger.InfoContext(ctx, "verification email", "to", to, "token", token)
	return nil
}

func (m *LoggingMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.logger.InfoContext(ctx, "password reset email", "to", to, "token", token)
	return nil
}

func (m *LoggingMailer) SendWelcome(ctx context.Context, to, name string) error {
	m.logger.InfoContext(ctx, "welcome email", "to", to, "name", name)
	return nil
}
