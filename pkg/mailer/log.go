package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a development sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message metadata and body.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.HTMLBody))
	return nil
}
