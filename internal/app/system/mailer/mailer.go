// Package mailer builds the account emails and defines the delivery seam.
// Actual delivery is a deployment concern; the default sender only logs.
package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Email is one outbound message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// LogSender records the message instead of delivering it.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.Log.Info("email suppressed (no delivery backend)",
		zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}
