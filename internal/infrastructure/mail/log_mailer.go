package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogMailer writes messages to the log instead of sending them.
// Sent messages are kept so development tooling and tests can read links back.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg and records it
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("Email (log provider)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

var _ Mailer = (*LogMailer)(nil)
