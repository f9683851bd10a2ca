package identity

import (
	"context"
	"time"
)

// Notifier delivers account emails. A returned error means the mail was not accepted.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendBrandInvitation(ctx context.Context, email, brandName, token string, expiresAt time.Time) error
}
