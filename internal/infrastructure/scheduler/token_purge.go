package scheduler

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ExpiredTokenDeleter removes rows that expired at or before cutoff
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenPurgeTask deletes expired email verification tokens, and unused
// invitations once they have been expired for longer than the retention.
type TokenPurgeTask struct {
	verifications ExpiredTokenDeleter
	invitations   ExpiredTokenDeleter
	retention     time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewTokenPurgeTask creates the purge task
func NewTokenPurgeTask(verifications, invitations ExpiredTokenDeleter, retention time.Duration, logger *zap.Logger) *TokenPurgeTask {
	return &TokenPurgeTask{
		verifications: verifications,
		invitations:   invitations,
		retention:     retention,
		logger:        logger,
		now:           time.Now,
	}
}

func (t *TokenPurgeTask) Name() string { return "token_purge" }

// Run purges both tables; a failure on one does not skip the other
func (t *TokenPurgeTask) Run(ctx context.Context) error {
	now := t.now()

	verifications, verr := t.verifications.DeleteExpired(ctx, now)
	invitations, ierr := t.invitations.DeleteExpired(ctx, now.Add(-t.retention))
	if err := multierr.Combine(verr, ierr); err != nil {
		return err
	}

	if verifications > 0 || invitations > 0 {
		t.logger.Info("Purged expired tokens",
			zap.Int64("verification_tokens", verifications),
			zap.Int64("invitations", invitations),
		)
	}
	return nil
}
