package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvitationService lets admins invite brands to register
type InvitationService struct {
	invitations identity.InvitationTokenRepository
	users       identity.UserRepository
	brands      partner.BrandRepository
	notifier    Notifier
	publisher   shared.EventPublisher
	ttl         time.Duration
	logger      *zap.Logger
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(
	invitations identity.InvitationTokenRepository,
	users identity.UserRepository,
	brands partner.BrandRepository,
	notifier Notifier,
	publisher shared.EventPublisher,
	ttl time.Duration,
	logger *zap.Logger,
) *InvitationService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &InvitationService{
		invitations: invitations,
		users:       users,
		brands:      brands,
		notifier:    notifier,
		publisher:   publisher,
		ttl:         ttl,
		logger:      logger,
	}
}

// Invite creates an invitation and mails it. The invitation is deleted when the mail fails.
func (s *InvitationService) Invite(ctx context.Context, adminID uuid.UUID, req CreateInvitationRequest) (*InvitationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "invite_brand", telemetry.SpanAttrUserID, adminID.String())
	defer span.End()

	email := identity.NormalizeEmail(req.Email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}
	if _, err := s.invitations.FindPendingByEmail(ctx, email); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A pending invitation already exists for this email")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	taken, err := s.brands.ExistsByName(ctx, req.BrandName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand name is already taken")
	}

	invitation, err := identity.NewInvitationToken(email, req.BrandName, adminID, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.invitations.Create(ctx, invitation); err != nil {
		return nil, err
	}

	if err := s.notifier.SendBrandInvitation(ctx, invitation.Email, invitation.BrandName, invitation.Token, invitation.ExpiresAt); err != nil {
		logger.L(ctx).Error("Invitation email failed, removing invitation",
			zap.String("invitation_id", invitation.ID.String()), zap.Error(err))
		telemetry.RecordError(span, err)
		if delErr := s.invitations.Delete(ctx, invitation.ID); delErr != nil {
			logger.L(ctx).Error("Failed to remove unsent invitation", zap.Error(delErr))
		}
		return nil, errMailDelivery
	}

	if err := s.publisher.Publish(ctx, identity.NewBrandInvitedEvent(invitation)); err != nil {
		logger.L(ctx).Warn("Failed to publish invitation event", zap.Error(err))
	}
	logger.L(ctx).Info("Brand invited",
		zap.String("invitation_id", invitation.ID.String()),
		zap.String("brand_name", invitation.BrandName))

	resp := ToInvitationResponse(invitation, time.Now())
	return &resp, nil
}

// List returns invitations, newest first
func (s *InvitationService) List(ctx context.Context, filter InvitationListFilter) (shared.Paginated[InvitationResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.State != "" {
		domainFilter.Filters["state"] = filter.State
	}

	invitations, err := s.invitations.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[InvitationResponse]{}, err
	}
	total, err := s.invitations.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[InvitationResponse]{}, err
	}

	now := time.Now()
	items := make([]InvitationResponse, len(invitations))
	for i := range invitations {
		items[i] = ToInvitationResponse(&invitations[i], now)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Revoke deletes an invitation that has not been accepted
func (s *InvitationService) Revoke(ctx context.Context, id uuid.UUID) error {
	invitation, err := s.invitations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if invitation.IsUsed() {
		return shared.NewDomainError("INVITATION_USED", "Invitation has already been used")
	}
	return s.invitations.Delete(ctx, id)
}
