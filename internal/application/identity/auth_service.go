package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Identity error codes raised by the application layer
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeVerificationExpired = "VERIFICATION_EXPIRED"
	CodeMailDeliveryFailed  = "MAIL_DELIVERY_FAILED"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeTokenRevoked        = "TOKEN_REVOKED"
	CodeTokenMaxRefresh     = "TOKEN_MAX_REFRESH"
)

var errMailDelivery = shared.NewDomainError(CodeMailDeliveryFailed, "Failed to send email, please try again later")

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	VerificationTTL time.Duration
}

// Repositories groups the non-transactional repositories used for reads
type Repositories struct {
	Users              identity.UserRepository
	VerificationTokens identity.EmailVerificationTokenRepository
	Invitations        identity.InvitationTokenRepository
	Customers          partner.CustomerRepository
	Brands             partner.BrandRepository
}

// AuthService handles sign-up, email verification and token issuance
type AuthService struct {
	repos      Repositories
	scope      TransactionScope
	notifier   Notifier
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	publisher  shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. A nil blacklist disables revocation.
func NewAuthService(
	repos Repositories,
	scope TransactionScope,
	notifier Notifier,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	publisher shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if config.VerificationTTL <= 0 {
		config.VerificationTTL = 24 * time.Hour
	}
	return &AuthService{
		repos:      repos,
		scope:      scope,
		notifier:   notifier,
		jwtService: jwtService,
		blacklist:  blacklist,
		publisher:  publisher,
		config:     config,
		logger:     logger,
	}
}

// RegisterCustomer creates an unverified customer account and mails a verification link.
// If the email cannot be sent the account is removed again.
func (s *AuthService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*RegistrationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "register_customer")
	defer span.End()

	email := identity.NormalizeEmail(req.Email)
	exists, err := s.repos.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	user, err := identity.NewUser(email, req.Password, identity.RoleCustomer)
	if err != nil {
		return nil, err
	}
	customer, err := partner.NewCustomer(user.ID, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" {
		if err := customer.UpdateProfile(req.FirstName, req.LastName, req.Phone); err != nil {
			return nil, err
		}
	}
	token, err := identity.NewEmailVerificationToken(user.ID, s.config.VerificationTTL)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := repos.Customers().Create(ctx, customer); err != nil {
			return err
		}
		return repos.VerificationTokens().Create(ctx, token)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, user.ID.String())

	if err := s.notifier.SendVerificationEmail(ctx, user.Email, token.Token); err != nil {
		logger.L(ctx).Error("Verification email failed, removing registration",
			zap.String("user_id", user.ID.String()), zap.Error(err))
		telemetry.RecordError(span, err)
		s.removeRegistration(ctx, user.ID)
		return nil, errMailDelivery
	}

	s.publish(ctx, user)
	logger.L(ctx).Info("Customer registered", zap.String("user_id", user.ID.String()))

	return &RegistrationResult{
		User:    ToUserResponse(user),
		Message: "Registration successful. Check your email to verify your account.",
	}, nil
}

// removeRegistration deletes a just-created account, its profile and tokens
func (s *AuthService) removeRegistration(ctx context.Context, userID uuid.UUID) {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.VerificationTokens().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		customer, err := repos.Customers().FindByUserID(ctx, userID)
		switch {
		case err == nil:
			if err := repos.Customers().Delete(ctx, customer.ID); err != nil {
				return err
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		return repos.Users().Delete(ctx, userID)
	})
	if err != nil {
		logger.L(ctx).Error("Failed to remove registration after mail failure",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// RegisterBrand accepts an invitation: it creates a verified brand user and the brand
func (s *AuthService) RegisterBrand(ctx context.Context, req RegisterBrandRequest) (*RegistrationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "register_brand")
	defer span.End()

	invitation, err := s.repos.Invitations.FindByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Invitation not found")
		}
		return nil, err
	}
	now := time.Now()
	if err := invitation.CheckAcceptable(now); err != nil {
		return nil, err
	}

	exists, err := s.repos.Users.ExistsByEmail(ctx, invitation.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}
	taken, err := s.repos.Brands.ExistsByName(ctx, invitation.BrandName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Brand name is already taken")
	}

	user, err := identity.NewVerifiedUser(invitation.Email, req.Password, identity.RoleBrand)
	if err != nil {
		return nil, err
	}
	brand, err := partner.NewBrand(user.ID, invitation.BrandName, req.Description)
	if err != nil {
		return nil, err
	}
	if err := invitation.MarkUsed(now); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := repos.Brands().Create(ctx, brand); err != nil {
			return err
		}
		return repos.Invitations().Update(ctx, invitation)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, user)
	logger.L(ctx).Info("Brand registered",
		zap.String("user_id", user.ID.String()),
		zap.String("brand_id", brand.ID.String()))

	return &RegistrationResult{
		User:    ToUserResponse(user),
		Message: "Brand account created. You can now sign in.",
	}, nil
}

// VerifyEmail consumes a verification token
func (s *AuthService) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "verify_email")
	defer span.End()

	token, err := s.repos.VerificationTokens.FindByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Verification token not found")
		}
		return nil, err
	}
	if token.IsExpired(time.Now()) {
		return nil, shared.NewDomainError(CodeVerificationExpired, "Verification link has expired, request a new one")
	}

	user, err := s.repos.Users.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.VerifyEmail(); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Users().Update(ctx, user); err != nil {
			return err
		}
		return repos.VerificationTokens().DeleteByUser(ctx, user.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, user)
	resp := ToUserResponse(user)
	return &resp, nil
}

// ResendVerification replaces any outstanding token with a new one and mails it
func (s *AuthService) ResendVerification(ctx context.Context, req ResendVerificationRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "resend_verification")
	defer span.End()

	user, err := s.repos.Users.FindByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "No account with this email")
		}
		return err
	}
	if user.EmailVerified {
		return shared.NewDomainError("ALREADY_VERIFIED", "Email address is already verified")
	}

	token, err := identity.NewEmailVerificationToken(user.ID, s.config.VerificationTTL)
	if err != nil {
		return err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.VerificationTokens().DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return repos.VerificationTokens().Create(ctx, token)
	})
	if err != nil {
		return err
	}

	if err := s.notifier.SendVerificationEmail(ctx, user.Email, token.Token); err != nil {
		logger.L(ctx).Error("Verification email failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		telemetry.RecordError(span, err)
		if delErr := s.repos.VerificationTokens.Delete(ctx, token.ID); delErr != nil {
			logger.L(ctx).Error("Failed to remove unsent verification token", zap.Error(delErr))
		}
		return errMailDelivery
	}
	return nil
}

// Login authenticates a user and returns a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "login")
	defer span.End()

	invalid := shared.NewDomainError(CodeInvalidCredentials, "Invalid email or password")

	user, err := s.repos.Users.FindByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Warn("Login for unknown email")
			return nil, invalid
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		logger.L(ctx).Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, invalid
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	user.RecordLogin()
	if err := s.repos.Users.Update(ctx, user); err != nil {
		// the login itself succeeded
		logger.L(ctx).Error("Failed to record login", zap.Error(err))
	}

	logger.L(ctx).Info("User logged in", zap.String("user_id", user.ID.String()))
	resp := ToUserResponse(user)
	result := toAuthResult(pair)
	result.User = &resp
	return result, nil
}

// Refresh rotates a refresh token into a new pair carrying the user's current role
func (s *AuthService) Refresh(ctx context.Context, req RefreshTokenRequest) (*AuthResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "refresh")
	defer span.End()

	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError(CodeTokenInvalid, "Invalid refresh token")
	}

	revoked, err := s.refreshRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.NewDomainError(CodeTokenRevoked, "Refresh token has been revoked")
	}

	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(CodeTokenInvalid, "Invalid refresh token")
		}
		return nil, err
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	pair, err := s.jwtService.RefreshTokenPair(req.RefreshToken, user.Email, string(user.Role))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, mapTokenError(err)
	}
	if s.blacklist != nil {
		// a refresh token is single use
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			return nil, err
		}
	}
	return toAuthResult(pair), nil
}

func (s *AuthService) refreshRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if s.blacklist == nil {
		return false, nil
	}
	for _, key := range []string{claims.ID, claims.SessionKey()} {
		if key == "" {
			continue
		}
		revoked, err := s.blacklist.IsBlacklisted(ctx, key)
		if err != nil || revoked {
			return revoked, err
		}
	}
	return s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
}

// Logout revokes the presented access token for the rest of its lifetime and
// the session it belongs to, so refresh tokens of that login stop working
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		return err
	}
	if input.SessionKey != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.SessionKey, s.jwtService.GetRefreshTokenExpiration()); err != nil {
			return err
		}
	}
	logger.L(ctx).Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// Me returns the authenticated user with their customer or brand profile
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &MeResponse{User: ToUserResponse(user)}

	switch user.Role {
	case identity.RoleCustomer:
		customer, err := s.repos.Customers.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if customer != nil {
			resp.Customer = toCustomerSummary(customer)
		}
	case identity.RoleBrand:
		brand, err := s.repos.Brands.FindByOwnerID(ctx, user.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if brand != nil {
			resp.Brand = toBrandSummary(brand)
		}
	}
	return resp, nil
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish user events", zap.Error(err))
	}
}

func toAuthResult(pair *auth.TokenPair) *AuthResult {
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

// mapTokenError converts JWT validation errors to domain errors
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError(CodeTokenExpired, "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError(CodeTokenMaxRefresh, "Maximum token refresh count exceeded, please sign in again")
	default:
		return shared.NewDomainError(CodeTokenInvalid, "Invalid refresh token")
	}
}
