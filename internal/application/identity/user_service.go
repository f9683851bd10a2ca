package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// UserService covers admin user management and the bootstrap admin
type UserService struct {
	users     identity.UserRepository
	blacklist auth.TokenBlacklist
	revokeTTL time.Duration // how long a deactivation marker outlives issued tokens
	logger    *zap.Logger
}

// NewUserService creates a new UserService. revokeTTL should be the refresh token lifetime.
func NewUserService(users identity.UserRepository, blacklist auth.TokenBlacklist, revokeTTL time.Duration, logger *zap.Logger) *UserService {
	return &UserService{
		users:     users,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		logger:    logger,
	}
}

// List returns users matching the filter
func (s *UserService) List(ctx context.Context, filter UserListFilter) (shared.Paginated[UserResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	users, err := s.users.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	total, err := s.users.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// UpdateStatus activates or deactivates a user. Deactivation revokes every
// token the user holds.
func (s *UserService) UpdateStatus(ctx context.Context, adminID, userID uuid.UUID, req UpdateUserStatusRequest) (*UserResponse, error) {
	if adminID == userID {
		return nil, shared.NewDomainError("FORBIDDEN", "Admins cannot change their own status")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch identity.UserStatus(req.Status) {
	case identity.UserStatusDeactivated:
		err = user.Deactivate()
	case identity.UserStatusActive:
		err = user.Activate()
	default:
		err = shared.NewDomainError("INVALID_STATUS", "Unknown user status")
	}
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.Status == identity.UserStatusDeactivated && s.blacklist != nil {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.revokeTTL); err != nil {
			logger.L(ctx).Error("Failed to revoke tokens of deactivated user",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	logger.L(ctx).Info("User status changed",
		zap.String("user_id", user.ID.String()),
		zap.String("status", string(user.Status)),
		zap.String("admin_id", adminID.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}

// EnsureAdmin creates an active, verified admin with email unless one already exists.
// It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != identity.RoleAdmin {
			s.logger.Warn("Bootstrap admin email belongs to a non-admin user", zap.String("email", email))
		}
		return false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	if strings.TrimSpace(password) == "" {
		return false, shared.NewDomainError("INVALID_PASSWORD", "Bootstrap admin password is required")
	}

	admin, err := identity.NewVerifiedUser(email, password, identity.RoleAdmin)
	if err != nil {
		return false, err
	}
	admin.ClearDomainEvents()
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// another instance won the race
			return false, nil
		}
		return false, err
	}
	s.logger.Info("Bootstrap admin created", zap.String("user_id", admin.ID.String()))
	return true, nil
}
