package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockVerificationTokenRepository is a mock implementation of identity.EmailVerificationTokenRepository
type MockVerificationTokenRepository struct {
	mock.Mock
}

func (m *MockVerificationTokenRepository) Create(ctx context.Context, token *identity.EmailVerificationToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockVerificationTokenRepository) FindByToken(ctx context.Context, token string) (*identity.EmailVerificationToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.EmailVerificationToken), args.Error(1)
}

func (m *MockVerificationTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockVerificationTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockInvitationRepository is a mock implementation of identity.InvitationTokenRepository
type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, inv *identity.InvitationToken) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvitationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.InvitationToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.InvitationToken), args.Error(1)
}

func (m *MockInvitationRepository) FindByToken(ctx context.Context, token string) (*identity.InvitationToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.InvitationToken), args.Error(1)
}

func (m *MockInvitationRepository) FindPendingByEmail(ctx context.Context, email string) (*identity.InvitationToken, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.InvitationToken), args.Error(1)
}

func (m *MockInvitationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.InvitationToken, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.InvitationToken), args.Error(1)
}

func (m *MockInvitationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvitationRepository) Update(ctx context.Context, inv *identity.InvitationToken) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvitationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockBrandRepository is a mock implementation of partner.BrandRepository
type MockBrandRepository struct {
	mock.Mock
}

func (m *MockBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Brand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*partner.Brand, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindBySlug(ctx context.Context, slug string) (*partner.Brand, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Brand, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBrandRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockBrandRepository) Create(ctx context.Context, brand *partner.Brand) error {
	return m.Called(ctx, brand).Error(0)
}

func (m *MockBrandRepository) Update(ctx context.Context, brand *partner.Brand) error {
	return m.Called(ctx, brand).Error(0)
}

func (m *MockBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerificationEmail(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

func (m *MockNotifier) SendBrandInvitation(ctx context.Context, email, brandName, token string, expiresAt time.Time) error {
	return m.Called(ctx, email, brandName, token, expiresAt).Error(0)
}

// mockScope runs fn against the same mocks the service reads from
type mockScope struct {
	repos *mockRepos
	calls int
}

func (s *mockScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	return fn(s.repos)
}

type mockRepos struct {
	users       *MockUserRepository
	tokens      *MockVerificationTokenRepository
	invitations *MockInvitationRepository
	customers   *MockCustomerRepository
	brands      *MockBrandRepository
}

func (r *mockRepos) Users() identity.UserRepository { return r.users }
func (r *mockRepos) Customers() partner.CustomerRepository { return r.customers }
func (r *mockRepos) Brands() partner.BrandRepository { return r.brands }
func (r *mockRepos) VerificationTokens() identity.EmailVerificationTokenRepository { return r.tokens }
func (r *mockRepos) Invitations() identity.InvitationTokenRepository { return r.invitations }

func newMockRepos() *mockRepos {
	return &mockRepos{
		users:       new(MockUserRepository),
		tokens:      new(MockVerificationTokenRepository),
		invitations: new(MockInvitationRepository),
		customers:   new(MockCustomerRepository),
		brands:      new(MockBrandRepository),
	}
}

func (r *mockRepos) repositories() Repositories {
	return Repositories{
		Users:              r.users,
		VerificationTokens: r.tokens,
		Invitations:        r.invitations,
		Customers:          r.customers,
		Brands:             r.brands,
	}
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
