package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	AggregateModel
	Email           string              `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash    string              `gorm:"type:varchar(255);not null"`
	Role            identity.Role       `gorm:"type:varchar(20);not null;index"`
	Status          identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	EmailVerified   bool                `gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		Status:            m.Status,
		EmailVerified:     m.EmailVerified,
		EmailVerifiedAt:   m.EmailVerifiedAt,
		LastLoginAt:       m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		Role:            u.Role,
		Status:          u.Status,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		LastLoginAt:     u.LastLoginAt,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}

// EmailVerificationTokenModel persists a pending email verification
type EmailVerificationTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EmailVerificationTokenModel) TableName() string {
	return "email_verification_tokens"
}

// ToDomain converts the model to a domain token
func (m *EmailVerificationTokenModel) ToDomain() *identity.EmailVerificationToken {
	return &identity.EmailVerificationToken{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

// EmailVerificationTokenModelFromDomain creates a model from a domain token
func EmailVerificationTokenModelFromDomain(t *identity.EmailVerificationToken) *EmailVerificationTokenModel {
	return &EmailVerificationTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt.UTC(),
		CreatedAt: t.CreatedAt.UTC(),
	}
}

// InvitationTokenModel persists a brand invitation
type InvitationTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(254);not null;index"`
	BrandName string    `gorm:"type:varchar(100);not null"`
	Token     string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	InvitedBy uuid.UUID `gorm:"type:uuid;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvitationTokenModel) TableName() string {
	return "invitation_tokens"
}

// ToDomain converts the model to a domain invitation
func (m *InvitationTokenModel) ToDomain() *identity.InvitationToken {
	return &identity.InvitationToken{
		ID:        m.ID,
		Email:     m.Email,
		BrandName: m.BrandName,
		Token:     m.Token,
		InvitedBy: m.InvitedBy,
		ExpiresAt: m.ExpiresAt,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}
}

// InvitationTokenModelFromDomain creates a model from a domain invitation
func InvitationTokenModelFromDomain(t *identity.InvitationToken) *InvitationTokenModel {
	return &InvitationTokenModel{
		ID:        t.ID,
		Email:     t.Email,
		BrandName: t.BrandName,
		Token:     t.Token,
		InvitedBy: t.InvitedBy,
		ExpiresAt: t.ExpiresAt.UTC(),
		UsedAt:    t.UsedAt,
		CreatedAt: t.CreatedAt.UTC(),
	}
}
