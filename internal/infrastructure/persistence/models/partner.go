package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	AggregateModel
	UserID         uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	FirstName      string               `gorm:"type:varchar(100);not null"`
	LastName       string               `gorm:"type:varchar(100);not null"`
	Phone          string               `gorm:"type:varchar(30)"`
	DefaultAddress *valueobject.Address `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		DefaultAddress:    m.DefaultAddress,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		UserID:         c.UserID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Phone:          c.Phone,
		DefaultAddress: c.DefaultAddress,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// BrandModel is the persistence model for the Brand aggregate
type BrandModel struct {
	AggregateModel
	OwnerID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	Name        string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Slug        string              `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string              `gorm:"type:text"`
	LogoURL     string              `gorm:"type:varchar(500)"`
	Website     string              `gorm:"type:varchar(500)"`
	Status      partner.BrandStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the persistence model to a domain Brand
func (m *BrandModel) ToDomain() *partner.Brand {
	return &partner.Brand{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerID:           m.OwnerID,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		LogoURL:           m.LogoURL,
		Website:           m.Website,
		Status:            m.Status,
	}
}

// BrandModelFromDomain creates a persistence model from a domain Brand
func BrandModelFromDomain(b *partner.Brand) *BrandModel {
	m := &BrandModel{
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		LogoURL:     b.LogoURL,
		Website:     b.Website,
		Status:      b.Status,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}
