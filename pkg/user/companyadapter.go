package user

import (
	"context"

	"github.com/ledgerpulse/ledgerpulse/pkg/company"
)

// CompanyStoreAdapter adapts *company.Store to the CompanyProvisioner
// interface this package depends on, translating *company.Company to the
// minimal CompanyRef this package needs.
type CompanyStoreAdapter struct {
	Store *company.Store
}

// Create provisions a new company and returns a CompanyRef.
func (a CompanyStoreAdapter) Create(ctx context.Context, name, ownerUserID, currency string) (CompanyRef, error) {
	c, err := a.Store.Create(ctx, name, ownerUserID, currency)
	if err != nil {
		return CompanyRef{}, err
	}
	return CompanyRef{ID: c.ID}, nil
}

// FindFirstByOwner returns the caller's earliest-created company as a CompanyRef.
func (a CompanyStoreAdapter) FindFirstByOwner(ctx context.Context, ownerUserID string) (CompanyRef, error) {
	c, err := a.Store.FindFirstByOwner(ctx, ownerUserID)
	if err != nil {
		return CompanyRef{}, err
	}
	return CompanyRef{ID: c.ID}, nil
}
