package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

// ServiceProviderRepository is a read-only view over master data owned
// by the surrounding system.
type ServiceProviderRepository struct {
	db DBTX
}

func NewServiceProviderRepository(db DBTX) *ServiceProviderRepository {
	return &ServiceProviderRepository{db: db}
}

func (r *ServiceProviderRepository) FindByID(ctx context.Context, id uint64) (*entity.ServiceProvider, error) {
	query := `
		SELECT id, name, status, metadata, created_at, updated_at
		FROM service_providers
		WHERE id = ?
	`

	item := &entity.ServiceProvider{}
	var metadata sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Status,
		&metadata,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if metadata.Valid {
		item.Metadata = metadata.String
	}
	return item, nil
}

func (r *ServiceProviderRepository) SupportsCountry(ctx context.Context, serviceProviderID, countryID uint64) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM service_provider_countries
		WHERE service_provider_id = ? AND country_id = ?
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, serviceProviderID, countryID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
