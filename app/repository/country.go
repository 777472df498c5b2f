package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

type CountryRepository struct {
	db DBTX
}

func NewCountryRepository(db DBTX) *CountryRepository {
	return &CountryRepository{db: db}
}

func (r *CountryRepository) FindByID(ctx context.Context, id uint64) (*entity.Country, error) {
	query := `
		SELECT id, code, name, status, created_at, updated_at
		FROM countries
		WHERE id = ?
	`

	item := &entity.Country{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Code,
		&item.Name,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}
