package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

var ErrRequestNotPending = errors.New("subscription request is not pending")

// SubscriptionRequestRepository is the request store. Status updates are
// append-only: MarkAssigned only fires while the row is still PENDING,
// so a request can never regress from ASSIGNED.
type SubscriptionRequestRepository struct {
	db DBTX
}

func NewSubscriptionRequestRepository(db DBTX) *SubscriptionRequestRepository {
	return &SubscriptionRequestRepository{db: db}
}

func (r *SubscriptionRequestRepository) Create(ctx context.Context, request *entity.SubscriptionRequest) error {
	query := `
		INSERT INTO subscription_requests (
			user_id, service_provider_id, country_id, status,
			assigned_slot_id, requested_at, processed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		request.UserID,
		request.ServiceProviderID,
		nullableUint64Value(request.CountryID),
		request.Status,
		nullableUint64Value(request.AssignedSlotID),
		request.RequestedAt,
		nullableTimeValue(request.ProcessedAt),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	request.ID = uint64(id)
	return nil
}

func (r *SubscriptionRequestRepository) FindByID(ctx context.Context, id uint64) (*entity.SubscriptionRequest, error) {
	query := requestSelectColumns + `
		FROM subscription_requests
		WHERE id = ?
	`

	item := &entity.SubscriptionRequest{}
	if err := scanRequest(
		r.db.QueryRowContext(ctx, query, id),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *SubscriptionRequestRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.SubscriptionRequest, error) {
	query := requestSelectColumns + `
		FROM subscription_requests
		WHERE user_id = ?
		ORDER BY id DESC
	`

	return r.listByQuery(ctx, query, userID)
}

// FindPendingByUserAndScope looks up an open ask for the same
// (user, provider, country) triple. The null-safe comparison keeps
// "no country" distinct from any concrete country.
func (r *SubscriptionRequestRepository) FindPendingByUserAndScope(ctx context.Context, userID string, serviceProviderID uint64, countryID *uint64) (*entity.SubscriptionRequest, error) {
	query := requestSelectColumns + `
		FROM subscription_requests
		WHERE user_id = ?
		  AND service_provider_id = ?
		  AND country_id <=> ?
		  AND status = ?
		LIMIT 1
	`

	item := &entity.SubscriptionRequest{}
	if err := scanRequest(
		r.db.QueryRowContext(ctx, query, userID, serviceProviderID, nullableUint64Value(countryID), entity.RequestStatusPending),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *SubscriptionRequestRepository) ListPendingByServiceProvider(ctx context.Context, serviceProviderID uint64) ([]*entity.SubscriptionRequest, error) {
	query := requestSelectColumns + `
		FROM subscription_requests
		WHERE service_provider_id = ? AND status = ?
		ORDER BY requested_at ASC, id ASC
	`

	return r.listByQuery(ctx, query, serviceProviderID, entity.RequestStatusPending)
}

func (r *SubscriptionRequestRepository) ListPending(ctx context.Context) ([]*entity.SubscriptionRequest, error) {
	query := requestSelectColumns + `
		FROM subscription_requests
		WHERE status = ?
		ORDER BY requested_at ASC, id ASC
	`

	return r.listByQuery(ctx, query, entity.RequestStatusPending)
}

func (r *SubscriptionRequestRepository) MarkAssigned(ctx context.Context, id uint64, slotID uint64, processedAt time.Time) error {
	query := `
		UPDATE subscription_requests
		SET status = ?, assigned_slot_id = ?, processed_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.RequestStatusAssigned,
		slotID,
		processedAt,
		id,
		entity.RequestStatusPending,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRequestNotPending
	}

	return nil
}

func (r *SubscriptionRequestRepository) listByQuery(ctx context.Context, query string, args ...interface{}) ([]*entity.SubscriptionRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.SubscriptionRequest, 0)
	for rows.Next() {
		item := &entity.SubscriptionRequest{}
		if err := scanRequest(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

const requestSelectColumns = `
	SELECT id, user_id, service_provider_id, country_id, status,
	       assigned_slot_id, requested_at, processed_at`

func scanRequest(scanner rowScanner, item *entity.SubscriptionRequest) error {
	var countryID sql.NullInt64
	var slotID sql.NullInt64
	var processedAt sql.NullTime

	err := scanner.Scan(
		&item.ID,
		&item.UserID,
		&item.ServiceProviderID,
		&countryID,
		&item.Status,
		&slotID,
		&item.RequestedAt,
		&processedAt,
	)
	if err != nil {
		return err
	}

	if countryID.Valid {
		v := uint64(countryID.Int64)
		item.CountryID = &v
	} else {
		item.CountryID = nil
	}
	if slotID.Valid {
		v := uint64(slotID.Int64)
		item.AssignedSlotID = &v
	} else {
		item.AssignedSlotID = nil
	}
	if processedAt.Valid {
		item.ProcessedAt = &processedAt.Time
	} else {
		item.ProcessedAt = nil
	}

	return nil
}
