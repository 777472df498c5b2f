package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCapacityExhausted    = errors.New("subscription has no available slots")
	ErrCapacityFull         = errors.New("subscription already at full capacity")
)

// SubscriptionRepository is the capacity store. It owns the
// available_slots counter; the counter is mutated exclusively through
// the conditional UPDATE statements below, never read-modify-write.
type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			service_provider_id, country_id, total_slots, available_slots,
			is_active, expires_at, metadata, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		subscription.ServiceProviderID,
		nullableUint64Value(subscription.CountryID),
		subscription.TotalSlots,
		subscription.AvailableSlots,
		subscription.IsActive,
		nullableTimeValue(subscription.ExpiresAt),
		subscription.Metadata,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	subscription.ID = uint64(id)
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uint64) (*entity.Subscription, error) {
	query := subscriptionSelectColumns + `
		FROM subscriptions
		WHERE id = ?
	`

	item := &entity.Subscription{}
	if err := scanSubscription(
		r.db.QueryRowContext(ctx, query, id),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

// FindByIDForUpdate locks the subscription row for the remainder of the
// surrounding transaction. Only meaningful when r.db is a *sql.Tx.
func (r *SubscriptionRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*entity.Subscription, error) {
	query := subscriptionSelectColumns + `
		FROM subscriptions
		WHERE id = ?
		FOR UPDATE
	`

	item := &entity.Subscription{}
	if err := scanSubscription(
		r.db.QueryRowContext(ctx, query, id),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

// FindCandidates returns assignable subscriptions for the provider
// (optionally restricted to a country), most depleted first. Ties are
// broken by id, which is creation order.
func (r *SubscriptionRepository) FindCandidates(ctx context.Context, serviceProviderID uint64, countryID *uint64) ([]*entity.Subscription, error) {
	query := subscriptionSelectColumns + `
		FROM subscriptions
		WHERE service_provider_id = ?
		  AND is_active = 1
		  AND available_slots > 0
	`
	args := []interface{}{serviceProviderID}
	if countryID != nil {
		query += " AND country_id = ?"
		args = append(args, *countryID)
	}
	query += " ORDER BY available_slots ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Subscription, 0)
	for rows.Next() {
		item := &entity.Subscription{}
		if err := scanSubscription(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// DecrementAvailableSlots atomically takes one unit of capacity. The
// available_slots > 0 guard is what prevents over-subscription; a zero
// affected-row count means another request won the last slot.
func (r *SubscriptionRepository) DecrementAvailableSlots(ctx context.Context, id uint64) error {
	query := `
		UPDATE subscriptions
		SET available_slots = available_slots - 1, updated_at = ?
		WHERE id = ? AND available_slots > 0
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCapacityExhausted
	}

	return nil
}

// IncrementAvailableSlots returns one unit of capacity (administrative
// correction path only). Guarded so available_slots never exceeds
// total_slots.
func (r *SubscriptionRepository) IncrementAvailableSlots(ctx context.Context, id uint64) error {
	query := `
		UPDATE subscriptions
		SET available_slots = available_slots + 1, updated_at = ?
		WHERE id = ? AND available_slots < total_slots
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCapacityFull
	}

	return nil
}

// CountOccupiedSlots counts active slot rows for the subscription, used
// as a cross-check against counter drift before reserving.
func (r *SubscriptionRepository) CountOccupiedSlots(ctx context.Context, subscriptionID uint64) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM subscription_slots
		WHERE subscription_id = ? AND is_active = 1
	`

	var count int32
	if err := r.db.QueryRowContext(ctx, query, subscriptionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

const subscriptionSelectColumns = `
	SELECT id, service_provider_id, country_id, total_slots, available_slots,
	       is_active, expires_at, metadata, created_at, updated_at`

func scanSubscription(scanner rowScanner, item *entity.Subscription) error {
	var countryID sql.NullInt64
	var expiresAt sql.NullTime
	var metadata sql.NullString

	err := scanner.Scan(
		&item.ID,
		&item.ServiceProviderID,
		&countryID,
		&item.TotalSlots,
		&item.AvailableSlots,
		&item.IsActive,
		&expiresAt,
		&metadata,
		&item.CreatedAt,
		&item.UpdatedAt,
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
	if expiresAt.Valid {
		item.ExpiresAt = &expiresAt.Time
	} else {
		item.ExpiresAt = nil
	}
	if metadata.Valid {
		item.Metadata = metadata.String
	} else {
		item.Metadata = ""
	}

	return nil
}
