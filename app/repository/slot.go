package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

var ErrSlotAlreadyExists = errors.New("user already holds a slot on this subscription")

// SlotRepository is the slot store. Uniqueness per (user, subscription)
// is enforced by the database constraint, not by a prior read.
type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, slot *entity.Slot) error {
	query := `
		INSERT INTO subscription_slots (user_id, subscription_id, assigned_at, is_active)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		slot.UserID,
		slot.SubscriptionID,
		slot.AssignedAt,
		slot.IsActive,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrSlotAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	slot.ID = uint64(id)
	return nil
}

func (r *SlotRepository) FindByUserAndSubscription(ctx context.Context, userID string, subscriptionID uint64) (*entity.Slot, error) {
	query := `
		SELECT id, user_id, subscription_id, assigned_at, is_active
		FROM subscription_slots
		WHERE user_id = ? AND subscription_id = ? AND is_active = 1
		LIMIT 1
	`

	item := &entity.Slot{}
	if err := scanSlot(
		r.db.QueryRowContext(ctx, query, userID, subscriptionID),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

// FindByUserAndServiceProvider detects that the user already holds a
// slot under any of the provider's subscriptions.
func (r *SlotRepository) FindByUserAndServiceProvider(ctx context.Context, userID string, serviceProviderID uint64) (*entity.Slot, error) {
	query := `
		SELECT sl.id, sl.user_id, sl.subscription_id, sl.assigned_at, sl.is_active
		FROM subscription_slots sl
		JOIN subscriptions s ON s.id = sl.subscription_id
		WHERE sl.user_id = ? AND s.service_provider_id = ? AND sl.is_active = 1
		LIMIT 1
	`

	item := &entity.Slot{}
	if err := scanSlot(
		r.db.QueryRowContext(ctx, query, userID, serviceProviderID),
		item,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return item, nil
}

func (r *SlotRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Slot, error) {
	query := `
		SELECT id, user_id, subscription_id, assigned_at, is_active
		FROM subscription_slots
		WHERE user_id = ? AND is_active = 1
		ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Slot, 0)
	for rows.Next() {
		item := &entity.Slot{}
		if err := scanSlot(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanSlot(scanner rowScanner, item *entity.Slot) error {
	return scanner.Scan(
		&item.ID,
		&item.UserID,
		&item.SubscriptionID,
		&item.AssignedAt,
		&item.IsActive,
	)
}
