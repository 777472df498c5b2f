package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

var ErrSubscriptionUnavailable = errors.New("subscription is no longer available")

// reservationTx is the slice of *sql.Tx the reservation flow needs.
type reservationTx interface {
	DBTX
	Commit() error
	Rollback() error
}

type reservationCapacityStore interface {
	FindByIDForUpdate(ctx context.Context, id uint64) (*entity.Subscription, error)
	CountOccupiedSlots(ctx context.Context, subscriptionID uint64) (int32, error)
	DecrementAvailableSlots(ctx context.Context, id uint64) error
}

type reservationSlotStore interface {
	Create(ctx context.Context, slot *entity.Slot) error
}

// ReservationRepository performs the atomic "give this user a slot"
// critical section: it locks the subscription row, re-validates it,
// inserts the slot and decrements the counter inside one transaction.
// Either everything commits or nothing does.
type ReservationRepository struct {
	begin            func(ctx context.Context) (reservationTx, error)
	newSubscriptions func(tx DBTX) reservationCapacityStore
	newSlots         func(tx DBTX) reservationSlotStore
}

func NewReservationRepository(db TxBeginner) *ReservationRepository {
	return &ReservationRepository{
		begin: func(ctx context.Context) (reservationTx, error) {
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return nil, err
			}
			return tx, nil
		},
		newSubscriptions: func(tx DBTX) reservationCapacityStore {
			return NewSubscriptionRepository(tx)
		},
		newSlots: func(tx DBTX) reservationSlotStore {
			return NewSlotRepository(tx)
		},
	}
}

// Reserve takes one slot on the subscription for the user.
//
// Returns ErrSubscriptionUnavailable when the row is gone, inactive,
// expired or drifted; ErrCapacityExhausted when a concurrent request
// won the last unit; ErrSlotAlreadyExists when the user already holds a
// slot on this subscription.
func (r *ReservationRepository) Reserve(ctx context.Context, userID string, subscriptionID uint64) (*entity.Slot, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	subscriptions := r.newSubscriptions(tx)
	slots := r.newSlots(tx)

	subscription, err := subscriptions.FindByIDForUpdate(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if subscription == nil || !subscription.IsAssignable(now) {
		return nil, ErrSubscriptionUnavailable
	}

	// Cross-check against counter drift: occupied + available must not
	// exceed the capacity allocated at creation.
	occupied, err := subscriptions.CountOccupiedSlots(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if occupied >= subscription.TotalSlots {
		return nil, ErrSubscriptionUnavailable
	}

	slot := &entity.Slot{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		AssignedAt:     now,
		IsActive:       true,
	}
	if err := slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	if err := subscriptions.DecrementAvailableSlots(ctx, subscriptionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return slot, nil
}
