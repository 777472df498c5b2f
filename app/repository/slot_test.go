package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

func TestSlotCreateSuccess(t *testing.T) {
	repo := NewSlotRepository(&fakeDB{execFn: func(_ context.Context, _ string, _ ...interface{}) (sql.Result, error) {
		return fakeResult{lastInsertID: 31}, nil
	}})

	slot := &entity.Slot{
		UserID:         "u-1",
		SubscriptionID: 2,
		AssignedAt:     time.Now().UTC(),
		IsActive:       true,
	}
	if err := repo.Create(context.Background(), slot); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if slot.ID != 31 {
		t.Fatalf("expected id=31, got %d", slot.ID)
	}
}

func TestSlotCreateMapsDuplicate(t *testing.T) {
	repo := NewSlotRepository(&fakeDB{execFn: func(_ context.Context, _ string, _ ...interface{}) (sql.Result, error) {
		return nil, &mysqlDriver.MySQLError{Number: 1062, Message: "duplicate"}
	}})

	err := repo.Create(context.Background(), &entity.Slot{UserID: "u-1", SubscriptionID: 2})
	if !errors.Is(err, ErrSlotAlreadyExists) {
		t.Fatalf("expected ErrSlotAlreadyExists, got %v", err)
	}
}

func TestSlotCreatePropagatesOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := NewSlotRepository(&fakeDB{execFn: func(_ context.Context, _ string, _ ...interface{}) (sql.Result, error) {
		return nil, boom
	}})

	err := repo.Create(context.Background(), &entity.Slot{UserID: "u-1", SubscriptionID: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
}

type fakeSlotRowScanner struct {
	id             uint64
	userID         string
	subscriptionID uint64
	assignedAt     time.Time
	isActive       bool
	err            error
}

func (f fakeSlotRowScanner) Scan(dest ...interface{}) error {
	if f.err != nil {
		return f.err
	}
	*(dest[0].(*uint64)) = f.id
	*(dest[1].(*string)) = f.userID
	*(dest[2].(*uint64)) = f.subscriptionID
	*(dest[3].(*time.Time)) = f.assignedAt
	*(dest[4].(*bool)) = f.isActive
	return nil
}

func TestScanSlot(t *testing.T) {
	now := time.Now().UTC()
	item := &entity.Slot{}
	err := scanSlot(fakeSlotRowScanner{
		id:             3,
		userID:         "u-9",
		subscriptionID: 14,
		assignedAt:     now,
		isActive:       true,
	}, item)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.ID != 3 || item.UserID != "u-9" || item.SubscriptionID != 14 || !item.IsActive {
		t.Fatalf("unexpected scan result: %+v", item)
	}
}
