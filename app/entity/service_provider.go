package entity

import "time"

const (
	ServiceProviderStatusInactive int32 = 0
	ServiceProviderStatusActive   int32 = 10
)

type ServiceProvider struct {
	ID        uint64
	Name      string
	Status    int32
	Metadata  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
