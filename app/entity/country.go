package entity

import "time"

const (
	CountryStatusInactive int32 = 0
	CountryStatusActive   int32 = 10
)

type Country struct {
	ID        uint64
	Code      string
	Name      string
	Status    int32
	CreatedAt time.Time
	UpdatedAt time.Time
}
