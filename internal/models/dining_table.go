package models

import "time"

type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

// DiningTable: Restoran masası. LastOccupiedAt yalnızca masa occupied iken doludur;
// masa boşaldığında temizlenir. IsArchived soft-delete bayrağıdır, status'tan bağımsızdır.
type DiningTable struct {
	ID             uint `gorm:"primaryKey"`
	TenantID       uint `gorm:"index;not null"`
	BranchID       uint `gorm:"index;not null"`
	Branch         Branch
	Name           string      `gorm:"size:50;not null"`
	Status         TableStatus `gorm:"size:20;not null;default:available"`
	LastOccupiedAt *time.Time
	IsArchived     bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
