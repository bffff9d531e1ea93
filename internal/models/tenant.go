package models

import "time"

// Tenant: İzole restoran işletmesi hesabı. Tüm kayıtlar tenant_id ile ayrışır.
type Tenant struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null;unique"`
	ContactEmail string `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Branches []Branch
}
