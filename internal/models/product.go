package models

import "time"

type Product struct {
	ID        uint    `gorm:"primaryKey"`
	TenantID  uint    `gorm:"index;not null"`
	Name      string  `gorm:"size:100;not null"`
	Price     float64 `gorm:"not null"`
	Unit      string  `gorm:"size:20;not null;default:adet"` // adet, porsiyon vs.
	IsActive  bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
