package models

import "time"

// Customer: Sadakat puanı biriktiren müşteri. LoyaltyPoints hiçbir zaman negatif olamaz;
// düşüm işlemleri koşullu UPDATE ile yapılır.
type Customer struct {
	ID            uint   `gorm:"primaryKey"`
	TenantID      uint   `gorm:"index;not null"`
	Name          string `gorm:"size:100;not null"`
	Phone         string `gorm:"size:50"`
	Email         string `gorm:"size:100"`
	LoyaltyPoints int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
