package models

import "time"

// OrderCounter: Tenant başına sipariş numarası sayacı. Artırım tek bir koşullu
// UPDATE ile yapılır; "say, sonra bir ekle" yaklaşımındaki yarışı bu tablo kapatır.
type OrderCounter struct {
	ID        uint `gorm:"primaryKey"`
	TenantID  uint `gorm:"uniqueIndex;not null"`
	LastNo    uint `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
