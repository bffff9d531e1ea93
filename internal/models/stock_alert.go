package models

import "time"

type AlertStatus string

const (
	AlertStatusPending  AlertStatus = "pending"
	AlertStatusResolved AlertStatus = "resolved"
)

// StockAlert: Stok eşiğin altına düştüğünde açılan uyarı kaydı.
// Aynı malzeme için aynı anda en fazla bir pending uyarı bulunabilir.
type StockAlert struct {
	ID           uint  `gorm:"primaryKey"`
	TenantID     uint  `gorm:"index;not null"`
	BranchID     *uint `gorm:"index"`
	IngredientID uint  `gorm:"index;not null"`
	Ingredient   Ingredient
	Status       AlertStatus `gorm:"size:20;not null;index;default:pending"`
	Threshold    float64     `gorm:"not null"` // uyarı anındaki eşik değeri
	Notes        string      `gorm:"size:255"`
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}
