package models

import "time"

type StockDirection string

const (
	StockDirectionIn         StockDirection = "IN"
	StockDirectionOut        StockDirection = "OUT"
	StockDirectionAdjustment StockDirection = "ADJUSTMENT"
)

// StockMovement: Her stok değişimi için salt-ekleme defter kaydı.
// Oluşturulduktan sonra asla güncellenmez veya silinmez.
type StockMovement struct {
	ID           uint `gorm:"primaryKey"`
	TenantID     uint `gorm:"index;not null"`
	IngredientID uint `gorm:"index;not null"`
	Ingredient   Ingredient
	Direction    StockDirection `gorm:"size:20;not null"`
	Quantity     float64        `gorm:"not null"`
	Reason       string         `gorm:"size:255"`
	CreatedAt    time.Time
}
