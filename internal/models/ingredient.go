package models

import "time"

// Ingredient: Reçetelerde tüketilen hammadde. BranchID boşsa malzeme tenant'ın tüm
// şubeleri için ortaktır. CurrentStock hiçbir zaman negatife düşemez; OUT hareketleri
// koşullu UPDATE ile uygulanır.
type Ingredient struct {
	ID                uint    `gorm:"primaryKey"`
	TenantID          uint    `gorm:"index;not null"`
	BranchID          *uint   `gorm:"index"` // boş = tüm şubeler için ortak
	Name              string  `gorm:"size:100;not null"`
	Unit              string  `gorm:"size:20;not null"` // kg, lt, adet vs.
	CurrentStock      float64 `gorm:"not null;default:0"`
	CostPerUnit       float64 `gorm:"not null;default:0"`
	LowStockThreshold float64 `gorm:"not null;default:10"` // malzeme başına eşik
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
