package models

import "time"

// Recipe: Bir ürünün tüketim listesi. Her ürünün en fazla bir reçetesi olur.
type Recipe struct {
	ID        uint `gorm:"primaryKey"`
	TenantID  uint `gorm:"index;not null"`
	ProductID uint `gorm:"uniqueIndex;not null"`
	Product   Product
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []RecipeItem `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeItem: Reçetedeki her kalem. Position listenin sırasını korur.
type RecipeItem struct {
	ID              uint `gorm:"primaryKey"`
	RecipeID        uint `gorm:"index;not null"`
	IngredientID    uint `gorm:"index;not null"`
	Ingredient      Ingredient
	QuantityPerUnit float64 `gorm:"not null"` // ürün başına tüketim miktarı
	Unit            string  `gorm:"size:20;not null"`
	Position        int     `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
