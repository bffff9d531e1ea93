package recipe

import (
	"errors"
	"fmt"

	"lokanta-backend/internal/models"

	"gorm.io/gorm"
)

var ErrRecipeNotFound = errors.New("reçete bulunamadı")

// FindByProduct: Ürünün reçetesini kalemleriyle birlikte döner. Kalemler
// reçetedeki sırayla (position) gelir. Reçete yoksa ErrRecipeNotFound döner.
func FindByProduct(db *gorm.DB, productID uint) (*models.Recipe, error) {
	var r models.Recipe
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("product_id = ?", productID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("reçete okunamadı: %w", err)
	}
	return &r, nil
}

// Replace: Reçetenin kalem setini tek transaction içinde komple değiştirir.
// Yarıda kalan bir değişim eski haliyle geri alınır; tutarsız reçete kalmaz.
func Replace(db *gorm.DB, recipeID uint, items []models.RecipeItem) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var r models.Recipe
		if err := tx.First(&r, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeItem{}).Error; err != nil {
			return fmt.Errorf("eski kalemler silinemedi: %w", err)
		}

		for i := range items {
			items[i].ID = 0
			items[i].RecipeID = recipeID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("yeni kalemler eklenemedi: %w", err)
			}
		}

		return nil
	})
}
