package recipe

import (
	"errors"
	"fmt"

	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RecipeItemRequest struct {
	IngredientID    uint    `json:"ingredient_id"`
	QuantityPerUnit float64 `json:"quantity_per_unit"`
	Unit            string  `json:"unit"`
}

type UpsertRecipeRequest struct {
	TenantID *uint               `json:"tenant_id"` // super_admin için
	Items    []RecipeItemRequest `json:"items"`
}

// GET /api/products/:id/recipe
func GetProductRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("id")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		// Başka tenant'ın ürünü (ve reçetesi) görünmez
		var product models.Product
		if err := database.DB.First(&product, "id = ? AND tenant_id = ?", productID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		r, err := FindByProduct(database.DB, uint(productID))
		if err != nil {
			if errors.Is(err, ErrRecipeNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Ürünün reçetesi yok")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete okunamadı")
		}

		return c.JSON(r)
	}
}

// PUT /api/products/:id/recipe
// Reçete yoksa oluşturur, varsa kalem setini komple değiştirir.
func UpsertProductRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("id")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body UpsertRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ? AND tenant_id = ?", productID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		items := make([]models.RecipeItem, 0, len(body.Items))
		for _, it := range body.Items {
			if it.IngredientID == 0 || it.QuantityPerUnit <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "ingredient_id zorunlu, quantity_per_unit pozitif olmalı")
			}

			// Malzeme tenant'a ait mi?
			var ing models.Ingredient
			if err := database.DB.First(&ing, "id = ? AND tenant_id = ?", it.IngredientID, tenantID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Malzeme bulunamadı (ID: %d)", it.IngredientID))
			}

			unit := it.Unit
			if unit == "" {
				unit = ing.Unit
			}
			items = append(items, models.RecipeItem{
				IngredientID:    it.IngredientID,
				QuantityPerUnit: it.QuantityPerUnit,
				Unit:            unit,
			})
		}

		// Reçete yoksa oluştur
		var r models.Recipe
		err = database.DB.Where("product_id = ?", productID).First(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r = models.Recipe{TenantID: tenantID, ProductID: uint(productID)}
			if err := database.DB.Create(&r).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Reçete oluşturulamadı")
			}
		} else if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete okunamadı")
		}

		if err := Replace(database.DB, r.ID, items); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete güncellenemedi")
		}

		updated, err := FindByProduct(database.DB, uint(productID))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete okunamadı")
		}

		return c.JSON(updated)
	}
}

func uintQuery(c *fiber.Ctx, key string) *uint {
	if v := c.QueryInt(key); v > 0 {
		u := uint(v)
		return &u
	}
	return nil
}
