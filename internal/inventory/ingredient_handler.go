package inventory

import (
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateIngredientRequest struct {
	TenantID          *uint   `json:"tenant_id"` // super_admin için
	BranchID          *uint   `json:"branch_id"` // boş = tüm şubeler için ortak
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	CurrentStock      float64 `json:"current_stock"`
	CostPerUnit       float64 `json:"cost_per_unit"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
}

type UpdateIngredientRequest struct {
	Name              *string  `json:"name"`
	Unit              *string  `json:"unit"`
	CostPerUnit       *float64 `json:"cost_per_unit"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
}

// POST /api/ingredients
func CreateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim ve birim zorunlu")
		}
		if body.CurrentStock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Başlangıç stoğu negatif olamaz")
		}

		if body.BranchID != nil {
			var branch models.Branch
			if err := database.DB.First(&branch, "id = ? AND tenant_id = ?", *body.BranchID, tenantID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
			}
		}

		threshold := body.LowStockThreshold
		if threshold <= 0 {
			threshold = 10 // varsayılan eşik
		}

		ing := models.Ingredient{
			TenantID:          tenantID,
			BranchID:          body.BranchID,
			Name:              body.Name,
			Unit:              body.Unit,
			CurrentStock:      body.CurrentStock,
			CostPerUnit:       body.CostPerUnit,
			LowStockThreshold: threshold,
		}
		if err := database.DB.Create(&ing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(ing)
	}
}

// GET /api/ingredients
// branch_id verilirse o şubeye özel malzemeler + şubesiz (ortak) malzemeler döner.
func ListIngredientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		query := database.DB.Where("tenant_id = ?", tenantID)
		if branchID := c.QueryInt("branch_id"); branchID > 0 {
			query = query.Where("branch_id = ? OR branch_id IS NULL", branchID)
		}

		var ingredients []models.Ingredient
		if err := query.Order("name ASC").Find(&ingredients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		return c.JSON(ingredients)
	}
}

// PUT /api/ingredients/:id
// Stok miktarı buradan güncellenemez; stok yalnızca hareketlerle değişir.
func UpdateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz malzeme ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpdateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			ing.Name = *body.Name
		}
		if body.Unit != nil {
			ing.Unit = *body.Unit
		}
		if body.CostPerUnit != nil {
			ing.CostPerUnit = *body.CostPerUnit
		}
		if body.LowStockThreshold != nil {
			if *body.LowStockThreshold <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Eşik pozitif olmalı")
			}
			ing.LowStockThreshold = *body.LowStockThreshold
		}

		if err := database.DB.Save(&ing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
		}

		return c.JSON(ing)
	}
}

// DELETE /api/ingredients/:id
// Herhangi bir reçetede geçen malzeme silinemez.
func DeleteIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz malzeme ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var refCount int64
		if err := database.DB.Model(&models.RecipeItem{}).Where("ingredient_id = ?", ing.ID).Count(&refCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete kontrolü yapılamadı")
		}
		if refCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Malzeme reçetelerde kullanılıyor, silinemez")
		}

		if err := database.DB.Delete(&ing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

func uintQuery(c *fiber.Ctx, key string) *uint {
	if v := c.QueryInt(key); v > 0 {
		u := uint(v)
		return &u
	}
	return nil
}
