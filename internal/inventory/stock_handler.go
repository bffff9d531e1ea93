package inventory

import (
	"errors"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AdjustStockBody struct {
	TenantID     *uint   `json:"tenant_id"` // super_admin için
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Type         string  `json:"type"` // IN | OUT | ADJUSTMENT
	Reason       string  `json:"reason"`
}

// POST /api/inventory/stock
func AdjustStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustStockBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		if body.IngredientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id zorunlu")
		}

		ing, alert, err := svc.AdjustStock(database.DB, AdjustStockRequest{
			TenantID:     tenantID,
			IngredientID: body.IngredientID,
			Quantity:     body.Quantity,
			Direction:    models.StockDirection(body.Type),
			Reason:       body.Reason,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrIngredientNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
			case errors.Is(err, ErrInsufficientStock):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, ErrInvalidDirection):
				return fiber.NewError(fiber.StatusBadRequest, "Hareket tipi IN, OUT veya ADJUSTMENT olmalı")
			default:
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		// Transaction yok; uyarı açıldıysa bildirim hemen dağıtılabilir
		if alert != nil {
			svc.NotifyLowStock(database.DB, *ing, *alert)
		}

		// Audit log (best-effort)
		if userID, uerr := auth.CurrentUserID(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				TenantID:    tenantID,
				BranchID:    ing.BranchID,
				UserID:      userID,
				EntityType:  "stock_movement",
				EntityID:    ing.ID,
				Action:      models.AuditActionCreate,
				Description: "Stok ayarı: " + ing.Name,
				After:       body,
			})
		}

		return c.JSON(ing)
	}
}

// GET /api/inventory/movements
func ListStockMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		query := database.DB.Preload("Ingredient").Where("tenant_id = ?", tenantID)
		if ingredientID := c.QueryInt("ingredient_id"); ingredientID > 0 {
			query = query.Where("ingredient_id = ?", ingredientID)
		}

		var movements []models.StockMovement
		if err := query.Order("created_at DESC").Limit(200).Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok hareketleri listelenemedi")
		}

		return c.JSON(movements)
	}
}
