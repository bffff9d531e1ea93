package inventory

import (
	"time"

	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/inventory/alerts
func ListAlertsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		query := database.DB.Preload("Ingredient").Where("tenant_id = ?", tenantID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var alerts []models.StockAlert
		if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Uyarılar listelenemedi")
		}

		return c.JSON(alerts)
	}
}

type ResolveAlertRequest struct {
	Notes string `json:"notes"`
}

// PUT /api/inventory/alerts/:id/resolve
// Uyarı kapatıldıktan sonra stok tekrar eşiğin altına düşerse yeni uyarı açılır.
func ResolveAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz uyarı ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var alert models.StockAlert
		if err := database.DB.First(&alert, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Uyarı bulunamadı")
		}

		if alert.Status == models.AlertStatusResolved {
			return fiber.NewError(fiber.StatusConflict, "Uyarı zaten kapatılmış")
		}

		var body ResolveAlertRequest
		_ = c.BodyParser(&body) // gövde opsiyonel

		now := time.Now()
		alert.Status = models.AlertStatusResolved
		alert.ResolvedAt = &now
		if body.Notes != "" {
			alert.Notes = body.Notes
		}

		if err := database.DB.Save(&alert).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Uyarı güncellenemedi")
		}

		return c.JSON(alert)
	}
}
