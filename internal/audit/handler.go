package audit

import (
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		query := database.DB.Where("tenant_id = ?", tenantID)

		if entityType := c.Query("entity_type"); entityType != "" {
			query = query.Where("entity_type = ?", entityType)
		}

		var logs []models.AuditLog
		if err := query.Order("created_at DESC").Limit(200).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Audit logları listelenemedi")
		}

		return c.JSON(logs)
	}
}

func uintQuery(c *fiber.Ctx, key string) *uint {
	if v := c.QueryInt(key); v > 0 {
		u := uint(v)
		return &u
	}
	return nil
}
