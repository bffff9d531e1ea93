package tables

import (
	"time"

	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/config"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateTableRequest struct {
	TenantID *uint  `json:"tenant_id"` // super_admin için
	BranchID uint   `json:"branch_id"`
	Name     string `json:"name"`
}

type UpdateTableStatusRequest struct {
	Status string `json:"status"` // available | occupied | reserved
}

// POST /api/tables
func CreateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		if body.BranchID == 0 || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "branch_id ve isim zorunlu")
		}

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ? AND tenant_id = ?", body.BranchID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Şube bulunamadı")
		}

		table := models.DiningTable{
			TenantID: tenantID,
			BranchID: body.BranchID,
			Name:     body.Name,
			Status:   models.TableStatusAvailable,
		}
		if err := database.DB.Create(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(table)
	}
}

// GET /api/tables
// Listelemeden önce süresi dolan occupied masalar tembel süpürmeyle boşaltılır.
func ListTablesHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		window := time.Duration(cfg.TableReleaseMinutes) * time.Minute
		if err := ReleaseStale(database.DB, tenantID, window); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa süpürmesi başarısız")
		}

		query := database.DB.Where("tenant_id = ? AND is_archived = ?", tenantID, false)
		if branchID := c.QueryInt("branch_id"); branchID > 0 {
			query = query.Where("branch_id = ?", branchID)
		}

		var tables []models.DiningTable
		if err := query.Order("name ASC").Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar listelenemedi")
		}

		return c.JSON(tables)
	}
}

// PATCH /api/tables/:id/status
func UpdateTableStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var body UpdateTableStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		status := models.TableStatus(body.Status)
		switch status {
		case models.TableStatusAvailable, models.TableStatusOccupied, models.TableStatusReserved:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Durum available, occupied veya reserved olmalı")
		}

		var table models.DiningTable
		if err := database.DB.First(&table, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		table.Status = status
		if status == models.TableStatusOccupied {
			now := time.Now()
			table.LastOccupiedAt = &now
		} else {
			// LastOccupiedAt yalnızca occupied iken dolu olabilir
			table.LastOccupiedAt = nil
		}

		if err := database.DB.Save(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa güncellenemedi")
		}

		return c.JSON(table)
	}
}

// PUT /api/tables/:id/archive
// Sipariş geçmişi olan masalar için önerilen yol: soft delete.
func ArchiveTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var table models.DiningTable
		if err := database.DB.First(&table, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		table.IsArchived = true
		if err := database.DB.Save(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa arşivlenemedi")
		}

		return c.JSON(table)
	}
}

// DELETE /api/tables/:id
// Sipariş geçmişi olan masa silinemez; arşivleme kullanılmalı.
func DeleteTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var table models.DiningTable
		if err := database.DB.First(&table, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		var orderCount int64
		if err := database.DB.Model(&models.Order{}).Where("table_id = ?", table.ID).Count(&orderCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş kontrolü yapılamadı")
		}
		if orderCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Masanın sipariş geçmişi var, silmek yerine arşivleyin")
		}

		if err := database.DB.Delete(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa silinemedi")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/tables/cleanup
// Sipariş geçmişi olan masaları arşivler, olmayanları kalıcı siler.
func CleanupTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var tables []models.DiningTable
		if err := database.DB.Where("tenant_id = ?", tenantID).Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar listelenemedi")
		}

		archived := 0
		deleted := 0
		for _, table := range tables {
			var orderCount int64
			if err := database.DB.Model(&models.Order{}).Where("table_id = ?", table.ID).Count(&orderCount).Error; err != nil {
				continue
			}

			if orderCount > 0 {
				if !table.IsArchived {
					table.IsArchived = true
					if err := database.DB.Save(&table).Error; err == nil {
						archived++
					}
				}
			} else {
				if err := database.DB.Delete(&table).Error; err == nil {
					deleted++
				}
			}
		}

		return c.JSON(fiber.Map{
			"archived": archived,
			"deleted":  deleted,
		})
	}
}

func uintQuery(c *fiber.Ctx, key string) *uint {
	if v := c.QueryInt(key); v > 0 {
		u := uint(v)
		return &u
	}
	return nil
}
