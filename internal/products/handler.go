package products

import (
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProductRequest struct {
	TenantID *uint   `json:"tenant_id"` // super_admin için
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}

		unit := body.Unit
		if unit == "" {
			unit = "adet"
		}

		product := models.Product{
			TenantID: tenantID,
			Name:     body.Name,
			Price:    body.Price,
			Unit:     unit,
			IsActive: true,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// GET /api/products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var list []models.Product
		if err := database.DB.Where("tenant_id = ? AND is_active = ?", tenantID, true).Order("name ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		return c.JSON(list)
	}
}

// DELETE /api/products/:id
// Sipariş geçmişi olan ürün kalıcı silinmez, pasife çekilir.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var orderCount int64
		if err := database.DB.Model(&models.OrderItem{}).Where("product_id = ?", product.ID).Count(&orderCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş kontrolü yapılamadı")
		}

		if orderCount > 0 {
			product.IsActive = false
			if err := database.DB.Save(&product).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ürün pasife çekilemedi")
			}
			return c.JSON(product)
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
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
