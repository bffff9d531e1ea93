package loyalty

import (
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateCustomerRequest struct {
	TenantID *uint  `json:"tenant_id"` // super_admin için
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
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

		customer := models.Customer{
			TenantID: tenantID,
			Name:     body.Name,
			Phone:    body.Phone,
			Email:    body.Email,
		}
		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var customers []models.Customer
		if err := database.DB.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		return c.JSON(customer)
	}
}

func uintQuery(c *fiber.Ctx, key string) *uint {
	if v := c.QueryInt(key); v > 0 {
		u := uint(v)
		return &u
	}
	return nil
}
