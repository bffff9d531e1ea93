package orders

import (
	"errors"
	"fmt"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/loyalty"
	"lokanta-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type OrderItemBody struct {
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderBody struct {
	TenantID       *uint           `json:"tenant_id"` // super_admin için
	BranchID       *uint           `json:"branch_id"`
	TableID        *uint           `json:"table_id"`
	CustomerID     *uint           `json:"customer_id"`
	OrderType      string          `json:"order_type"`
	PaymentMethod  string          `json:"payment_method"`
	RedeemedPoints int             `json:"redeemed_points"`
	Items          []OrderItemBody `json:"items"`
}

// mapOrderError: Servis hatalarını HTTP taksonomisine çevirir.
// 400 doğrulama / yetersiz stok / yetersiz puan, 404 eksik kayıt, 500 geri kalanı.
func mapOrderError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCancelReasonRequired):
		return fiber.NewError(fiber.StatusBadRequest, "İptal için neden belirtilmeli")
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, loyalty.ErrInsufficientPoints):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	case errors.Is(err, ErrProductNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, loyalty.ErrCustomerNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
	case errors.Is(err, inventory.ErrIngredientNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Sipariş işlenemedi")
	}
}

// POST /api/orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		cashierID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		items := make([]OrderItemInput, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, OrderItemInput{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.Price,
			})
		}

		order, err := svc.CreateOrder(CreateOrderInput{
			TenantID:       tenantID,
			BranchID:       body.BranchID,
			TableID:        body.TableID,
			CashierID:      &cashierID,
			CustomerID:     body.CustomerID,
			OrderType:      models.OrderType(body.OrderType),
			PaymentMethod:  body.PaymentMethod,
			RedeemedPoints: body.RedeemedPoints,
			Items:          items,
		})
		if err != nil {
			return mapOrderError(err)
		}

		// Audit log (best-effort)
		_ = audit.WriteLog(audit.LogOptions{
			TenantID:    tenantID,
			BranchID:    order.BranchID,
			UserID:      cashierID,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionCreate,
			Description: "Sipariş oluşturuldu: #" + order.OrderNo,
			After:       body,
		})

		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// GET /api/orders
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		query := database.DB.
			Preload("Items").
			Preload("Items.Product").
			Preload("Table").
			Preload("Customer").
			Where("tenant_id = ?", tenantID)

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
			query = query.Where("payment_status = ?", paymentStatus)
		}

		var list []models.Order
		if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		return c.JSON(list)
	}
}

// GET /api/orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		order, err := LoadHydrated(database.DB, uint(id))
		if err != nil {
			return mapOrderError(err)
		}
		if order.TenantID != tenantID {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		return c.JSON(order)
	}
}

type PatchOrderBody struct {
	TenantID      *uint   `json:"tenant_id"` // super_admin için
	PaymentStatus *string `json:"payment_status"`
	PaymentMethod *string `json:"payment_method"`
}

// PATCH /api/orders/:id
// Yalnızca izinli alanlar güncellenebilir; kimlik, tutar ve yaşam döngüsü
// alanları buradan değiştirilemez. Durum geçişleri için KDS endpoint'i var.
func PatchOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body PatchOrderBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		var order models.Order
		if err := database.DB.First(&order, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		updates := map[string]interface{}{}
		if body.PaymentStatus != nil {
			ps := models.PaymentStatus(*body.PaymentStatus)
			if ps != models.PaymentStatusPaid && ps != models.PaymentStatusUnpaid {
				return fiber.NewError(fiber.StatusBadRequest, "Ödeme durumu paid veya unpaid olmalı")
			}
			updates["payment_status"] = ps
		}
		if body.PaymentMethod != nil {
			updates["payment_method"] = *body.PaymentMethod
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Güncellenebilir alan yok")
		}

		if err := database.DB.Model(&order).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}

		hydrated, err := LoadHydrated(database.DB, order.ID)
		if err != nil {
			return mapOrderError(err)
		}

		return c.JSON(hydrated)
	}
}

type UpdateStatusBody struct {
	TenantID *uint  `json:"tenant_id"` // super_admin için
	Status   string `json:"status"`
	Reason   string `json:"reason"`
}

// PUT /api/kds/orders/:id/status
func UpdateOrderStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body UpdateStatusBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tenantID, err := auth.ResolveTenantID(c, body.TenantID)
		if err != nil {
			return err
		}

		newStatus := models.OrderStatus(body.Status)
		switch newStatus {
		case models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusReady,
			models.OrderStatusCompleted, models.OrderStatusCancelled:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş durumu")
		}

		order, err := svc.UpdateStatus(tenantID, uint(id), newStatus, body.Reason)
		if err != nil {
			return mapOrderError(err)
		}

		// Audit log (best-effort)
		if userID, uerr := auth.CurrentUserID(c); uerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				TenantID:    tenantID,
				BranchID:    order.BranchID,
				UserID:      userID,
				EntityType:  "order",
				EntityID:    order.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Sipariş durumu güncellendi: #%s → %s", order.OrderNo, order.Status),
				After:       body,
			})
		}

		return c.JSON(order)
	}
}

// GET /api/kds/orders/active
func ListActiveOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		list, err := ListActive(database.DB, tenantID, uintQuery(c, "branch_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Aktif siparişler listelenemedi")
		}

		return c.JSON(list)
	}
}

// GET /api/kds/orders/recent
func ListRecentOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.ResolveTenantID(c, uintQuery(c, "tenant_id"))
		if err != nil {
			return err
		}

		list, err := ListRecent(database.DB, tenantID, uintQuery(c, "branch_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Geçmiş siparişler listelenemedi")
		}

		return c.JSON(list)
	}
}

func uintQuery(c *fiber.Ctx, key string) *uint {
	if v := c.QueryInt(key); v > 0 {
		u := uint(v)
		return &u
	}
	return nil
}
