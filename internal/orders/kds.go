package orders

import (
	"errors"
	"fmt"
	"strings"

	"lokanta-backend/internal/database"
	"lokanta-backend/internal/models"
	"lokanta-backend/internal/realtime"

	"gorm.io/gorm"
)

var (
	ErrInvalidTransition    = errors.New("geçersiz durum geçişi")
	ErrCancelReasonRequired = errors.New("iptal nedeni zorunlu")
)

// Mutfak yaşam döngüsü: pending → preparing → ready → completed.
// pending ve preparing'den cancelled'a çıkılabilir, nedeni kaydedilir.
var allowedTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusPending: {
		models.OrderStatusPreparing: true,
		models.OrderStatusCancelled: true,
	},
	models.OrderStatusPreparing: {
		models.OrderStatusReady:     true,
		models.OrderStatusCancelled: true,
	},
	models.OrderStatusReady: {
		models.OrderStatusCompleted: true,
	},
}

// UpdateStatus: Durum geçişini doğrular, kalıcılaştırır ve hydrate edilmiş
// siparişi KDS + dashboard kanallarına yayınlar. Yayın best-effort'tur.
func (s *Service) UpdateStatus(tenantID, orderID uint, newStatus models.OrderStatus, reason string) (*models.Order, error) {
	var o models.Order
	if err := database.DB.First(&o, "id = ? AND tenant_id = ?", orderID, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("sipariş okunamadı: %w", err)
	}

	if !allowedTransitions[o.Status][newStatus] {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, o.Status, newStatus)
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == models.OrderStatusCancelled {
		if strings.TrimSpace(reason) == "" {
			return nil, ErrCancelReasonRequired
		}
		updates["cancel_reason"] = strings.TrimSpace(reason)
	}

	if err := database.DB.Model(&o).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("sipariş durumu güncellenemedi: %w", err)
	}

	hydrated, err := LoadHydrated(database.DB, o.ID)
	if err != nil {
		return nil, err
	}

	s.Hub.Broadcast(realtime.KitchenChannel(tenantID), "order.status_changed", hydrated)
	s.Hub.Broadcast(realtime.DashboardChannel(tenantID), "order.status_changed", hydrated)

	return hydrated, nil
}

// ListActive: Mutfağın önündeki işler; en eski sipariş en önde (FIFO).
func ListActive(db *gorm.DB, tenantID uint, branchID *uint) ([]models.Order, error) {
	query := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Table").
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusPreparing}).
		Order("created_at ASC")
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	var list []models.Order
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("aktif siparişler listelenemedi: %w", err)
	}
	return list, nil
}

// ListRecent: Kapanmış işler; en yeni en önde, 50 ile sınırlı.
func ListRecent(db *gorm.DB, tenantID uint, branchID *uint) ([]models.Order, error) {
	query := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Table").
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Order("updated_at DESC").
		Limit(50)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	var list []models.Order
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("geçmiş siparişler listelenemedi: %w", err)
	}
	return list, nil
}
