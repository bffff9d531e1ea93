package loyalty

import (
	"errors"
	"fmt"
	"math"

	"lokanta-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound   = errors.New("müşteri bulunamadı")
	ErrInsufficientPoints = errors.New("yetersiz sadakat puanı")
)

// InsufficientPointsError: Mevcut ve istenen puanı birlikte taşır; API mesajında
// ikisi de gösterilir.
type InsufficientPointsError struct {
	CustomerID uint
	Current    int
	Requested  int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("yetersiz sadakat puanı: mevcut %d, istenen %d", e.Current, e.Requested)
}

func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}

// Service: Sadakat puanı defteri. Oranlar config'den gelir.
type Service struct {
	ConversionRate float64 // 1 puanın TL karşılığı
	PointThreshold float64 // kaç TL ödemeye 1 puan
}

func NewService(conversionRate, pointThreshold float64) *Service {
	return &Service{ConversionRate: conversionRate, PointThreshold: pointThreshold}
}

// Redeem: Puanı düşer ve indirim tutarını döner. Bakiye kontrolü ve düşüm tek
// koşullu UPDATE ile yapılır; iki eşzamanlı harcama bakiyeyi eksiye düşüremez.
// Sipariş transaction'ının içinden çağrılır (tx paylaşılır).
func (s *Service) Redeem(tx *gorm.DB, tenantID, customerID uint, points int) (float64, error) {
	if points <= 0 {
		return 0, fmt.Errorf("puan pozitif olmalı")
	}

	var customer models.Customer
	if err := tx.First(&customer, "id = ? AND tenant_id = ?", customerID, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCustomerNotFound
		}
		return 0, fmt.Errorf("müşteri okunamadı: %w", err)
	}

	res := tx.Model(&models.Customer{}).
		Where("id = ? AND tenant_id = ? AND loyalty_points >= ?", customerID, tenantID, points).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points - ?", points))
	if res.Error != nil {
		return 0, fmt.Errorf("puan düşülemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, &InsufficientPointsError{CustomerID: customerID, Current: customer.LoyaltyPoints, Requested: points}
	}

	return float64(points) * s.ConversionRate, nil
}

// Award: Ödenen tutara göre puan kazandırır. Hata dönse bile çağıran bunu
// loglayıp yutar; sipariş oluşturma asla puan kazanımı yüzünden başarısız olmaz.
func (s *Service) Award(db *gorm.DB, tenantID, customerID uint, amountPaid float64) (int, error) {
	if amountPaid <= 0 || s.PointThreshold <= 0 {
		return 0, nil
	}

	points := int(math.Floor(amountPaid / s.PointThreshold))
	if points <= 0 {
		return 0, nil
	}

	res := db.Model(&models.Customer{}).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points))
	if res.Error != nil {
		return 0, fmt.Errorf("puan eklenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrCustomerNotFound
	}

	return points, nil
}
