package inventory

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"lokanta-backend/internal/mailer"
	"lokanta-backend/internal/models"
	"lokanta-backend/internal/realtime"

	"gorm.io/gorm"
)

var (
	ErrIngredientNotFound = errors.New("malzeme bulunamadı")
	ErrInsufficientStock  = errors.New("yetersiz stok")
	ErrInvalidDirection   = errors.New("geçersiz hareket tipi")
)

// InsufficientStockError: Mevcut ve istenen miktarı birlikte taşır; API
// mesajında ikisi de gösterilir.
type InsufficientStockError struct {
	IngredientID uint
	Name         string
	Current      float64
	Requested    float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("yetersiz stok: %s (mevcut %.2f, istenen %.2f)", e.Name, e.Current, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type AdjustStockRequest struct {
	TenantID     uint
	IngredientID uint
	Quantity     float64
	Direction    models.StockDirection
	Reason       string
}

// Service: Stok defteri. Aynı malzemeye yapılan ayarlamaları malzeme bazlı
// mutex ile serileştirir; eşik kontrolü ve uyarı tekilleştirmesi bu kilidin
// içinde çalıştığı için aynı anda iki pending uyarı açılamaz.
type Service struct {
	Hub    realtime.Broadcaster
	Mailer mailer.Sender

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewService(hub realtime.Broadcaster, sender mailer.Sender) *Service {
	return &Service{
		Hub:    hub,
		Mailer: sender,
		locks:  make(map[uint]*sync.Mutex),
	}
}

func (s *Service) ingredientLock(id uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// AdjustStock: Malzeme stoğunu ayarlar, hareket kaydı ekler, gerekirse düşük
// stok uyarısı açar. db parametresi sipariş orkestrasyonunun transaction'ı
// olabilir; stok düşümleri ve uyarı satırı o zaman siparişle birlikte geri
// alınır. Bu yüzden bildirim burada GÖNDERİLMEZ: açılan uyarı çağırana döner,
// yayın ve e-posta commit sonrası NotifyLowStock ile yapılır.
//
// Kurallar:
//   - OUT sonucu stoğu eksiye düşürecekse işlem reddedilir, stok değişmez.
//   - ADJUSTMENT'ta miktar işaretli deltadır; sonuç yine eksiye düşemez.
func (s *Service) AdjustStock(db *gorm.DB, req AdjustStockRequest) (*models.Ingredient, *models.StockAlert, error) {
	if req.Quantity == 0 {
		return nil, nil, fmt.Errorf("miktar sıfır olamaz")
	}

	var delta float64
	switch req.Direction {
	case models.StockDirectionIn:
		if req.Quantity < 0 {
			return nil, nil, fmt.Errorf("IN hareketinde miktar pozitif olmalı")
		}
		delta = req.Quantity
	case models.StockDirectionOut:
		if req.Quantity < 0 {
			return nil, nil, fmt.Errorf("OUT hareketinde miktar pozitif olmalı")
		}
		delta = -req.Quantity
	case models.StockDirectionAdjustment:
		delta = req.Quantity // işaretli delta
	default:
		return nil, nil, ErrInvalidDirection
	}

	lock := s.ingredientLock(req.IngredientID)
	lock.Lock()
	defer lock.Unlock()

	var ing models.Ingredient
	if err := db.First(&ing, "id = ? AND tenant_id = ?", req.IngredientID, req.TenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrIngredientNotFound
		}
		return nil, nil, fmt.Errorf("malzeme okunamadı: %w", err)
	}

	if ing.CurrentStock+delta < 0 {
		return nil, nil, &InsufficientStockError{
			IngredientID: ing.ID,
			Name:         ing.Name,
			Current:      ing.CurrentStock,
			Requested:    -delta,
		}
	}

	// Koşullu UPDATE: kilide rağmen stok hiçbir yoldan eksiye düşemesin
	res := db.Model(&models.Ingredient{}).
		Where("id = ? AND current_stock + ? >= 0", ing.ID, delta).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return nil, nil, fmt.Errorf("stok güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, &InsufficientStockError{
			IngredientID: ing.ID,
			Name:         ing.Name,
			Current:      ing.CurrentStock,
			Requested:    -delta,
		}
	}

	movement := models.StockMovement{
		TenantID:     req.TenantID,
		IngredientID: ing.ID,
		Direction:    req.Direction,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
	}
	if err := db.Create(&movement).Error; err != nil {
		return nil, nil, fmt.Errorf("stok hareketi kaydedilemedi: %w", err)
	}

	if err := db.First(&ing, "id = ?", ing.ID).Error; err != nil {
		return nil, nil, fmt.Errorf("malzeme okunamadı: %w", err)
	}

	var alert *models.StockAlert
	if ing.CurrentStock < ing.LowStockThreshold {
		alert = s.raiseAlertIfMissing(db, &ing)
	}

	return &ing, alert, nil
}

// raiseAlertIfMissing: Malzeme için pending uyarı yoksa yeni bir tane açar ve
// döner. Bildirim göndermez. Buradaki hiçbir hata çağırana yansımaz.
func (s *Service) raiseAlertIfMissing(db *gorm.DB, ing *models.Ingredient) *models.StockAlert {
	var pending int64
	if err := db.Model(&models.StockAlert{}).
		Where("ingredient_id = ? AND status = ?", ing.ID, models.AlertStatusPending).
		Count(&pending).Error; err != nil {
		log.Printf("[inventory] uyarı kontrolü başarısız (%s): %v", ing.Name, err)
		return nil
	}
	if pending > 0 {
		return nil
	}

	alert := models.StockAlert{
		TenantID:     ing.TenantID,
		BranchID:     ing.BranchID,
		IngredientID: ing.ID,
		Status:       models.AlertStatusPending,
		Threshold:    ing.LowStockThreshold,
		Notes:        fmt.Sprintf("%s stoğu %.2f %s seviyesine düştü", ing.Name, ing.CurrentStock, ing.Unit),
	}
	if err := db.Create(&alert).Error; err != nil {
		log.Printf("[inventory] uyarı oluşturulamadı (%s): %v", ing.Name, err)
		return nil
	}

	return &alert
}

// NotifyLowStock: Canlı yayın + tenant yöneticilerine e-posta. Uyarı satırı
// kalıcılaştıktan SONRA (commit sonrası) çağrılır; geri alınan bir stok düşümü
// için asla bildirim çıkmaz. İkisi de best-effort; e-posta SMTP'yi bloklamasın
// diye ayrı goroutine'de gider.
func (s *Service) NotifyLowStock(db *gorm.DB, ing models.Ingredient, alert models.StockAlert) {
	s.Hub.Broadcast(realtime.DashboardChannel(ing.TenantID), "stock.alert", alert)

	var admins []models.User
	err := db.
		Where("tenant_id = ? AND role IN ?", ing.TenantID, []models.UserRole{models.RoleTenantAdmin, models.RoleManager}).
		Find(&admins).Error
	if err != nil {
		log.Printf("[inventory] uyarı alıcıları okunamadı: %v", err)
		return
	}

	recipients := make([]string, 0, len(admins))
	for _, u := range admins {
		recipients = append(recipients, u.Email)
	}
	if len(recipients) == 0 {
		return
	}

	go func() {
		if err := s.Mailer.SendLowStockMail(recipients, ing, alert); err != nil {
			log.Printf("[inventory] düşük stok e-postası gönderilemedi (%s): %v", ing.Name, err)
		}
	}()
}
