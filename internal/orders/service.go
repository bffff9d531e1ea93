package orders

import (
	"errors"
	"fmt"
	"log"

	"lokanta-backend/internal/database"
	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/loyalty"
	"lokanta-backend/internal/models"
	"lokanta-backend/internal/realtime"
	"lokanta-backend/internal/recipe"
	"lokanta-backend/internal/tables"

	"gorm.io/gorm"
)

var (
	ErrValidation      = errors.New("doğrulama hatası")
	ErrOrderNotFound   = errors.New("sipariş bulunamadı")
	ErrProductNotFound = errors.New("ürün bulunamadı")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type OrderItemInput struct {
	ProductID uint
	Quantity  int
	UnitPrice float64
}

type CreateOrderInput struct {
	TenantID       uint
	BranchID       *uint
	TableID        *uint
	CashierID      *uint
	CustomerID     *uint
	OrderType      models.OrderType
	PaymentMethod  string
	RedeemedPoints int
	Items          []OrderItemInput
}

// Service: Sipariş orkestrasyonu. Başlık + kalemler + puan düşümü + stok
// tüketimi tek transaction'da işlenir; herhangi biri başarısız olursa sipariş
// hiç oluşmamış gibi geri alınır. Puan kazanımı, canlı yayın ve masa durumu
// commit SONRASI best-effort yan etkilerdir.
type Service struct {
	Inventory *inventory.Service
	Loyalty   *loyalty.Service
	Hub       realtime.Broadcaster
}

func NewService(inv *inventory.Service, loy *loyalty.Service, hub realtime.Broadcaster) *Service {
	return &Service{Inventory: inv, Loyalty: loy, Hub: hub}
}

func (s *Service) CreateOrder(in CreateOrderInput) (*models.Order, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	var created models.Order
	var raisedAlerts []raisedAlert

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Ürünler tenant'a ait mi?
		for _, it := range in.Items {
			var product models.Product
			if err := tx.First(&product, "id = ? AND tenant_id = ?", it.ProductID, in.TenantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w (ID: %d)", ErrProductNotFound, it.ProductID)
				}
				return fmt.Errorf("ürün okunamadı: %w", err)
			}
		}

		orderNo, err := nextOrderNo(tx, in.TenantID)
		if err != nil {
			return err
		}

		total := 0.0
		for _, it := range in.Items {
			total += float64(it.Quantity) * it.UnitPrice
		}

		// Puan kullanımı: bakiye yetmezse sipariş hiç oluşmaz
		discount := 0.0
		if in.RedeemedPoints > 0 {
			discount, err = s.Loyalty.Redeem(tx, in.TenantID, *in.CustomerID, in.RedeemedPoints)
			if err != nil {
				return err
			}
			if discount > total {
				discount = total
			}
		}

		created = models.Order{
			TenantID:       in.TenantID,
			BranchID:       in.BranchID,
			TableID:        in.TableID,
			CashierID:      in.CashierID,
			CustomerID:     in.CustomerID,
			OrderNo:        orderNo,
			Status:         models.OrderStatusPending,
			OrderType:      in.OrderType,
			PaymentMethod:  in.PaymentMethod,
			PaymentStatus:  models.PaymentStatusUnpaid,
			TotalAmount:    total,
			DiscountAmount: discount,
			RedeemedPoints: in.RedeemedPoints,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("sipariş kaydedilemedi: %w", err)
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			items = append(items, models.OrderItem{
				OrderID:   created.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("sipariş kalemleri kaydedilemedi: %w", err)
		}

		raisedAlerts, err = s.consumeStock(tx, &created, in.Items)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Stok uyarıları ancak commit sonrası duyurulur; geri alınan bir sipariş
	// için hayalet uyarı yayını çıkmaz
	for _, ra := range raisedAlerts {
		s.Inventory.NotifyLowStock(database.DB, ra.ingredient, ra.alert)
	}

	// Commit sonrası yan etkiler. Hiçbiri sipariş oluşturmayı geri döndüremez.
	amountPaid := created.TotalAmount - created.DiscountAmount
	if in.CustomerID != nil && amountPaid > 0 {
		if _, err := s.Loyalty.Award(database.DB, in.TenantID, *in.CustomerID, amountPaid); err != nil {
			log.Printf("[orders] puan kazanımı başarısız (sipariş #%s): %v", created.OrderNo, err)
		}
	}

	hydrated, err := LoadHydrated(database.DB, created.ID)
	if err != nil {
		log.Printf("[orders] sipariş yeniden yüklenemedi (#%s): %v", created.OrderNo, err)
		hydrated = &created
	}

	s.Hub.Broadcast(realtime.DashboardChannel(in.TenantID), "order.created", hydrated)
	s.Hub.Broadcast(realtime.KitchenChannel(in.TenantID), "order.created", hydrated)

	if created.OrderType == models.OrderTypeDining && created.TableID != nil {
		if err := tables.Occupy(database.DB, in.TenantID, *created.TableID); err != nil {
			log.Printf("[orders] masa occupied yapılamadı (sipariş #%s): %v", created.OrderNo, err)
		}
	}

	return hydrated, nil
}

// raisedAlert: Transaction içinde açılan düşük stok uyarısı; bildirimi commit
// sonrasına taşınır.
type raisedAlert struct {
	ingredient models.Ingredient
	alert      models.StockAlert
}

// consumeStock: Her kalemin reçetesini çözer ve malzemeleri düşer. Reçetesiz
// ürün ve reçetedeki bozuk malzeme referansı atlanır (loglanır); geçerli bir
// malzemede yetersiz stok tüm siparişi geri aldırır. Açılan düşük stok
// uyarıları döner; yayın/e-posta commit sonrasına bırakılır.
func (s *Service) consumeStock(tx *gorm.DB, order *models.Order, items []OrderItemInput) ([]raisedAlert, error) {
	var raised []raisedAlert
	for _, it := range items {
		r, err := recipe.FindByProduct(tx, it.ProductID)
		if errors.Is(err, recipe.ErrRecipeNotFound) {
			continue // reçetesiz ürün stok tüketmez
		}
		if err != nil {
			return nil, err
		}

		for _, ri := range r.Items {
			ing, alert, err := s.Inventory.AdjustStock(tx, inventory.AdjustStockRequest{
				TenantID:     order.TenantID,
				IngredientID: ri.IngredientID,
				Quantity:     ri.QuantityPerUnit * float64(it.Quantity),
				Direction:    models.StockDirectionOut,
				Reason:       fmt.Sprintf("Sipariş #%s", order.OrderNo),
			})
			if errors.Is(err, inventory.ErrIngredientNotFound) {
				log.Printf("[orders] reçetedeki malzeme bulunamadı, atlanıyor (ürün %d, malzeme %d)", it.ProductID, ri.IngredientID)
				continue
			}
			if err != nil {
				return nil, err
			}
			if alert != nil {
				raised = append(raised, raisedAlert{ingredient: *ing, alert: *alert})
			}
		}
	}
	return raised, nil
}

func validateInput(in *CreateOrderInput) error {
	if in.TenantID == 0 {
		return validationErr("tenant_id zorunlu")
	}
	if len(in.Items) == 0 {
		return validationErr("sipariş en az bir kalem içermeli")
	}
	switch in.OrderType {
	case models.OrderTypeDining, models.OrderTypeTakeaway:
	default:
		return validationErr("sipariş tipi dining veya takeaway olmalı")
	}
	for _, it := range in.Items {
		if it.ProductID == 0 {
			return validationErr("product_id zorunlu")
		}
		if it.Quantity < 1 {
			return validationErr("miktar en az 1 olmalı")
		}
		if it.UnitPrice < 0 {
			return validationErr("birim fiyat negatif olamaz")
		}
	}
	if in.RedeemedPoints < 0 {
		return validationErr("kullanılan puan negatif olamaz")
	}
	if in.RedeemedPoints > 0 && in.CustomerID == nil {
		return validationErr("puan kullanımı için müşteri zorunlu")
	}
	return nil
}

// nextOrderNo: Tenant sayacını tek UPDATE ile artırır ve sıfır dolgulu numara
// üretir. Sayaç satırı yoksa savepoint içinde oluşturulur; eşzamanlı ilk
// siparişte unique index'e takılan taraf artırımı tekrarlar.
func nextOrderNo(tx *gorm.DB, tenantID uint) (string, error) {
	bump := func() (int64, error) {
		res := tx.Model(&models.OrderCounter{}).
			Where("tenant_id = ?", tenantID).
			UpdateColumn("last_no", gorm.Expr("last_no + 1"))
		return res.RowsAffected, res.Error
	}

	n, err := bump()
	if err != nil {
		return "", fmt.Errorf("sipariş sayacı artırılamadı: %w", err)
	}
	if n == 0 {
		_ = tx.Transaction(func(tx2 *gorm.DB) error {
			return tx2.Create(&models.OrderCounter{TenantID: tenantID}).Error
		})
		if n, err = bump(); err != nil {
			return "", fmt.Errorf("sipariş sayacı artırılamadı: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("sipariş sayacı oluşturulamadı (tenant %d)", tenantID)
		}
	}

	var counter models.OrderCounter
	if err := tx.Where("tenant_id = ?", tenantID).First(&counter).Error; err != nil {
		return "", fmt.Errorf("sipariş sayacı okunamadı: %w", err)
	}

	return fmt.Sprintf("%04d", counter.LastNo), nil
}

// LoadHydrated: Siparişi kalemleri, ürünleri, masası, kasiyeri ve müşterisiyle
// birlikte yükler. Yanıtlar ve yayınlar hep bu hali kullanır.
func LoadHydrated(db *gorm.DB, orderID uint) (*models.Order, error) {
	var o models.Order
	err := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Table").
		Preload("Cashier").
		Preload("Customer").
		First(&o, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("sipariş okunamadı: %w", err)
	}
	return &o, nil
}
