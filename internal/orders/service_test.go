package orders

import (
	"fmt"
	"sync"
	"testing"

	"lokanta-backend/internal/database"
	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/loyalty"
	"lokanta-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeHub) Broadcast(channel, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, channel+"/"+event)
}

func (f *fakeHub) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fakeMailer struct{}

func (fakeMailer) SendLowStockMail(to []string, ingredient models.Ingredient, alert models.StockAlert) error {
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func newTestService() (*Service, *fakeHub) {
	hub := &fakeHub{}
	inv := inventory.NewService(hub, fakeMailer{})
	loy := loyalty.NewService(10, 100) // 1 puan = 10 TL, 100 TL'ye 1 puan
	return NewService(inv, loy, hub), hub
}

// seedProductWithRecipe: Ürün + reçete + malzeme üçlüsünü hazırlar.
func seedProductWithRecipe(t *testing.T, db *gorm.DB, perUnit, stock float64) (models.Product, models.Ingredient) {
	t.Helper()

	ing := models.Ingredient{TenantID: 1, Name: "Kıyma", Unit: "kg", CurrentStock: stock, LowStockThreshold: 0.1}
	require.NoError(t, db.Create(&ing).Error)

	product := models.Product{TenantID: 1, Name: "Köfte", Price: 120, Unit: "porsiyon"}
	require.NoError(t, db.Create(&product).Error)

	r := models.Recipe{TenantID: 1, ProductID: product.ID}
	require.NoError(t, db.Create(&r).Error)
	require.NoError(t, db.Create(&models.RecipeItem{
		RecipeID: r.ID, IngredientID: ing.ID, QuantityPerUnit: perUnit, Unit: "kg",
	}).Error)

	return product, ing
}

func TestCreateOrderWorkflow(t *testing.T) {
	db := setupTestDB(t)
	svc, hub := newTestService()

	// 2 porsiyon, porsiyon başına 0.1 kg; stok 1 kg → 0.8 kg kalmalı
	product, ing := seedProductWithRecipe(t, db, 0.1, 1.0)

	order, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 2, UnitPrice: 120}},
	})
	require.NoError(t, err)
	require.Equal(t, "0001", order.OrderNo)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, 240.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	require.Equal(t, product.ID, order.Items[0].ProductID)
	require.Equal(t, 2, order.Items[0].Quantity)

	var reloaded models.Ingredient
	require.NoError(t, db.First(&reloaded, ing.ID).Error)
	require.InDelta(t, 0.8, reloaded.CurrentStock, 1e-9)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "ingredient_id = ?", ing.ID).Error)
	require.Equal(t, models.StockDirectionOut, movement.Direction)
	require.InDelta(t, 0.2, movement.Quantity, 1e-9)
	require.Equal(t, "Sipariş #0001", movement.Reason)

	// Dashboard + KDS kanallarına yayın yapılmış olmalı
	events := hub.all()
	require.Contains(t, events, "dashboard:1/order.created")
	require.Contains(t, events, "kds:1/order.created")
}

func TestAbortedOrderEmitsNoStockAlert(t *testing.T) {
	db := setupTestDB(t)
	svc, hub := newTestService()

	// İlk reçete kalemi Limon'u eşiğin altına düşürür, ikincisi yetersiz stoka
	// takılır: sipariş geri alınır, uyarı satırı da yayın da kalmamalı
	limon := models.Ingredient{TenantID: 1, Name: "Limon", Unit: "kg", CurrentStock: 10, LowStockThreshold: 10}
	require.NoError(t, db.Create(&limon).Error)
	kiyma := models.Ingredient{TenantID: 1, Name: "Kıyma", Unit: "kg", CurrentStock: 0.1, LowStockThreshold: 0.1}
	require.NoError(t, db.Create(&kiyma).Error)

	product := models.Product{TenantID: 1, Name: "Köfte", Price: 120, Unit: "porsiyon"}
	require.NoError(t, db.Create(&product).Error)

	r := models.Recipe{TenantID: 1, ProductID: product.ID}
	require.NoError(t, db.Create(&r).Error)
	require.NoError(t, db.Create(&models.RecipeItem{RecipeID: r.ID, IngredientID: limon.ID, QuantityPerUnit: 5, Unit: "kg", Position: 0}).Error)
	require.NoError(t, db.Create(&models.RecipeItem{RecipeID: r.ID, IngredientID: kiyma.ID, QuantityPerUnit: 5, Unit: "kg", Position: 1}).Error)

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 120}},
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	var alertCount int64
	require.NoError(t, db.Model(&models.StockAlert{}).Count(&alertCount).Error)
	require.Zero(t, alertCount)
	require.Empty(t, hub.all(), "geri alınan sipariş için yayın çıkmamalı")

	var reloaded models.Ingredient
	require.NoError(t, db.First(&reloaded, limon.ID).Error)
	require.Equal(t, 10.0, reloaded.CurrentStock)
}

func TestLowStockAlertBroadcastAfterCommit(t *testing.T) {
	db := setupTestDB(t)
	svc, hub := newTestService()

	// Tek kalem: stok 10, eşik 10, 5 kg düşüş — sipariş oluşur ve uyarı yayını çıkar
	product, ing := seedProductWithRecipe(t, db, 5, 10)
	require.NoError(t, db.Model(&models.Ingredient{}).Where("id = ?", ing.ID).
		UpdateColumn("low_stock_threshold", 10).Error)

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 120}},
	})
	require.NoError(t, err)

	var alertCount int64
	require.NoError(t, db.Model(&models.StockAlert{}).Count(&alertCount).Error)
	require.EqualValues(t, 1, alertCount)
	require.Contains(t, hub.all(), "dashboard:1/stock.alert")
}

func TestConcurrentOrderNumbersUnique(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product := models.Product{TenantID: 1, Name: "Ayran", Price: 20, Unit: "adet"}
	require.NoError(t, db.Create(&product).Error)

	const workers = 8
	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.CreateOrder(CreateOrderInput{
				TenantID:  1,
				OrderType: models.OrderTypeTakeaway,
				Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 20}},
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- order.OrderNo
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Eşzamanlı siparişlerde iki siparişe aynı numara verilemez
	seen := map[string]bool{}
	for no := range numbers {
		require.False(t, seen[no], "sipariş numarası tekrar etti: %s", no)
		seen[no] = true
	}
	require.Len(t, seen, workers)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product, ing := seedProductWithRecipe(t, db, 5, 1.0) // 1 porsiyon bile 5 kg ister

	customer := models.Customer{TenantID: 1, Name: "Ali", LoyaltyPoints: 10}
	require.NoError(t, db.Create(&customer).Error)

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:       1,
		CustomerID:     &customer.ID,
		RedeemedPoints: 2,
		OrderType:      models.OrderTypeTakeaway,
		Items:          []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 120}},
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	// Hiçbir iz kalmamalı: sipariş yok, hareket yok, puan düşümü geri alınmış
	var orderCount, movementCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movementCount).Error)
	require.Zero(t, movementCount)

	var reloadedCustomer models.Customer
	require.NoError(t, db.First(&reloadedCustomer, customer.ID).Error)
	require.Equal(t, 10, reloadedCustomer.LoyaltyPoints)

	var reloadedIng models.Ingredient
	require.NoError(t, db.First(&reloadedIng, ing.ID).Error)
	require.Equal(t, 1.0, reloadedIng.CurrentStock)
}

func TestCreateOrderInsufficientPointsNoSideEffects(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product, ing := seedProductWithRecipe(t, db, 0.1, 1.0)

	// Bakiye 3 iken 5 puan kullanmak siparişin tamamını düşürür
	customer := models.Customer{TenantID: 1, Name: "Ali", LoyaltyPoints: 3}
	require.NoError(t, db.Create(&customer).Error)

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:       1,
		CustomerID:     &customer.ID,
		RedeemedPoints: 5,
		OrderType:      models.OrderTypeTakeaway,
		Items:          []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 120}},
	})
	require.ErrorIs(t, err, loyalty.ErrInsufficientPoints)

	var orderCount, movementCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movementCount).Error)
	require.Zero(t, movementCount)

	var reloadedCustomer models.Customer
	require.NoError(t, db.First(&reloadedCustomer, customer.ID).Error)
	require.Equal(t, 3, reloadedCustomer.LoyaltyPoints)

	var reloadedIng models.Ingredient
	require.NoError(t, db.First(&reloadedIng, ing.ID).Error)
	require.Equal(t, 1.0, reloadedIng.CurrentStock)
}

func TestOrderNumbersSequentialAndUnique(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product := models.Product{TenantID: 1, Name: "Ayran", Price: 20, Unit: "adet"}
	require.NoError(t, db.Create(&product).Error)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		order, err := svc.CreateOrder(CreateOrderInput{
			TenantID:  1,
			OrderType: models.OrderTypeTakeaway,
			Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 20}},
		})
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("%04d", i+1), order.OrderNo)
		require.False(t, seen[order.OrderNo], "sipariş numarası tekrar etti: %s", order.OrderNo)
		seen[order.OrderNo] = true
	}

	// Başka tenant kendi sayacından başlar
	foreignProduct := models.Product{TenantID: 2, Name: "Çay", Price: 10, Unit: "adet"}
	require.NoError(t, db.Create(&foreignProduct).Error)

	order, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  2,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: foreignProduct.ID, Quantity: 1, UnitPrice: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, "0001", order.OrderNo)
}

func TestAwardPointsAfterOrder(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product := models.Product{TenantID: 1, Name: "Kebap", Price: 250, Unit: "porsiyon"}
	require.NoError(t, db.Create(&product).Error)

	customer := models.Customer{TenantID: 1, Name: "Ali", LoyaltyPoints: 0}
	require.NoError(t, db.Create(&customer).Error)

	// 250 TL ödeme, 100 TL'ye 1 puan → tam olarak 2 puan, bir kez
	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:   1,
		CustomerID: &customer.ID,
		OrderType:  models.OrderTypeTakeaway,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 250}},
	})
	require.NoError(t, err)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, customer.ID).Error)
	require.Equal(t, 2, reloaded.LoyaltyPoints)
}

func TestRedeemDiscountAppliedToOrder(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product := models.Product{TenantID: 1, Name: "Kebap", Price: 250, Unit: "porsiyon"}
	require.NoError(t, db.Create(&product).Error)

	customer := models.Customer{TenantID: 1, Name: "Ali", LoyaltyPoints: 10}
	require.NoError(t, db.Create(&customer).Error)

	order, err := svc.CreateOrder(CreateOrderInput{
		TenantID:       1,
		CustomerID:     &customer.ID,
		RedeemedPoints: 4, // 4 × 10 TL indirim
		OrderType:      models.OrderTypeTakeaway,
		Items:          []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 250}},
	})
	require.NoError(t, err)
	require.Equal(t, 250.0, order.TotalAmount)
	require.Equal(t, 40.0, order.DiscountAmount)
	require.Equal(t, 4, order.RedeemedPoints)

	// Ödenen 210 TL → 2 puan kazanım, 10 - 4 + 2 = 8
	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, customer.ID).Error)
	require.Equal(t, 8, reloaded.LoyaltyPoints)
}

func TestDiningOrderOccupiesTable(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	branch := models.Branch{TenantID: 1, Name: "Merkez"}
	require.NoError(t, db.Create(&branch).Error)
	table := models.DiningTable{TenantID: 1, BranchID: branch.ID, Name: "M1", Status: models.TableStatusAvailable}
	require.NoError(t, db.Create(&table).Error)

	product := models.Product{TenantID: 1, Name: "Çorba", Price: 60, Unit: "porsiyon"}
	require.NoError(t, db.Create(&product).Error)

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		TableID:   &table.ID,
		OrderType: models.OrderTypeDining,
		Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 60}},
	})
	require.NoError(t, err)

	var reloaded models.DiningTable
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	require.Equal(t, models.TableStatusOccupied, reloaded.Status)
	require.NotNil(t, reloaded.LastOccupiedAt)
}

func TestRecipelessProductConsumesNoStock(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product := models.Product{TenantID: 1, Name: "Su", Price: 10, Unit: "adet"}
	require.NoError(t, db.Create(&product).Error)

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 3, UnitPrice: 10}},
	})
	require.NoError(t, err)

	var movementCount int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movementCount).Error)
	require.Zero(t, movementCount)
}

func TestBrokenRecipeReferenceSkipped(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService()

	product, ing := seedProductWithRecipe(t, db, 0.1, 1.0)

	// Reçeteye var olmayan bir malzeme referansı ekle
	var r models.Recipe
	require.NoError(t, db.First(&r, "product_id = ?", product.ID).Error)
	require.NoError(t, db.Create(&models.RecipeItem{
		RecipeID: r.ID, IngredientID: 9999, QuantityPerUnit: 1, Unit: "kg", Position: 1,
	}).Error)

	// Bozuk referans atlanır, sipariş yine oluşur, geçerli malzeme düşülür
	order, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 120}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, order.OrderNo)

	var reloaded models.Ingredient
	require.NoError(t, db.First(&reloaded, ing.ID).Error)
	require.InDelta(t, 0.9, reloaded.CurrentStock, 1e-9)
}

func TestCreateOrderValidation(t *testing.T) {
	setupTestDB(t)
	svc, _ := newTestService()

	cases := []struct {
		name string
		in   CreateOrderInput
	}{
		{"tenant eksik", CreateOrderInput{OrderType: models.OrderTypeDining, Items: []OrderItemInput{{ProductID: 1, Quantity: 1}}}},
		{"kalem yok", CreateOrderInput{TenantID: 1, OrderType: models.OrderTypeDining}},
		{"geçersiz tip", CreateOrderInput{TenantID: 1, OrderType: "delivery", Items: []OrderItemInput{{ProductID: 1, Quantity: 1}}}},
		{"sıfır miktar", CreateOrderInput{TenantID: 1, OrderType: models.OrderTypeDining, Items: []OrderItemInput{{ProductID: 1, Quantity: 0}}}},
		{"negatif fiyat", CreateOrderInput{TenantID: 1, OrderType: models.OrderTypeDining, Items: []OrderItemInput{{ProductID: 1, Quantity: 1, UnitPrice: -5}}}},
		{"müşterisiz puan", CreateOrderInput{TenantID: 1, OrderType: models.OrderTypeDining, RedeemedPoints: 3, Items: []OrderItemInput{{ProductID: 1, Quantity: 1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(tc.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	setupTestDB(t)
	svc, _ := newTestService()

	_, err := svc.CreateOrder(CreateOrderInput{
		TenantID:  1,
		OrderType: models.OrderTypeTakeaway,
		Items:     []OrderItemInput{{ProductID: 42, Quantity: 1, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)
}
