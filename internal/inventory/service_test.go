package inventory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"lokanta-backend/internal/database"
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

func (f *fakeHub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent [][]string
}

func (f *fakeMailer) SendLowStockMail(to []string, ingredient models.Ingredient, alert models.StockAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
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

func newTestService() (*Service, *fakeHub, *fakeMailer) {
	hub := &fakeHub{}
	sender := &fakeMailer{}
	return NewService(hub, sender), hub, sender
}

func seedIngredient(t *testing.T, db *gorm.DB, stock, threshold float64) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{
		TenantID:          1,
		Name:              "Limon",
		Unit:              "kg",
		CurrentStock:      stock,
		LowStockThreshold: threshold,
	}
	require.NoError(t, db.Create(&ing).Error)
	return ing
}

func TestAdjustStockOutRejectsNegative(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newTestService()
	ing := seedIngredient(t, db, 5, 2)

	_, _, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID:     1,
		IngredientID: ing.ID,
		Quantity:     8,
		Direction:    models.StockDirectionOut,
		Reason:       "sipariş",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "mevcut 5.00")
	require.Contains(t, err.Error(), "istenen 8.00")

	// Stok değişmemiş, hareket yazılmamış olmalı
	var reloaded models.Ingredient
	require.NoError(t, db.First(&reloaded, ing.ID).Error)
	require.Equal(t, 5.0, reloaded.CurrentStock)

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movements).Error)
	require.Zero(t, movements)
}

func TestAdjustStockAppendsMovement(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newTestService()
	ing := seedIngredient(t, db, 10, 2)

	updated, _, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID:     1,
		IngredientID: ing.ID,
		Quantity:     4,
		Direction:    models.StockDirectionIn,
		Reason:       "tedarik",
	})
	require.NoError(t, err)
	require.Equal(t, 14.0, updated.CurrentStock)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "ingredient_id = ?", ing.ID).Error)
	require.Equal(t, models.StockDirectionIn, movement.Direction)
	require.Equal(t, 4.0, movement.Quantity)
	require.Equal(t, "tedarik", movement.Reason)
}

func TestAdjustStockUnknownIngredient(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newTestService()

	_, _, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID:     1,
		IngredientID: 999,
		Quantity:     1,
		Direction:    models.StockDirectionOut,
	})
	require.True(t, errors.Is(err, ErrIngredientNotFound))
}

func TestLowStockAlertCreatedOnce(t *testing.T) {
	db := setupTestDB(t)
	svc, hub, _ := newTestService()

	// Limon: stok 10 kg, eşik 10 — ilk düşüşte uyarı açılmalı
	ing := seedIngredient(t, db, 10, 10)

	updated, alert, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID:     1,
		IngredientID: ing.ID,
		Quantity:     5,
		Direction:    models.StockDirectionOut,
		Reason:       "sipariş",
	})
	require.NoError(t, err)
	require.NotNil(t, alert)

	var alerts []models.StockAlert
	require.NoError(t, db.Where("ingredient_id = ?", ing.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	require.Equal(t, models.AlertStatusPending, alerts[0].Status)
	require.Equal(t, 10.0, alerts[0].Threshold)

	// Yayın ayrı adımdır; AdjustStock tek başına yayın yapmaz
	require.Zero(t, hub.count())
	svc.NotifyLowStock(db, *updated, *alert)
	require.Equal(t, 1, hub.count())

	// İkinci düşüş: pending uyarı dururken yenisi açılmamalı
	_, alert, err = svc.AdjustStock(db, AdjustStockRequest{
		TenantID:     1,
		IngredientID: ing.ID,
		Quantity:     1,
		Direction:    models.StockDirectionOut,
		Reason:       "sipariş",
	})
	require.NoError(t, err)
	require.Nil(t, alert)

	require.NoError(t, db.Where("ingredient_id = ?", ing.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	require.Equal(t, 1, hub.count())
}

func TestAlertRecreatedAfterResolve(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newTestService()
	ing := seedIngredient(t, db, 10, 10)

	_, _, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID: 1, IngredientID: ing.ID, Quantity: 3, Direction: models.StockDirectionOut,
	})
	require.NoError(t, err)

	// Uyarıyı kapat
	now := time.Now()
	require.NoError(t, db.Model(&models.StockAlert{}).
		Where("ingredient_id = ?", ing.ID).
		Updates(map[string]interface{}{"status": models.AlertStatusResolved, "resolved_at": now}).Error)

	// Yeni bir düşüş yeni uyarı açmalı
	_, alert, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID: 1, IngredientID: ing.ID, Quantity: 1, Direction: models.StockDirectionOut,
	})
	require.NoError(t, err)
	require.NotNil(t, alert)

	var pending int64
	require.NoError(t, db.Model(&models.StockAlert{}).
		Where("ingredient_id = ? AND status = ?", ing.ID, models.AlertStatusPending).
		Count(&pending).Error)
	require.EqualValues(t, 1, pending)

	var total int64
	require.NoError(t, db.Model(&models.StockAlert{}).Where("ingredient_id = ?", ing.ID).Count(&total).Error)
	require.EqualValues(t, 2, total)
}

func TestNoAlertAtOrAboveThreshold(t *testing.T) {
	db := setupTestDB(t)
	svc, hub, _ := newTestService()

	// Stok 1 kg, eşik 0.5 — 0.2 düşünce 0.8 kalır, uyarı yok
	ing := seedIngredient(t, db, 1, 0.5)

	updated, alert, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID: 1, IngredientID: ing.ID, Quantity: 0.2, Direction: models.StockDirectionOut,
	})
	require.NoError(t, err)
	require.Nil(t, alert)
	require.InDelta(t, 0.8, updated.CurrentStock, 1e-9)

	var alerts int64
	require.NoError(t, db.Model(&models.StockAlert{}).Count(&alerts).Error)
	require.Zero(t, alerts)
	require.Zero(t, hub.count())
}

func TestLowStockMailGoesToTenantAdmins(t *testing.T) {
	db := setupTestDB(t)
	svc, _, sender := newTestService()

	tenantID := uint(1)
	admin := models.User{TenantID: &tenantID, Name: "Yönetici", Email: "admin@lokanta.local", PasswordHash: "x", Role: models.RoleTenantAdmin}
	require.NoError(t, db.Create(&admin).Error)

	ing := seedIngredient(t, db, 10, 10)
	updated, alert, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID: 1, IngredientID: ing.ID, Quantity: 5, Direction: models.StockDirectionOut,
	})
	require.NoError(t, err)
	require.NotNil(t, alert)
	svc.NotifyLowStock(db, *updated, *alert)

	// E-posta ayrı goroutine'de gider
	require.Eventually(t, func() bool { return sender.sentCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestConcurrentOutsNeverOversell(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newTestService()

	// 10 kg stok, 20 eşzamanlı 1'er kg düşüş: tam 10'u başarılı olmalı
	ing := seedIngredient(t, db, 10, 1)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.AdjustStock(db, AdjustStockRequest{
				TenantID:     1,
				IngredientID: ing.ID,
				Quantity:     1,
				Direction:    models.StockDirectionOut,
				Reason:       "sipariş",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success, insufficient := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			require.NoError(t, err)
		}
	}
	require.Equal(t, 10, success)
	require.Equal(t, 10, insufficient)

	var reloaded models.Ingredient
	require.NoError(t, db.First(&reloaded, ing.ID).Error)
	require.Zero(t, reloaded.CurrentStock)

	var movements int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&movements).Error)
	require.EqualValues(t, 10, movements)
}

func TestAdjustmentDirectionSignedDelta(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newTestService()
	ing := seedIngredient(t, db, 10, 2)

	updated, _, err := svc.AdjustStock(db, AdjustStockRequest{
		TenantID: 1, IngredientID: ing.ID, Quantity: -3, Direction: models.StockDirectionAdjustment, Reason: "sayım farkı",
	})
	require.NoError(t, err)
	require.Equal(t, 7.0, updated.CurrentStock)

	// Eksiye düşürecek düzeltme reddedilir
	_, _, err = svc.AdjustStock(db, AdjustStockRequest{
		TenantID: 1, IngredientID: ing.ID, Quantity: -8, Direction: models.StockDirectionAdjustment,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}
