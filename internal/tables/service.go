package tables

import (
	"errors"
	"fmt"
	"time"

	"lokanta-backend/internal/models"

	"gorm.io/gorm"
)

var ErrTableNotFound = errors.New("masa bulunamadı")

// Occupy: Masayı occupied durumuna geçirir ve LastOccupiedAt'i şimdiye çeker.
// Sipariş oluşturma tarafı bunu best-effort çağırır.
func Occupy(db *gorm.DB, tenantID, tableID uint) error {
	var table models.DiningTable
	if err := db.First(&table, "id = ? AND tenant_id = ?", tableID, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("masa okunamadı: %w", err)
	}

	now := time.Now()
	table.Status = models.TableStatusOccupied
	table.LastOccupiedAt = &now

	if err := db.Save(&table).Error; err != nil {
		return fmt.Errorf("masa güncellenemedi: %w", err)
	}
	return nil
}

// ReleaseStale: Boşaltma penceresini aşmış occupied masaları available'a çevirir
// ve LastOccupiedAt'i temizler. Arka plan zamanlayıcısı yoktur; bu süpürme her
// masa listelemesinde tembel olarak çalışır.
func ReleaseStale(db *gorm.DB, tenantID uint, window time.Duration) error {
	cutoff := time.Now().Add(-window)
	return db.Model(&models.DiningTable{}).
		Where("tenant_id = ? AND status = ? AND last_occupied_at < ?", tenantID, models.TableStatusOccupied, cutoff).
		Updates(map[string]interface{}{
			"status":           models.TableStatusAvailable,
			"last_occupied_at": nil,
		}).Error
}
