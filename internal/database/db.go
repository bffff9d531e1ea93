package database

import (
	"log"

	"lokanta-backend/internal/config"
	"lokanta-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Migration hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı hazır.")
}

// Migrate: Tüm modelleri migrate eder. Testler aynı listeyi sqlite üzerinde kullanır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tenant{},
		&models.Branch{},
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeItem{},
		&models.StockMovement{},
		&models.StockAlert{},
		&models.DiningTable{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCounter{},
		&models.AuditLog{},
	)
}
