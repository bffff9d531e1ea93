package main

import (
	"log"
	"strings"

	"lokanta-backend/internal/audit"
	"lokanta-backend/internal/auth"
	"lokanta-backend/internal/config"
	"lokanta-backend/internal/database"
	"lokanta-backend/internal/inventory"
	"lokanta-backend/internal/loyalty"
	"lokanta-backend/internal/mailer"
	"lokanta-backend/internal/models"
	"lokanta-backend/internal/orders"
	"lokanta-backend/internal/products"
	"lokanta-backend/internal/realtime"
	"lokanta-backend/internal/recipe"
	"lokanta-backend/internal/tables"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	hub := realtime.NewHub()
	smtpMailer := mailer.New(cfg)
	inventorySvc := inventory.NewService(hub, smtpMailer)
	loyaltySvc := loyalty.NewService(cfg.LoyaltyConversionRate, cfg.LoyaltyPointThreshold)
	orderSvc := orders.NewService(inventorySvc, loyaltySvc, hub)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	// Realtime yayın (KDS + dashboard panoları buradan dinler)
	app.Use("/ws", realtime.UpgradeMiddleware())
	app.Get("/ws/:channel", hub.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Siparişler
	protected.Post("/orders", orders.CreateOrderHandler(orderSvc))
	protected.Get("/orders", orders.ListOrdersHandler())
	protected.Get("/orders/:id", orders.GetOrderHandler())
	protected.Patch("/orders/:id", orders.PatchOrderHandler())

	// Mutfak ekranı (KDS)
	protected.Put("/kds/orders/:id/status", orders.UpdateOrderStatusHandler(orderSvc))
	protected.Get("/kds/orders/active", orders.ListActiveOrdersHandler())
	protected.Get("/kds/orders/recent", orders.ListRecentOrdersHandler())

	// Stok
	protected.Post("/inventory/stock", inventory.AdjustStockHandler(inventorySvc))
	protected.Get("/inventory/movements", inventory.ListStockMovementsHandler())
	protected.Get("/inventory/alerts", inventory.ListAlertsHandler())
	protected.Put("/inventory/alerts/:id/resolve", inventory.ResolveAlertHandler())

	// Malzemeler
	protected.Post("/ingredients", inventory.CreateIngredientHandler())
	protected.Get("/ingredients", inventory.ListIngredientsHandler())
	protected.Put("/ingredients/:id", inventory.UpdateIngredientHandler())
	protected.Delete("/ingredients/:id", inventory.DeleteIngredientHandler())

	// Reçeteler
	protected.Get("/products/:id/recipe", recipe.GetProductRecipeHandler())
	protected.Put("/products/:id/recipe", recipe.UpsertProductRecipeHandler())

	// Ürünler
	protected.Post("/products", products.CreateProductHandler())
	protected.Get("/products", products.ListProductsHandler())
	protected.Delete("/products/:id", products.DeleteProductHandler())

	// Masalar
	protected.Post("/tables", tables.CreateTableHandler())
	protected.Get("/tables", tables.ListTablesHandler(cfg))
	protected.Patch("/tables/:id/status", tables.UpdateTableStatusHandler())
	protected.Put("/tables/:id/archive", tables.ArchiveTableHandler())
	protected.Delete("/tables/:id", tables.DeleteTableHandler())
	protected.Post("/tables/cleanup", tables.CleanupTablesHandler())

	// Müşteriler
	protected.Post("/customers", loyalty.CreateCustomerHandler())
	protected.Get("/customers", loyalty.ListCustomersHandler())
	protected.Get("/customers/:id", loyalty.GetCustomerHandler())

	// Audit logs (yalnızca yöneticiler)
	auditRoutes := protected.Group("/audit-logs")
	auditRoutes.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleTenantAdmin))
	auditRoutes.Get("/", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
