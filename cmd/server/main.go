package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"estate-backend/internal/audit"
	"estate-backend/internal/auth"
	"estate-backend/internal/catalog"
	"estate-backend/internal/config"
	"estate-backend/internal/dashboard"
	"estate-backend/internal/database"
	"estate-backend/internal/export"
	"estate-backend/internal/extensions"
	"estate-backend/internal/httpx"
	"estate-backend/internal/listings"
	"estate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using process environment")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database init failed")
	}
	defer database.Close(db)

	catalogClient := catalog.NewHTTPClient(cfg.CatalogBaseURL, cfg.CatalogAPIKey, cfg.CatalogTimeout, log)
	store := extensions.NewStore(db)
	recorder := audit.NewRecorder(db)
	svc := listings.NewService(catalogClient, store, log)
	agg := dashboard.NewAggregator(catalogClient, store, db, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return httpx.Fail(c, e.Code, e.Message)
			}
			log.WithError(err).Error("unhandled error")
			return httpx.Fail(c, fiber.StatusInternalServerError, "unexpected server error")
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg, db))
	api.Post("/auth/login", auth.LoginHandler(cfg, db))

	// Public property surface. The optional session middleware identifies
	// staff so include_hidden can be honored for them and silently ignored
	// for everyone else.
	public := api.Group("/properties", auth.OptionalJWTMiddleware(cfg))
	public.Get("/", listings.ListPropertiesHandler(svc))
	public.Get("/popular", listings.PopularHandler(svc))
	public.Get("/with-promotions", listings.WithPromotionsHandler(svc))
	public.Get("/closed-deals", listings.ClosedDealsHandler(svc))
	public.Get("/map", listings.MapHandler(svc))
	public.Get("/:id", listings.GetPropertyHandler(svc))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(cfg))
	protected.Get("/auth/me", auth.MeHandler(db))

	adminRoutes := protected.Group("/admin", auth.RequireRole(models.RoleSuperAdmin, models.RoleEditor))

	adminRoutes.Get("/dashboard", dashboard.OverviewHandler(agg))
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(recorder))

	adminRoutes.Get("/extensions", extensions.ListExtensionsHandler(store))
	adminRoutes.Get("/extensions/export", export.ExtensionsXLSXHandler(store))
	adminRoutes.Put("/extensions/:id", extensions.UpsertExtensionHandler(store, recorder))
	adminRoutes.Delete("/extensions/:id", extensions.DeleteExtensionHandler(store, recorder))

	adminRoutes.Post("/extensions/:id/promotions", extensions.AddPromotionHandler(store, recorder))
	adminRoutes.Put("/extensions/:id/promotions/:promotionId", extensions.UpdatePromotionHandler(store, recorder))
	adminRoutes.Delete("/extensions/:id/promotions", extensions.DeletePromotionHandler(store, recorder))

	adminRoutes.Post("/extensions/:id/tags", extensions.AddTagHandler(store, recorder))
	adminRoutes.Delete("/extensions/:id/tags", extensions.DeleteTagHandler(store, recorder))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		_ = app.Shutdown()
	}()

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
