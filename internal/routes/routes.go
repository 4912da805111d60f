package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// Dependencies are the long-lived resources shared by every route.
type Dependencies struct {
	DB          *gorm.DB
	Config      *config.Config
	Logger      *zap.Logger
	Notifier    services.Notifier
	Revocations services.RevocationStore
}

// NewApp builds the fiber application with error handling and request logging installed.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Backend",
		ErrorHandler: handlers.ErrorHandler(deps.Logger),
	})

	app.Use(middleware.RequestLogger(deps.Logger))
	app.Use(recover.New())

	Register(app, deps)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	cfg := deps.Config
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userService := services.NewUserService(deps.DB)
	otpService := services.NewOTPService(deps.DB, userService, tokens, deps.Notifier, services.OTPConfig{
		Cooldown:    cfg.OTPCooldown,
		MaxAttempts: cfg.OTPMaxAttempts,
	}, deps.Logger)
	authService := services.NewAuthService(userService, tokens, deps.Revocations)
	catalogService := services.NewCatalogService(deps.DB)
	cartService := services.NewCartService(deps.DB)
	addressService := services.NewAddressService(deps.DB)
	orderService := services.NewOrderService(deps.DB, deps.Notifier, deps.Logger)
	reviewService := services.NewReviewService(deps.DB)
	wishlistService := services.NewWishlistService(deps.DB)

	authHandler := handlers.NewAuthHandler(otpService, authService)
	profileHandler := handlers.NewProfileHandler(userService, addressService, reviewService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	productHandler := handlers.NewProductHandler(catalogService, reviewService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	wishlistHandler := handlers.NewWishlistHandler(wishlistService)
	adminHandler := handlers.NewAdminHandler(authService, userService, catalogService, orderService)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	requireAuth := middleware.AuthMiddleware(tokens)
	requireStaff := middleware.RequireStaff(userService)

	api := app.Group("/api")
	api.Get("/health", healthHandler.Check)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/otp/send", authHandler.SendOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Post("/login", authHandler.Login)
	auth.Post("/token/refresh", authHandler.Refresh)
	auth.Post("/logout", requireAuth, authHandler.Logout)

	// Public catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/brands", catalogHandler.ListBrands)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:slug", productHandler.GetProduct)
	api.Get("/products/:slug/reviews", productHandler.ListReviews)
	api.Post("/products/:slug/reviews", requireAuth, productHandler.CreateReview)

	// Staff routes. Middleware is attached per route so unknown paths still 404.
	staffOnly := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{requireAuth, requireStaff, h}
	}

	admin := api.Group("/admin")
	admin.Post("/auth/login", adminHandler.Login)
	admin.Post("/auth/logout", staffOnly(authHandler.Logout)...)
	admin.Get("/auth/me", staffOnly(adminHandler.Me)...)
	admin.Get("/stats", staffOnly(adminHandler.DashboardStats)...)
	admin.Get("/users", staffOnly(adminHandler.ListAllUsers)...)
	admin.Post("/products", staffOnly(adminHandler.CreateProduct)...)
	admin.Put("/products/:id", staffOnly(adminHandler.UpdateProduct)...)
	admin.Put("/products/:id/stock", staffOnly(adminHandler.SetStock)...)
	admin.Post("/products/:id/promotions", staffOnly(adminHandler.AddPromotion)...)
	admin.Post("/categories", staffOnly(catalogHandler.CreateCategory)...)
	admin.Post("/brands", staffOnly(catalogHandler.CreateBrand)...)
	admin.Post("/colors", staffOnly(catalogHandler.CreateColor)...)
	admin.Post("/sizes", staffOnly(catalogHandler.CreateSize)...)
	admin.Get("/orders", staffOnly(adminHandler.ListAllOrders)...)
	admin.Put("/orders/:id/status", staffOnly(adminHandler.UpdateOrderStatus)...)

	// Protected routes
	api.Get("/user", requireAuth, profileHandler.GetProfile)
	api.Put("/user", requireAuth, profileHandler.UpdateProfile)
	api.Get("/user/reviews", requireAuth, profileHandler.ListMyReviews)

	api.Get("/addresses", requireAuth, profileHandler.ListAddresses)
	api.Post("/addresses", requireAuth, profileHandler.CreateAddress)
	api.Get("/addresses/:id", requireAuth, profileHandler.GetAddress)
	api.Put("/addresses/:id", requireAuth, profileHandler.UpdateAddress)
	api.Delete("/addresses/:id", requireAuth, profileHandler.DeleteAddress)

	api.Get("/carts", requireAuth, cartHandler.ListCarts)
	api.Post("/carts", requireAuth, cartHandler.CreateCart)
	api.Get("/carts/:id", requireAuth, cartHandler.GetCart)
	api.Delete("/carts/:id", requireAuth, cartHandler.DeleteCart)
	api.Post("/carts/:id/items", requireAuth, cartHandler.AddItem)
	api.Put("/carts/:id/items/:itemId", requireAuth, cartHandler.UpdateItem)
	api.Delete("/carts/:id/items/:itemId", requireAuth, cartHandler.RemoveItem)
	api.Post("/carts/:id/checkout", requireAuth, orderHandler.Checkout)

	api.Get("/orders", requireAuth, orderHandler.ListOrders)
	api.Get("/orders/:id", requireAuth, orderHandler.GetOrder)

	api.Get("/wishlist", requireAuth, wishlistHandler.List)
	api.Post("/wishlist/:productId", requireAuth, wishlistHandler.Add)
	api.Delete("/wishlist/:productId", requireAuth, wishlistHandler.Remove)
}
