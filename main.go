package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"velora-server/config"
	"velora-server/database"
	"velora-server/handlers"
	"velora-server/services"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	// Initialize Cloudinary; uploads answer 503 until it is configured
	if config.AppConfig.CloudinaryURL != "" {
		if err := services.InitializeCloudinary(config.AppConfig.CloudinaryURL); err != nil {
			log.Printf("Warning: Cloudinary initialization failed: %v", err)
		}
	} else {
		log.Println("Cloudinary not configured, image uploads disabled")
	}

	// Initialize Redis cache; without it every read goes to Postgres
	if err := services.InitializeCache(config.AppConfig.RedisURL); err != nil {
		log.Printf("Warning: Redis cache initialization failed: %v", err)
	}

	// Initialize handlers
	handlers.InitializeHandlers(db)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Velora server is running",
		})
	})

	// Crawler endpoints live at the root, not under /api
	router.GET("/sitemap.xml", handlers.GetSitemap)
	router.GET("/robots.txt", handlers.GetRobots)

	api := router.Group("/api/v1")
	{
		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.RegisterUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/validate", handlers.ValidateToken)
		}

		// Public catalog routes
		api.GET("/categories", handlers.GetCategories)
		api.GET("/categories/tree", handlers.GetCategoryTree)
		api.GET("/categories/:slug", handlers.GetCategoryBySlug)
		api.GET("/products", handlers.GetProducts)
		api.GET("/products/suggestions", handlers.GetSearchSuggestions)
		api.GET("/products/:slug", handlers.GetProductBySlug)
		api.GET("/products/:slug/reviews", handlers.GetProductReviews)
		api.GET("/homepage", handlers.GetHomepage)
		api.GET("/orders/track", handlers.TrackOrder)

		// Cart routes (protected)
		cart := api.Group("/cart")
		cart.Use(handlers.AuthMiddleware())
		{
			cart.GET("", handlers.GetCart)
			cart.POST("/items", handlers.AddToCart)
			cart.PUT("/items/:itemId", handlers.UpdateCartItem)
			cart.DELETE("/items/:itemId", handlers.RemoveCartItem)
			cart.DELETE("", handlers.ClearCart)
		}

		// Wishlist routes (protected)
		wishlist := api.Group("/wishlist")
		wishlist.Use(handlers.AuthMiddleware())
		{
			wishlist.GET("", handlers.GetWishlist)
			wishlist.POST("", handlers.AddToWishlist)
			wishlist.DELETE("/:productId", handlers.RemoveFromWishlist)
		}

		// Order routes (protected)
		orders := api.Group("/orders")
		orders.Use(handlers.AuthMiddleware())
		{
			orders.POST("/checkout", handlers.Checkout)
			orders.GET("", handlers.GetUserOrders)
			orders.GET("/:id", handlers.GetOrder)
			orders.POST("/:id/cancel", handlers.CancelOrder)
		}

		// Review posting (protected)
		api.POST("/products/:slug/reviews", handlers.AuthMiddleware(), handlers.CreateReview)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(handlers.AuthMiddleware(), handlers.AdminMiddleware())
		{
			admin.GET("/categories", handlers.GetCategories)
			admin.POST("/categories", handlers.CreateCategory)
			admin.PUT("/categories/:id", handlers.UpdateCategory)
			admin.DELETE("/categories/:id", handlers.DeleteCategory)

			admin.GET("/products", handlers.GetAdminProducts)
			admin.POST("/products", handlers.CreateProduct)
			admin.PUT("/products/:id", handlers.UpdateProduct)
			admin.DELETE("/products/:id", handlers.DeleteProduct)

			admin.POST("/uploads", handlers.UploadImage)
			admin.DELETE("/uploads", handlers.DeleteUploadedImage)

			admin.GET("/orders", handlers.AdminGetOrders)
			admin.GET("/orders/:id", handlers.AdminGetOrder)
			admin.POST("/orders/:id/actions", handlers.AdminOrderAction)
			admin.POST("/orders/bulk-actions", handlers.AdminBulkOrderAction)
			admin.GET("/orders/:id/invoice", handlers.GetInvoice)
			admin.GET("/orders/:id/label", handlers.GetShippingLabel)

			admin.GET("/users", handlers.AdminGetUsers)
			admin.POST("/users", handlers.AdminCreateUser)
			admin.PUT("/users/:id/role", handlers.AdminUpdateUserRole)
			admin.PUT("/users/:id/status", handlers.AdminToggleUserStatus)
			admin.DELETE("/users/:id", handlers.AdminDeleteUser)

			admin.GET("/settings", handlers.GetSettings)
			admin.PUT("/settings", handlers.UpdateSettings)
			admin.GET("/stats", handlers.GetAdminStats)
		}
	}

	// CORS wraps the whole router so preflights never reach handlers
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.ServerPort,
		Handler: corsHandler,
	}

	go func() {
		log.Printf("Velora server listening on port %s", config.AppConfig.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
			"cache": func(ctx context.Context) error {
				return services.AppCache.Close()
			},
			"database": func(ctx context.Context) error {
				return db.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}
