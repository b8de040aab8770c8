package FiberConfig

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"Invoicing/Config"
	"Invoicing/Controllers"
	"Invoicing/Models"
	"Invoicing/Notifications"
	"Invoicing/middleware"
)

// Dependencies are the shared services the routes are built from.
type Dependencies struct {
	Config   *Config.Config
	DB       *gorm.DB
	Views    *html.Engine
	Notifier Notifications.Notifier
}

// Views loads the html templates used for previews and emails.
func Views(dir string) *html.Engine {
	return html.New(dir, ".html")
}

// New builds the Fiber app with its middleware stack and every route.
func New(deps Dependencies) *fiber.App {
	if deps.Views == nil {
		deps.Views = Views(deps.Config.TemplatesDir)
	}
	if deps.Notifier == nil {
		deps.Notifier = Notifications.Noop{}
	}

	app := fiber.New(fiber.Config{
		Views:        deps.Views,
		ErrorHandler: errorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.LoggingMiddleware())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupRoutes(app, deps)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, message = fe.Code, fe.Message
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"error": errorCode(code), "message": message})
}

func errorCode(code int) string {
	switch code {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	}
	if code < fiber.StatusInternalServerError {
		return "bad_request"
	}
	return "internal_error"
}

func rateLimit(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests, try again later",
			})
		},
	})
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	cfg, db := deps.Config, deps.DB
	company := Notifications.Company(cfg)

	auth := middleware.NewAuth(db, cfg.JWTSecret)
	authController := Controllers.NewAuthController(db, cfg.JWTSecret, cfg.TokenTTL)
	clientController := Controllers.NewClientController(db)
	productController := Controllers.NewProductController(db)
	contractController := Controllers.NewContractController(db, cfg.TaxRate, company)
	invoiceController := Controllers.NewInvoiceController(db, cfg.TaxRate, deps.Notifier, company)
	paymentController := Controllers.NewPaymentController(db, deps.Notifier)
	dashboardController := Controllers.NewDashboardController(db)
	exportController := Controllers.NewExportController(db)
	settingsController := Controllers.NewSettingsController(company)
	logController := Controllers.NewLogController(cfg.LogOutput)

	api := app.Group("/api")

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authController.Register)
	authRoutes.Post("/login", rateLimit(5, time.Hour), authController.Login)
	authRoutes.Post("/logout", authController.Logout)
	authRoutes.Get("/me", auth.Verify(Models.PermissionUser), authController.Me)

	// Client routes
	clients := api.Group("/clients", auth.Verify(Models.PermissionUser))
	clients.Get("/", clientController.GetClients)
	clients.Post("/", clientController.CreateClient)
	clients.Get("/:id", clientController.GetClient)
	clients.Put("/:id", clientController.UpdateClient)
	clients.Delete("/:id", auth.Verify(Models.PermissionAccountant), clientController.DeleteClient)

	// Product routes; import routes come before the ID route
	products := api.Group("/products", auth.Verify(Models.PermissionUser))
	products.Get("/", productController.GetProducts)
	products.Post("/", productController.CreateProduct)
	products.Get("/import/template", productController.ProductTemplate)
	products.Post("/import", auth.Verify(Models.PermissionAccountant), productController.ImportProducts)
	products.Get("/:id", productController.GetProduct)
	products.Put("/:id", productController.UpdateProduct)
	products.Delete("/:id", auth.Verify(Models.PermissionAccountant), productController.DeleteProduct)

	// Contract routes
	contracts := api.Group("/contracts", auth.Verify(Models.PermissionUser))
	contracts.Get("/", contractController.GetContracts)
	contracts.Post("/", contractController.CreateContract)
	contracts.Get("/:id", contractController.GetContract)
	contracts.Put("/:id", contractController.UpdateContract)
	contracts.Delete("/:id", auth.Verify(Models.PermissionAccountant), contractController.DeleteContract)
	contracts.Get("/:id/pdf", contractController.ContractPDF)
	contracts.Post("/:id/invoice", rateLimit(50, time.Hour), contractController.GenerateInvoice)

	// Invoice routes
	invoices := api.Group("/invoices", auth.Verify(Models.PermissionUser))
	invoices.Get("/", invoiceController.GetInvoices)
	invoices.Post("/", rateLimit(50, time.Hour), invoiceController.CreateInvoice)
	invoices.Get("/:id", invoiceController.GetInvoice)
	invoices.Put("/:id", invoiceController.UpdateInvoice)
	invoices.Delete("/:id", auth.Verify(Models.PermissionAccountant), invoiceController.DeleteInvoice)
	invoices.Patch("/:id/status", invoiceController.UpdateStatus)
	invoices.Post("/:id/pay", auth.Verify(Models.PermissionAccountant), invoiceController.MarkPaid)
	invoices.Get("/:id/payments", paymentController.GetPayments)
	invoices.Post("/:id/payments", auth.Verify(Models.PermissionAccountant), paymentController.CreatePayment)
	invoices.Get("/:id/pdf", invoiceController.InvoicePDF)
	invoices.Get("/:id/preview", invoiceController.Preview)

	// Exports
	exports := api.Group("/exports", auth.Verify(Models.PermissionAccountant))
	exports.Get("/invoices.csv", exportController.InvoicesCSV)
	exports.Get("/invoices.xlsx", exportController.InvoicesXLSX)

	// Dashboard
	dashboard := api.Group("/dashboard", auth.Verify(Models.PermissionUser))
	dashboard.Get("/stats", dashboardController.Stats)
	dashboard.Get("/revenue", dashboardController.Revenue)
	dashboard.Get("/clients", dashboardController.Clients)
	dashboard.Get("/status-summary", dashboardController.StatusSummary)

	// Settings
	settings := api.Group("/settings", auth.Verify(Models.PermissionUser))
	settings.Get("/company", settingsController.GetCompany)
	settings.Post("/logo", auth.Verify(Models.PermissionAdmin), settingsController.UploadLogo)

	// Request logs
	logs := api.Group("/logs", auth.Verify(Models.PermissionAdmin))
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
}
