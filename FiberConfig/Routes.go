package FiberConfig

import (
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"

	"MediFlow/Configs"
	"MediFlow/Controllers"
	"MediFlow/Templates"
	"MediFlow/middleware"
)

// Dependencies are the collaborators shared by the handlers. Verifier and
// Notifier are nil when Firebase is not configured.
type Dependencies struct {
	DB       *gorm.DB
	Config   Configs.ServerConfig
	Verifier middleware.TokenVerifier
	Notifier Controllers.HorarioNotifier
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	loc := deps.Config.Location
	usuarioController := Controllers.NewUsuarioController(deps.DB, deps.Verifier)
	horarioController := Controllers.NewHorarioController(deps.DB, deps.Notifier)
	asistenciaController := Controllers.NewAsistenciaController(deps.DB, loc)
	encuestaController := Controllers.NewEncuestaController(deps.DB, loc)
	adminController := Controllers.NewAdminController(deps.DB, deps.Config.JWTSecret, loc)
	requestLogController := Controllers.NewRequestLogController(middleware.DefaultLogConfig().LogFilePath, loc)
	auth := middleware.Auth{DB: deps.DB, Secret: deps.Config.JWTSecret}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group used by the check-in client
	api := app.Group("/api")
	api.Post("/auth/firebase", usuarioController.SyncFirebase)

	firebaseAuth := middleware.FirebaseAuth(deps.Verifier)

	usuarios := api.Group("/usuarios", firebaseAuth)
	usuarios.Post("/sync-firebase", usuarioController.SyncProfile)
	usuarios.Get("/by-uid/:uid", usuarioController.ByUID)

	api.Get("/horarios/by-uid/:uid", firebaseAuth, horarioController.ByUID)

	asistencia := api.Group("/asistencia", firebaseAuth)
	asistencia.Post("/marcar", asistenciaController.Marcar)
	asistencia.Put("/salida", asistenciaController.Salida)
	asistencia.Get("/actual", asistenciaController.Actual)

	// static segments before the :id routes
	encuestas := api.Group("/encuestas", firebaseAuth)
	encuestas.Get("/pendientes/:id_usuario", encuestaController.Pendientes)
	encuestas.Get("/indicadores/:id_usuario", encuestaController.Indicadores)
	encuestas.Get("/:id", encuestaController.Get)
	encuestas.Post("/:id/responder", encuestaController.Responder)

	// Admin routes, jwt cookie
	admin := app.Group("/admin")
	admin.Post("/login", adminController.Login)
	admin.Post("/logout", adminController.Logout)
	admin.Get("/board", auth.Verify(1), adminController.Board)
	admin.Get("/reportes/asistencias", auth.Verify(1), adminController.Reporte)
	admin.Post("/horarios", auth.Verify(2), horarioController.Create)
	admin.Put("/horarios/:id", auth.Verify(2), horarioController.Update)
	admin.Get("/logs", auth.Verify(2), requestLogController.GetLogs)
}

// NewApp builds the Fiber app with the middleware stack and every route
func NewApp(deps Dependencies) *fiber.App {
	// Html Template engine
	engine := html.NewFileSystem(http.FS(Templates.Files), ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		AppName:      "MediFlow",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(deps.Config.LogToFile))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, deps)
	return app
}

// errorHandler keeps the {"error": ...} body for errors returned by handlers
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusInternalServerError {
		log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(code).JSON(fiber.Map{"error": "Error interno del servidor"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
