package FiberConfig

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"ShiftCheck/Controllers"
	"ShiftCheck/Engine"
	"ShiftCheck/Models"
	"ShiftCheck/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, store *Engine.Store, hub *Engine.Hub) {
	// Initialize handlers
	tasklistController := Controllers.NewTasklistController(db, store)
	submissionController := Controllers.NewSubmissionController(db, store, hub)
	reviewController := Controllers.NewReviewController(db, hub)
	exportController := Controllers.NewExportController(db)
	changesController := Controllers.NewChangesController(hub)

	// API group
	api := app.Group("/api")

	// Session routes
	api.Post("/Login", Controllers.Login)
	api.Post("/Logout", Controllers.Logout)
	api.Get("/User", middleware.Verify(1), Controllers.CurrentUser)
	api.Post("/pin/validate", middleware.Verify(1), Controllers.ValidatePin)

	// User administration
	api.Post("/RegisterUser", middleware.Verify(4), Controllers.RegisterUser)
	api.Patch("/UpdateUser", middleware.Verify(4), Controllers.UpdateUser)
	api.Get("/FetchUsers", middleware.Verify(4), Controllers.FetchUsers)
	api.Delete("/DeleteUser/:id", middleware.Verify(4), Controllers.DeleteUser)

	// Location and time block administration
	locations := api.Group("/locations", middleware.Verify(1))
	locations.Get("/", Controllers.FetchLocations)
	locations.Post("/", middleware.Verify(4), Controllers.CreateLocation)
	locations.Put("/:id", middleware.Verify(4), Controllers.UpdateLocation)
	api.Get("/timeblocks", middleware.Verify(1), Controllers.FetchTimeBlocks)
	api.Post("/timeblocks", middleware.Verify(4), Controllers.CreateTimeBlock)

	// Template administration
	templates := api.Group("/templates", middleware.Verify(3))
	templates.Get("/", Controllers.FetchTemplates)
	templates.Post("/", Controllers.CreateTemplate)
	templates.Get("/:id", Controllers.GetTemplate)
	templates.Put("/:id", Controllers.UpdateTemplate)
	templates.Delete("/:id", middleware.Verify(4), Controllers.DeleteTemplate)

	// Worker routes
	tasklists := api.Group("/tasklists", middleware.Verify(1))
	tasklists.Get("/today/:location_id", tasklistController.GetTodayTasklists)
	tasklists.Get("/:tasklist_id/state", tasklistController.GetWorkingState)
	tasklists.Patch("/draft", tasklistController.EditDraft)
	api.Post("/tasks/complete", middleware.Verify(1), submissionController.CompleteTask)
	api.Post("/tasklists/signoff", middleware.Verify(1), submissionController.SignOff)
	api.Post("/evidence", middleware.Verify(1), Controllers.UploadEvidence)

	// Submission queries
	submissions := api.Group("/submissions", middleware.Verify(1))
	submissions.Get("/", submissionController.GetSubmissions)
	submissions.Get("/export", middleware.Verify(3), exportController.ExportSubmissions)
	submissions.Get("/:id", submissionController.GetSubmission)

	// Manager review routes
	review := api.Group("/review", middleware.Verify(3))
	review.Post("/batch", reviewController.BatchReview)
	review.Get("/rework", reviewController.GetReworkQueue)
	api.Post("/review/resubmit", middleware.Verify(1), reviewController.Resubmit)

	// Change feed
	api.Get("/changes", middleware.Verify(1), changesController.Poll)
}

func FiberConfig(store *Engine.Store, hub *Engine.Hub) {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, Models.DB, store, hub)

	// Serve evidence photos
	app.Static("/Evidence", "./Evidence", fiber.Static{Compress: true, CacheDuration: time.Second * 10})

	port := os.Getenv("PORT")
	if port == "" {
		port = ":3001"
	}
	app.Listen(port)
}
