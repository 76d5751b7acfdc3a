package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/iimmbipul/whattocook/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all planning logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.PlannerService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/days", ListDays(svc))
	app.Get("/days/:date", GetDay(svc))
	app.Patch("/days/:key", UpdateDay(svc))
	app.Post("/days/:key/attendance", ToggleAttendance(svc))
	app.Put("/days/:key/responsibility", AssignResponsibility(svc))
	app.Post("/days/responsibility/bulk", BulkAssignResponsibility(svc))
	app.Post("/days/migrate", MigrateMonth(svc))
	app.Get("/snapshots/*", SnapshotLink(svc))

	app.Get("/users/:userId/meals", UserMeals(svc))
}
