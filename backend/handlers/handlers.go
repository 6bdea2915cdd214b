package handlers

import (
	"github.com/bountydex/bountydex/backend/config"
	"github.com/bountydex/bountydex/backend/models"
	"github.com/bountydex/bountydex/backend/utils"
	"github.com/bountydex/bountydex/bountydex/database"
	"github.com/bountydex/bountydex/bountydex/services"
	"github.com/gofiber/fiber/v2"
)

// WebApp carries everything the handlers need.
type WebApp struct {
	Config  *config.WebAppConfig
	DB      *database.DB
	Repos   *models.Repositories
	Lookup  *services.LookupService
	Version string
	Commit  string
}

// HealthCheck reports API and database health.
func HealthCheck(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		dbStatus := "ok"
		if err := app.DB.Ping(c.UserContext()); err != nil {
			status = "degraded"
			dbStatus = err.Error()
		}
		return utils.SendJSON(c, fiber.StatusOK, fiber.Map{
			"status":   status,
			"database": dbStatus,
			"version":  app.Version,
		})
	}
}
