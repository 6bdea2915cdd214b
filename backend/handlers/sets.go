package handlers

import (
	"strconv"

	"github.com/bountydex/bountydex/backend/utils"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/gofiber/fiber/v2"
)

// SetsList returns every known set.
func SetsList(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sets, err := app.Repos.Set.GetAll(c.UserContext())
		if err != nil {
			return err
		}
		return utils.SendSuccess(c, sets, "")
	}
}

// SetsDetail returns one set by its upstream id.
func SetsDetail(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "invalid set id", nil)
		}

		set, err := app.Repos.Set.GetByID(c.UserContext(), id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "set not found")
			}
			return err
		}
		return utils.SendSuccess(c, set, "")
	}
}
