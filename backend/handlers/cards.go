package handlers

import (
	"strconv"

	webmodels "github.com/bountydex/bountydex/backend/models"
	"github.com/bountydex/bountydex/backend/utils"
	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/gofiber/fiber/v2"
)

// CardsList returns a page of the catalog.
func CardsList(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		limit := c.QueryInt("limit", config.DefaultPageSize)
		if limit < 1 || limit > config.MaxPageSize {
			limit = config.DefaultPageSize
		}

		cards, total, err := app.Repos.Card.List(c.UserContext(), (page-1)*limit, limit)
		if err != nil {
			return err
		}

		pagination := webmodels.NewPaginationInfo(page, limit, int64(total))
		return utils.SendPaginated(c, cards, pagination, "")
	}
}

// CardsDetail returns one catalog row by surrogate id.
func CardsDetail(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "invalid card id", nil)
		}

		card, err := app.Repos.Card.GetByID(c.UserContext(), id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "card not found")
			}
			return err
		}
		return utils.SendSuccess(c, card, "")
	}
}

// CardsByCode returns every printing behind a card code, canonical first.
func CardsByCode(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		variants, err := app.Lookup.Variants(c.UserContext(), c.Params("code"))
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "card code not found")
			}
			return err
		}
		return utils.SendSuccess(c, variants, "")
	}
}

// CardsSearch fuzzy-matches card names.
func CardsSearch(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return utils.SendBadRequest(c, "missing query parameter q", nil)
		}

		results, err := app.Lookup.SearchByName(c.UserContext(), query, c.QueryInt("limit", 0))
		if err != nil {
			return err
		}
		return utils.SendSuccess(c, results, "")
	}
}

// CardsCreate inserts a hand-maintained catalog row.
func CardsCreate(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.CardCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "invalid request body", nil)
		}
		if req.ProductID == 0 || req.Name == "" {
			return utils.SendBadRequest(c, "product_id and name are required", nil)
		}

		card := req.ToCard()
		if err := app.Repos.Card.Create(c.UserContext(), card); err != nil {
			return utils.SendConflict(c, "card already exists for this product and foil", nil)
		}
		return utils.SendCreated(c, card, "card created")
	}
}

// CardsUpdate overwrites one catalog row.
func CardsUpdate(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "invalid card id", nil)
		}

		var req webmodels.CardCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "invalid request body", nil)
		}

		card := req.ToCard()
		card.ID = id
		if err := app.Repos.Card.Update(c.UserContext(), card); err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "card not found")
			}
			return err
		}
		return utils.SendSuccess(c, card, "card updated")
	}
}

// CardsDelete removes one catalog row.
func CardsDelete(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "invalid card id", nil)
		}

		if err := app.Repos.Card.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return utils.SendNoContent(c)
	}
}
