package handlers

import (
	"strconv"

	webmodels "github.com/bountydex/bountydex/backend/models"
	"github.com/bountydex/bountydex/backend/utils"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/gofiber/fiber/v2"
)

// DecksCreate creates an empty deck.
func DecksCreate(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.DeckCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "invalid request body", nil)
		}
		if req.Name == "" || req.UserID == "" {
			return utils.SendBadRequest(c, "name and user_id are required", nil)
		}

		deck := &models.Deck{
			Name:   req.Name,
			Leader: req.Leader,
			UserID: req.UserID,
		}
		if err := app.Repos.Deck.Create(c.UserContext(), deck); err != nil {
			return err
		}
		return utils.SendCreated(c, deck, "deck created")
	}
}

// DecksList returns a user's decks.
func DecksList(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return utils.SendBadRequest(c, "missing query parameter user_id", nil)
		}

		decks, err := app.Repos.Deck.GetByUser(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return utils.SendSuccess(c, decks, "")
	}
}

// DecksDetail returns one deck with its card list.
func DecksDetail(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deck, err := app.Repos.Deck.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "deck not found")
			}
			return err
		}
		return utils.SendSuccess(c, deck, "")
	}
}

// DecksUpdate renames a deck or changes its leader.
func DecksUpdate(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.DeckUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "invalid request body", nil)
		}

		deck := &models.Deck{
			ID:     c.Params("id"),
			Name:   req.Name,
			Leader: req.Leader,
		}
		if err := app.Repos.Deck.Update(c.UserContext(), deck); err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "deck not found")
			}
			return err
		}
		return utils.SendSuccess(c, deck, "deck updated")
	}
}

// DecksDelete removes a deck and its entries.
func DecksDelete(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := app.Repos.Deck.Delete(c.UserContext(), c.Params("id")); err != nil {
			return err
		}
		return utils.SendNoContent(c)
	}
}

// DecksAddCard adds or replaces one card entry in a deck.
func DecksAddCard(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.DeckCardRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "invalid request body", nil)
		}
		if req.CardID == 0 || req.Quantity < 1 {
			return utils.SendBadRequest(c, "card_id and a positive quantity are required", nil)
		}
		if req.CardFoil == "" {
			req.CardFoil = "Normal"
		}

		entry := &models.DeckCard{
			DeckID:   c.Params("id"),
			CardID:   req.CardID,
			CardFoil: req.CardFoil,
			Quantity: req.Quantity,
		}
		if err := app.Repos.Deck.AddCard(c.UserContext(), entry); err != nil {
			return err
		}
		return utils.SendCreated(c, entry, "card added to deck")
	}
}

// DecksRemoveCard removes one card entry from a deck.
func DecksRemoveCard(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cardID, err := strconv.ParseInt(c.Params("cardID"), 10, 64)
		if err != nil {
			return utils.SendBadRequest(c, "invalid card id", nil)
		}

		if err := app.Repos.Deck.RemoveCard(c.UserContext(), c.Params("id"), cardID); err != nil {
			return err
		}
		return utils.SendNoContent(c)
	}
}
