package handlers

import (
	webmodels "github.com/bountydex/bountydex/backend/models"
	"github.com/bountydex/bountydex/backend/utils"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/gofiber/fiber/v2"
)

// HistoryList returns the price series for one card. The card_id filter is
// required: the unfiltered table runs to millions of rows, so its absence
// yields an empty list rather than a full dump.
func HistoryList(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cardID := c.QueryInt("card_id", 0)
		if cardID == 0 {
			return utils.SendSuccess(c, []webmodels.HistoryPoint{}, "")
		}

		rows, err := app.Repos.History.GetByCard(c.UserContext(), int64(cardID))
		if err != nil {
			return err
		}
		return utils.SendSuccess(c, historyResponse(int64(cardID), rows), "")
	}
}

// HistoryByCode returns the combined series for every printing of a card
// code, resolved through the canonical lookup.
func HistoryByCode(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		card, err := app.Lookup.Canonical(c.UserContext(), c.Params("code"))
		if err != nil {
			if repositories.IsNotFound(err) {
				return utils.SendNotFound(c, "card code not found")
			}
			return err
		}

		rows, err := app.Repos.History.GetByCard(c.UserContext(), card.ID)
		if err != nil {
			return err
		}
		return utils.SendSuccess(c, historyResponse(card.ID, rows), "")
	}
}

func historyResponse(cardID int64, rows []*models.CardHistory) *webmodels.HistoryResponse {
	points := make([]webmodels.HistoryPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, webmodels.NewHistoryPoint(row.HistoryDate, row.MarketPrice))
	}
	return &webmodels.HistoryResponse{CardID: cardID, Points: points}
}
