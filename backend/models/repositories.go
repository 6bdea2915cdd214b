package models

import (
	"github.com/bountydex/bountydex/bountydex/database/repositories"
)

// Repositories groups all repository interfaces for easy injection
type Repositories struct {
	Set     repositories.CardSetRepository
	Card    repositories.CardRepository
	History repositories.CardHistoryRepository
	Deck    repositories.DeckRepository
}

// NewRepositories creates a new repositories group from individual repositories
func NewRepositories(
	set repositories.CardSetRepository,
	card repositories.CardRepository,
	history repositories.CardHistoryRepository,
	deck repositories.DeckRepository,
) *Repositories {
	return &Repositories{
		Set:     set,
		Card:    card,
		History: history,
		Deck:    deck,
	}
}
