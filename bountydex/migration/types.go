// types.go
package migration

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoDeck is a legacy deck document as stored by the old tracker.
type MongoDeck struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Leader   string             `bson:"leader"`
	UserID   string             `bson:"user_id"`
	Created  primitive.DateTime `bson:"created"`
	CardList []MongoDeckCard    `bson:"cards"`
}

// MongoDeckCard references a card by its printed code, not by any database
// id. Codes carry an "f" suffix when the legacy tracker meant the foil
// printing of the card.
type MongoDeckCard struct {
	Code     string `bson:"code"`
	Quantity int32  `bson:"quantity"`
}
