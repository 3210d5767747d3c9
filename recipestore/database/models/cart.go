package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Cart puts a recipe into a user's shopping cart. Same shape and
// constraints as Favorite, kept separate so the two lists evolve
// independently.
type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:c"`

	ID       int64 `bun:"id,pk,autoincrement"`
	UserID   int64 `bun:"user_id,notnull"`
	RecipeID int64 `bun:"recipe_id,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
	Recipe *Recipe `bun:"rel:belongs-to,join:recipe_id=id"`
}

// ShoppingItem is one aggregated line of a user's shopping list: the
// summed amount of an ingredient across every recipe in the cart.
type ShoppingItem struct {
	Name            string `bun:"name"`
	MeasurementUnit string `bun:"measurement_unit"`
	Total           int64  `bun:"total"`
}
