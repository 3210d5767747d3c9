package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Favorite marks a recipe as favorited by a user. One row per
// (user, recipe) pair; rows cascade away with either side.
type Favorite struct {
	bun.BaseModel `bun:"table:favorites,alias:f"`

	ID       int64 `bun:"id,pk,autoincrement"`
	UserID   int64 `bun:"user_id,notnull"`
	RecipeID int64 `bun:"recipe_id,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
	Recipe *Recipe `bun:"rel:belongs-to,join:recipe_id=id"`
}
