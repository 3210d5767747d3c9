package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Recipe is the central entity. Ingredients attach through
// QuantityIngredient rows, tags through the recipe_tags join table.
// PubDate is set by the database on insert and never updated.
type Recipe struct {
	bun.BaseModel `bun:"table:recipes,alias:r"`

	ID          int64     `bun:"id,pk,autoincrement"`
	AuthorID    int64     `bun:"author_id,notnull"`
	Name        string    `bun:"name,notnull,type:varchar(100)"`
	Image       string    `bun:"image,notnull,default:''"`
	Text        string    `bun:"text,notnull"`
	CookingTime int       `bun:"cooking_time,notnull"`
	PubDate     time.Time `bun:"pub_date,notnull,default:current_timestamp"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	// Relations
	Author      *User                 `bun:"rel:belongs-to,join:author_id=id"`
	Tags        []*Tag                `bun:"m2m:recipe_tags,join:Recipe=Tag"`
	Ingredients []*QuantityIngredient `bun:"rel:has-many,join:id=recipe_id"`
}

// MinCookingTime is the smallest accepted cooking time, in minutes.
const MinCookingTime = 1

// RecipeTag links recipes and tags. A (recipe, tag) pair appears at most
// once; rows go away with either side.
type RecipeTag struct {
	bun.BaseModel `bun:"table:recipe_tags,alias:rt"`

	ID       int64 `bun:"id,pk,autoincrement"`
	RecipeID int64 `bun:"recipe_id,notnull"`
	TagID    int64 `bun:"tag_id,notnull"`

	Recipe *Recipe `bun:"rel:belongs-to,join:recipe_id=id"`
	Tag    *Tag    `bun:"rel:belongs-to,join:tag_id=id"`
}
