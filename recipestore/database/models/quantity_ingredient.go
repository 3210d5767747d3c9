package models

import "github.com/uptrace/bun"

// QuantityIngredient is the recipe↔ingredient join carrying the amount,
// expressed in the ingredient's measurement unit. An ingredient appears in
// a recipe at most once.
type QuantityIngredient struct {
	bun.BaseModel `bun:"table:quantity_ingredients,alias:qi"`

	ID           int64 `bun:"id,pk,autoincrement"`
	IngredientID int64 `bun:"ingredient_id,notnull"`
	RecipeID     int64 `bun:"recipe_id,notnull"`
	Amount       int   `bun:"amount,notnull,default:1"`

	Ingredient *Ingredient `bun:"rel:belongs-to,join:ingredient_id=id"`
	Recipe     *Recipe     `bun:"rel:belongs-to,join:recipe_id=id"`
}

// MinIngredientAmount is the smallest accepted amount of an ingredient.
const MinIngredientAmount = 1
