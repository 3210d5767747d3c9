package repositories

import (
	"context"
	"time"

	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"
)

type CartRepository interface {
	// Add puts a recipe into a user's cart. Adding twice returns a
	// ConflictError from the unique_for_carts constraint.
	Add(ctx context.Context, userID, recipeID int64) error
	Remove(ctx context.Context, userID, recipeID int64) error
	Exists(ctx context.Context, userID, recipeID int64) (bool, error)
	ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error)
	// ShoppingList aggregates ingredient amounts over every recipe in the
	// user's cart: one line per (name, unit), alphabetical.
	ShoppingList(ctx context.Context, userID int64) ([]models.ShoppingItem, error)
	Clear(ctx context.Context, userID int64) error
}

type cartRepository struct {
	*BaseRepository
}

func NewCartRepository(db *bun.DB) CartRepository {
	return &cartRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *cartRepository) Add(ctx context.Context, userID, recipeID int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := &models.Cart{
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
	_, err := r.GetDB().NewInsert().Model(entry).Exec(ctx)
	return r.HandleError("add", "cart", err)
}

func (r *cartRepository) Remove(ctx context.Context, userID, recipeID int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewDelete().
		Model((*models.Cart)(nil)).
		Where("user_id = ?", userID).
		Where("recipe_id = ?", recipeID).
		Exec(ctx)
	if err != nil {
		return r.HandleError("remove", "cart", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "cart", ID: recipeID}
	}
	return nil
}

func (r *cartRepository) Exists(ctx context.Context, userID, recipeID int64) (bool, error) {
	q := r.GetDB().NewSelect().
		Model((*models.Cart)(nil)).
		Where("user_id = ?", userID).
		Where("recipe_id = ?", recipeID)
	return r.BaseRepository.Exists(ctx, "cart", q)
}

func (r *cartRepository) ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipes []*models.Recipe
	err := r.GetDB().NewSelect().
		Model(&recipes).
		Relation("Author").
		Relation("Tags").
		Where("r.id IN (SELECT recipe_id FROM carts WHERE user_id = ?)", userID).
		Order("r.pub_date DESC").
		Scan(ctx)
	return recipes, r.HandleError("list_recipes", "cart", err)
}

func (r *cartRepository) ShoppingList(ctx context.Context, userID int64) ([]models.ShoppingItem, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var items []models.ShoppingItem
	err := r.GetDB().NewSelect().
		ColumnExpr("i.name AS name").
		ColumnExpr("i.measurement_unit AS measurement_unit").
		ColumnExpr("SUM(qi.amount) AS total").
		TableExpr("carts AS c").
		Join("JOIN quantity_ingredients AS qi ON qi.recipe_id = c.recipe_id").
		Join("JOIN ingredients AS i ON i.id = qi.ingredient_id").
		Where("c.user_id = ?", userID).
		GroupExpr("i.name, i.measurement_unit").
		OrderExpr("i.name ASC, i.measurement_unit ASC").
		Scan(ctx, &items)
	return items, r.HandleError("shopping_list", "cart", err)
}

func (r *cartRepository) Clear(ctx context.Context, userID int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.GetDB().NewDelete().
		Model((*models.Cart)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return r.HandleError("clear", "cart", err)
}
