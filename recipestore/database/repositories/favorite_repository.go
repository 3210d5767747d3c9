package repositories

import (
	"context"
	"time"

	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"
)

type FavoriteRepository interface {
	// Add favorites a recipe for a user. Favoriting twice returns a
	// ConflictError from the unique_for_favorite constraint.
	Add(ctx context.Context, userID, recipeID int64) error
	Remove(ctx context.Context, userID, recipeID int64) error
	Exists(ctx context.Context, userID, recipeID int64) (bool, error)
	ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error)
	CountForRecipe(ctx context.Context, recipeID int64) (int, error)
}

type favoriteRepository struct {
	*BaseRepository
}

func NewFavoriteRepository(db *bun.DB) FavoriteRepository {
	return &favoriteRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, recipeID int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	fav := &models.Favorite{
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
	_, err := r.GetDB().NewInsert().Model(fav).Exec(ctx)
	return r.HandleError("add", "favorite", err)
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, recipeID int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewDelete().
		Model((*models.Favorite)(nil)).
		Where("user_id = ?", userID).
		Where("recipe_id = ?", recipeID).
		Exec(ctx)
	if err != nil {
		return r.HandleError("remove", "favorite", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "favorite", ID: recipeID}
	}
	return nil
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, recipeID int64) (bool, error) {
	q := r.GetDB().NewSelect().
		Model((*models.Favorite)(nil)).
		Where("user_id = ?", userID).
		Where("recipe_id = ?", recipeID)
	return r.BaseRepository.Exists(ctx, "favorite", q)
}

func (r *favoriteRepository) ListRecipes(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipes []*models.Recipe
	err := r.GetDB().NewSelect().
		Model(&recipes).
		Relation("Author").
		Relation("Tags").
		Where("r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)", userID).
		Order("r.pub_date DESC").
		Scan(ctx)
	return recipes, r.HandleError("list_recipes", "favorite", err)
}

func (r *favoriteRepository) CountForRecipe(ctx context.Context, recipeID int64) (int, error) {
	q := r.GetDB().NewSelect().
		Model((*models.Favorite)(nil)).
		Where("recipe_id = ?", recipeID)
	return r.Count(ctx, "favorite", q)
}
