package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"
)

type IngredientRepository interface {
	Create(ctx context.Context, ingredient *models.Ingredient) error
	BulkCreate(ctx context.Context, ingredients []*models.Ingredient) (int, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	GetAll(ctx context.Context) ([]*models.Ingredient, error)
	SearchByName(ctx context.Context, query string, limit int) ([]*models.Ingredient, error)
	Update(ctx context.Context, ingredient *models.Ingredient) error
	Delete(ctx context.Context, id int64) error
}

type ingredientRepository struct {
	*BaseRepository
	cache *sync.Map // id -> *models.Ingredient, hot catalog lookups
}

func NewIngredientRepository(db *bun.DB) IngredientRepository {
	return &ingredientRepository{
		BaseRepository: NewBaseRepository(db),
		cache:          &sync.Map{},
	}
}

func validateIngredient(ingredient *models.Ingredient) error {
	if fieldTooLong(ingredient.Name, config.MaxIngredientNameLength) {
		return fmt.Errorf("ingredient name exceeds %d characters", config.MaxIngredientNameLength)
	}
	if fieldTooLong(ingredient.MeasurementUnit, config.MaxMeasurementUnitLength) {
		return fmt.Errorf("measurement unit exceeds %d characters", config.MaxMeasurementUnitLength)
	}
	return nil
}

func (r *ingredientRepository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if err := validateIngredient(ingredient); err != nil {
		return err
	}

	ingredient.CreatedAt = time.Now()
	ingredient.UpdatedAt = time.Now()

	_, err := r.GetDB().NewInsert().
		Model(ingredient).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return r.HandleError("create", "ingredient", err)
	}

	r.cache.Store(ingredient.ID, ingredient)
	return nil
}

func (r *ingredientRepository) BulkCreate(ctx context.Context, ingredients []*models.Ingredient) (int, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithCustomTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	now := time.Now()
	for _, ing := range ingredients {
		if err := validateIngredient(ing); err != nil {
			return 0, err
		}
		ing.CreatedAt = now
		ing.UpdatedAt = now
	}

	inserted := 0
	for start := 0; start < len(ingredients); start += config.MaxBatchSize {
		end := start + config.MaxBatchSize
		if end > len(ingredients) {
			end = len(ingredients)
		}
		batch := ingredients[start:end]

		res, err := r.GetDB().NewInsert().
			Model(&batch).
			On("CONFLICT ON CONSTRAINT unique_ingredient DO NOTHING").
			Exec(ctx)
		if err != nil {
			return inserted, r.HandleError("bulk_create", "ingredient", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	if cached, ok := r.cache.Load(id); ok {
		return cached.(*models.Ingredient), nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ingredient := new(models.Ingredient)
	err := r.GetDB().NewSelect().
		Model(ingredient).
		Where("i.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "ingredient", id, err)
	}

	r.cache.Store(id, ingredient)
	return ingredient, nil
}

func (r *ingredientRepository) GetAll(ctx context.Context) ([]*models.Ingredient, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var ingredients []*models.Ingredient
	err := r.GetDB().NewSelect().
		Model(&ingredients).
		Order("name ASC").
		Scan(ctx)
	return ingredients, r.HandleError("get_all", "ingredient", err)
}

// SearchByName returns prefix matches first, then substring matches,
// alphabetical within each group. Matching is case-insensitive.
func (r *ingredientRepository) SearchByName(ctx context.Context, query string, limit int) ([]*models.Ingredient, error) {
	ctx, cancel := r.WithCustomTimeout(ctx, config.SearchTimeout)
	defer cancel()

	if limit <= 0 || limit > config.MaxSearchResults {
		limit = config.MaxSearchResults
	}

	pattern := strings.ToLower(strings.TrimSpace(query))
	if pattern == "" {
		return nil, nil
	}

	var ingredients []*models.Ingredient
	err := r.GetDB().NewSelect().
		Model(&ingredients).
		Where("LOWER(name) LIKE ?", pattern+"%").
		WhereOr("LOWER(name) LIKE ?", "%"+pattern+"%").
		OrderExpr("CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END, name ASC", pattern+"%").
		Limit(limit).
		Scan(ctx)
	return ingredients, r.HandleError("search", "ingredient", err)
}

func (r *ingredientRepository) Update(ctx context.Context, ingredient *models.Ingredient) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if err := validateIngredient(ingredient); err != nil {
		return err
	}

	ingredient.UpdatedAt = time.Now()
	res, err := r.GetDB().NewUpdate().
		Model(ingredient).
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "ingredient", ingredient.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "ingredient", ID: ingredient.ID}
	}

	r.cache.Store(ingredient.ID, ingredient)
	return nil
}

func (r *ingredientRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewDelete().
		Model((*models.Ingredient)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "ingredient", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "ingredient", ID: id}
	}

	r.cache.Delete(id)
	return nil
}
