package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"
)

type RecipeRepository interface {
	// Create inserts the recipe together with its ingredient quantities
	// and tag links in one transaction.
	Create(ctx context.Context, recipe *models.Recipe, quantities []*models.QuantityIngredient, tagIDs []int64) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe, quantities []*models.QuantityIngredient, tagIDs []int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filters RecipeFilters) ([]*models.Recipe, int, error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)
}

type recipeRepository struct {
	*BaseRepository
}

func NewRecipeRepository(db *bun.DB) RecipeRepository {
	return &recipeRepository{BaseRepository: NewBaseRepository(db)}
}

func validateRecipeInput(recipe *models.Recipe, quantities []*models.QuantityIngredient) error {
	if fieldTooLong(recipe.Name, config.MaxRecipeNameLength) {
		return fmt.Errorf("recipe name exceeds %d characters", config.MaxRecipeNameLength)
	}
	if recipe.CookingTime < models.MinCookingTime {
		return fmt.Errorf("cooking time must be at least %d minute", models.MinCookingTime)
	}
	for _, q := range quantities {
		if q.Amount < models.MinIngredientAmount {
			return fmt.Errorf("ingredient amount must be at least %d", models.MinIngredientAmount)
		}
	}
	return nil
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, quantities []*models.QuantityIngredient, tagIDs []int64) error {
	if err := validateRecipeInput(recipe, quantities); err != nil {
		return err
	}

	recipe.UpdatedAt = time.Now()

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		// PubDate comes from the column default, set once on insert
		if _, err := tx.NewInsert().
			Model(recipe).
			ExcludeColumn("pub_date").
			Returning("id, pub_date").
			Exec(ctx); err != nil {
			return err
		}

		for _, q := range quantities {
			q.RecipeID = recipe.ID
		}
		if len(quantities) > 0 {
			if _, err := tx.NewInsert().Model(&quantities).Exec(ctx); err != nil {
				return err
			}
		}

		if len(tagIDs) > 0 {
			links := make([]*models.RecipeTag, 0, len(tagIDs))
			for _, tagID := range tagIDs {
				links = append(links, &models.RecipeTag{RecipeID: recipe.ID, TagID: tagID})
			}
			if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return r.HandleError("create", "recipe", err)
	}

	slog.Debug("Recipe created",
		slog.String("type", "db"),
		slog.String("operation", "Create"),
		slog.Int64("recipe_id", recipe.ID),
		slog.Int64("author_id", recipe.AuthorID),
		slog.Int("ingredients", len(quantities)),
		slog.Int("tags", len(tagIDs)))
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	recipe := new(models.Recipe)
	err := r.GetDB().NewSelect().
		Model(recipe).
		Relation("Author").
		Relation("Tags").
		Relation("Ingredients").
		Relation("Ingredients.Ingredient").
		Where("r.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "recipe", id, err)
	}
	return recipe, nil
}

// Update rewrites the recipe row and replaces its quantities and tag links.
// PubDate is immutable.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe, quantities []*models.QuantityIngredient, tagIDs []int64) error {
	if err := validateRecipeInput(recipe, quantities); err != nil {
		return err
	}

	recipe.UpdatedAt = time.Now()

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(recipe).
			ExcludeColumn("pub_date").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Entity: "recipe", ID: recipe.ID}
		}

		if _, err := tx.NewDelete().
			Model((*models.QuantityIngredient)(nil)).
			Where("recipe_id = ?", recipe.ID).
			Exec(ctx); err != nil {
			return err
		}
		for _, q := range quantities {
			q.RecipeID = recipe.ID
		}
		if len(quantities) > 0 {
			if _, err := tx.NewInsert().Model(&quantities).Exec(ctx); err != nil {
				return err
			}
		}

		if _, err := tx.NewDelete().
			Model((*models.RecipeTag)(nil)).
			Where("recipe_id = ?", recipe.ID).
			Exec(ctx); err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			links := make([]*models.RecipeTag, 0, len(tagIDs))
			for _, tagID := range tagIDs {
				links = append(links, &models.RecipeTag{RecipeID: recipe.ID, TagID: tagID})
			}
			if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return err
		}
		return r.HandleErrorWithID("update", "recipe", recipe.ID, err)
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	// Quantities, tag links, favorites and cart rows cascade in the database
	res, err := r.GetDB().NewDelete().
		Model((*models.Recipe)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("delete", "recipe", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "recipe", ID: id}
	}
	return nil
}

// List returns a page of recipes matching the filters plus the total match
// count, newest first.
func (r *recipeRepository) List(ctx context.Context, filters RecipeFilters) ([]*models.Recipe, int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	limit := filters.Limit
	if limit <= 0 || limit > config.MaxPageSize {
		limit = config.DefaultPageSize
	}

	var recipes []*models.Recipe
	q := r.GetDB().NewSelect().
		Model(&recipes).
		Relation("Author").
		Relation("Tags")

	q = applyRecipeFilters(q, filters)

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, r.HandleError("list", "recipe", err)
	}

	err = q.Order("r.pub_date DESC").
		Limit(limit).
		Offset(filters.Offset).
		Scan(ctx)
	if err != nil {
		return nil, 0, r.HandleError("list", "recipe", err)
	}
	return recipes, total, nil
}

func applyRecipeFilters(q *bun.SelectQuery, filters RecipeFilters) *bun.SelectQuery {
	if filters.AuthorID != 0 {
		q = q.Where("r.author_id = ?", filters.AuthorID)
	}
	if filters.Name != "" {
		q = q.Where("LOWER(r.name) LIKE ?", strings.ToLower(filters.Name)+"%")
	}
	if len(filters.TagSlugs) > 0 {
		q = q.Where(`r.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags tg ON tg.id = rt.tag_id
			WHERE tg.slug IN (?)
		)`, bun.In(filters.TagSlugs))
	}
	if filters.FavoritedBy != 0 {
		q = q.Where("r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)", filters.FavoritedBy)
	}
	if filters.InCartOf != 0 {
		q = q.Where("r.id IN (SELECT recipe_id FROM carts WHERE user_id = ?)", filters.InCartOf)
	}
	return q
}

func (r *recipeRepository) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	q := r.GetDB().NewSelect().
		Model((*models.Recipe)(nil)).
		Where("author_id = ?", authorID)
	return r.Count(ctx, "recipe", q)
}
