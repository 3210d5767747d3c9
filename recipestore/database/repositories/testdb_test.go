package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/foodshare/recipe-store/recipestore/database"
	"github.com/foodshare/recipe-store/recipestore/database/models"
)

// openTestDB connects to the database named by PG_DSN, drops the
// application tables and recreates the schema. Destructive: point it at a
// throwaway database only.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set; skipping Postgres contract tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := database.NewFromDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if err := db.ResetAppTables(ctx); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		t.Fatalf("initialize schema: %v", err)
	}

	return db
}

var userSeq int

// seedUser inserts a user with unique username/email and returns it.
func seedUser(t *testing.T, db *database.DB) *models.User {
	t.Helper()
	userSeq++

	user := &models.User{
		Username:  fmt.Sprintf("user%d", userSeq),
		Email:     fmt.Sprintf("user%d@example.com", userSeq),
		FirstName: "Test",
		LastName:  "User",
		Password:  "hashed",
		Role:      models.RoleAuthorized,
	}
	repo := NewUserRepository(db.BunDB())
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// seedIngredient inserts a catalog entry and returns it.
func seedIngredient(t *testing.T, db *database.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	repo := NewIngredientRepository(db.BunDB())
	if err := repo.Create(context.Background(), ing); err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
	return ing
}

// seedRecipe inserts a minimal recipe with one quantity row and no tags.
func seedRecipe(t *testing.T, db *database.DB, authorID int64, name string, ings ...*models.Ingredient) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Text:        "Cook it.",
		CookingTime: 30,
	}
	var quantities []*models.QuantityIngredient
	for i, ing := range ings {
		quantities = append(quantities, &models.QuantityIngredient{
			IngredientID: ing.ID,
			Amount:       100 * (i + 1),
		})
	}

	repo := NewRecipeRepository(db.BunDB())
	if err := repo.Create(context.Background(), recipe, quantities, nil); err != nil {
		t.Fatalf("seed recipe %s: %v", name, err)
	}
	return recipe
}
