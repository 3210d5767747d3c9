package repositories

import (
	"context"
	"testing"

	"github.com/foodshare/recipe-store/recipestore/database/models"
)

func TestUserRepositoryContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db.BunDB())
	ctx := context.Background()

	user := seedUser(t, db)

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Username != user.Username {
			t.Errorf("Username = %q, want %q", got.Username, user.Username)
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, user.Username)
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("ID = %d, want %d", got.ID, user.ID)
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		dup := &models.User{
			Username:  user.Username,
			Email:     "other@example.com",
			FirstName: "Other",
			LastName:  "User",
			Password:  "hashed",
		}
		err := repo.Create(ctx, dup)
		if !IsConflict(err) {
			t.Errorf("Create(duplicate username) error = %v, want ConflictError", err)
		}
	})

	t.Run("DefaultRole", func(t *testing.T) {
		u := &models.User{
			Username:  "norole",
			Email:     "norole@example.com",
			FirstName: "No",
			LastName:  "Role",
			Password:  "hashed",
		}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := repo.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Role != models.RoleGuest {
			t.Errorf("Role = %q, want %q", got.Role, models.RoleGuest)
		}
	})

	t.Run("SetRole", func(t *testing.T) {
		if err := repo.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
			t.Fatalf("SetRole() error = %v", err)
		}
		got, err := repo.GetByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !got.IsAdmin() {
			t.Errorf("IsAdmin() = false after SetRole(%q)", models.RoleAdmin)
		}
	})

	t.Run("SetRoleInvalid", func(t *testing.T) {
		if err := repo.SetRole(ctx, user.ID, "owner"); err == nil {
			t.Error("SetRole(invalid) = nil, want error")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999999)
		if !IsNotFound(err) {
			t.Errorf("GetByID(missing) error = %v, want NotFoundError", err)
		}
	})
}

func TestIngredientRepositoryContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewIngredientRepository(db.BunDB())
	ctx := context.Background()

	t.Run("DuplicateNameUnitPair", func(t *testing.T) {
		seedIngredient(t, db, "мука", "г")
		err := repo.Create(ctx, &models.Ingredient{Name: "мука", MeasurementUnit: "г"})
		if !IsConflict(err) {
			t.Errorf("Create(duplicate pair) error = %v, want ConflictError", err)
		}
		// Same name under a different unit is a distinct entry
		if err := repo.Create(ctx, &models.Ingredient{Name: "мука", MeasurementUnit: "стакан"}); err != nil {
			t.Errorf("Create(same name, other unit) error = %v", err)
		}
	})

	t.Run("BulkCreateSkipsExisting", func(t *testing.T) {
		batch := []*models.Ingredient{
			{Name: "мука", MeasurementUnit: "г"},
			{Name: "дрожжи", MeasurementUnit: "г"},
		}
		inserted, err := repo.BulkCreate(ctx, batch)
		if err != nil {
			t.Fatalf("BulkCreate() error = %v", err)
		}
		if inserted != 1 {
			t.Errorf("BulkCreate() inserted = %d, want 1", inserted)
		}
	})

	t.Run("SearchByNamePrefixFirst", func(t *testing.T) {
		seedIngredient(t, db, "сахар", "г")
		seedIngredient(t, db, "ванильный сахар", "г")

		got, err := repo.SearchByName(ctx, "сахар", 10)
		if err != nil {
			t.Fatalf("SearchByName() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("SearchByName() returned %d results, want 2", len(got))
		}
		if got[0].Name != "сахар" {
			t.Errorf("first result = %q, want prefix match %q", got[0].Name, "сахар")
		}
	})
}

func TestTagRepositoryContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewTagRepository(db.BunDB())
	ctx := context.Background()

	tag := &models.Tag{Name: "Выпечка", Color: "#AA3366", Slug: "baking"}
	if err := repo.Create(ctx, tag); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("GetBySlug", func(t *testing.T) {
		got, err := repo.GetBySlug(ctx, "baking")
		if err != nil {
			t.Fatalf("GetBySlug() error = %v", err)
		}
		if got.ID != tag.ID {
			t.Errorf("ID = %d, want %d", got.ID, tag.ID)
		}
	})

	t.Run("DuplicateSlug", func(t *testing.T) {
		err := repo.Create(ctx, &models.Tag{Name: "Другое", Color: "#113355", Slug: "baking"})
		if !IsConflict(err) {
			t.Errorf("Create(duplicate slug) error = %v, want ConflictError", err)
		}
	})

	t.Run("DuplicateColor", func(t *testing.T) {
		err := repo.Create(ctx, &models.Tag{Name: "Ещё", Color: "#AA3366", Slug: "more"})
		if !IsConflict(err) {
			t.Errorf("Create(duplicate color) error = %v, want ConflictError", err)
		}
	})
}

func TestRecipeRepositoryContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecipeRepository(db.BunDB())
	tagRepo := NewTagRepository(db.BunDB())
	ctx := context.Background()

	author := seedUser(t, db)
	flour := seedIngredient(t, db, "мука", "г")
	sugar := seedIngredient(t, db, "сахар", "г")

	tag := &models.Tag{Name: "Десерт", Color: "#D25587", Slug: "dessert"}
	if err := tagRepo.Create(ctx, tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        "Пирог",
		Text:        "Смешать и испечь.",
		CookingTime: 60,
	}
	quantities := []*models.QuantityIngredient{
		{IngredientID: flour.ID, Amount: 500},
		{IngredientID: sugar.ID, Amount: 200},
	}
	if err := repo.Create(ctx, recipe, quantities, []int64{tag.ID}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if recipe.ID == 0 {
		t.Fatal("Create() did not set recipe ID")
	}
	if recipe.PubDate.IsZero() {
		t.Fatal("Create() did not return pub_date")
	}

	t.Run("GetByIDLoadsRelations", func(t *testing.T) {
		got, err := repo.GetByID(ctx, recipe.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Author == nil || got.Author.ID != author.ID {
			t.Error("Author relation not loaded")
		}
		if len(got.Tags) != 1 || got.Tags[0].Slug != "dessert" {
			t.Errorf("Tags = %v, want the dessert tag", got.Tags)
		}
		if len(got.Ingredients) != 2 {
			t.Fatalf("Ingredients = %d rows, want 2", len(got.Ingredients))
		}
		for _, q := range got.Ingredients {
			if q.Ingredient == nil {
				t.Error("quantity row missing catalog relation")
			}
		}
	})

	t.Run("CookingTimeTooLow", func(t *testing.T) {
		bad := &models.Recipe{AuthorID: author.ID, Name: "x", Text: "x", CookingTime: 0}
		if err := repo.Create(ctx, bad, nil, nil); err == nil {
			t.Error("Create(cooking_time=0) = nil, want error")
		}
	})

	t.Run("AmountTooLow", func(t *testing.T) {
		bad := &models.Recipe{AuthorID: author.ID, Name: "x", Text: "x", CookingTime: 5}
		qs := []*models.QuantityIngredient{{IngredientID: flour.ID, Amount: 0}}
		if err := repo.Create(ctx, bad, qs, nil); err == nil {
			t.Error("Create(amount=0) = nil, want error")
		}
	})

	t.Run("DuplicateIngredientInRecipe", func(t *testing.T) {
		bad := &models.Recipe{AuthorID: author.ID, Name: "Дубль", Text: "x", CookingTime: 5}
		qs := []*models.QuantityIngredient{
			{IngredientID: flour.ID, Amount: 100},
			{IngredientID: flour.ID, Amount: 200},
		}
		err := repo.Create(ctx, bad, qs, nil)
		if !IsConflict(err) {
			t.Errorf("Create(duplicate ingredient) error = %v, want ConflictError", err)
		}
	})

	t.Run("UpdateKeepsPubDate", func(t *testing.T) {
		before, err := repo.GetByID(ctx, recipe.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}

		recipe.Name = "Пирог с сахаром"
		recipe.CookingTime = 75
		newQuantities := []*models.QuantityIngredient{{IngredientID: sugar.ID, Amount: 250}}
		if err := repo.Update(ctx, recipe, newQuantities, nil); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		after, err := repo.GetByID(ctx, recipe.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !after.PubDate.Equal(before.PubDate) {
			t.Errorf("PubDate changed by Update: %v -> %v", before.PubDate, after.PubDate)
		}
		if after.Name != "Пирог с сахаром" {
			t.Errorf("Name = %q, want updated name", after.Name)
		}
		if len(after.Ingredients) != 1 {
			t.Errorf("Ingredients = %d rows after Update, want 1", len(after.Ingredients))
		}
		if len(after.Tags) != 0 {
			t.Errorf("Tags = %d after Update with no tag IDs, want 0", len(after.Tags))
		}
	})

	t.Run("ListFilters", func(t *testing.T) {
		other := seedUser(t, db)
		seedRecipe(t, db, other.ID, "Суп", flour)

		got, total, err := repo.List(ctx, RecipeFilters{AuthorID: author.ID})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 1 {
			t.Errorf("List(author) total = %d, want 1", total)
		}
		if len(got) != 1 || got[0].AuthorID != author.ID {
			t.Errorf("List(author) = %v, want only the author's recipe", got)
		}

		_, total, err = repo.List(ctx, RecipeFilters{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 2 {
			t.Errorf("List() total = %d, want 2", total)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		victim := seedRecipe(t, db, author.ID, "Удаляемый", flour)
		if err := repo.Delete(ctx, victim.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.GetByID(ctx, victim.ID); !IsNotFound(err) {
			t.Errorf("GetByID(deleted) error = %v, want NotFoundError", err)
		}
	})
}

func TestFavoriteRepositoryContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewFavoriteRepository(db.BunDB())
	ctx := context.Background()

	user := seedUser(t, db)
	ing := seedIngredient(t, db, "соль", "г")
	recipe := seedRecipe(t, db, user.ID, "Каша", ing)

	if err := repo.Add(ctx, user.ID, recipe.ID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	t.Run("DuplicateAdd", func(t *testing.T) {
		err := repo.Add(ctx, user.ID, recipe.ID)
		if !IsConflict(err) {
			t.Errorf("Add(duplicate) error = %v, want ConflictError", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, user.ID, recipe.ID)
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !ok {
			t.Error("Exists() = false, want true")
		}
	})

	t.Run("ListRecipes", func(t *testing.T) {
		got, err := repo.ListRecipes(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListRecipes() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != recipe.ID {
			t.Errorf("ListRecipes() = %v, want the favorited recipe", got)
		}
	})

	t.Run("CountForRecipe", func(t *testing.T) {
		n, err := repo.CountForRecipe(ctx, recipe.ID)
		if err != nil {
			t.Fatalf("CountForRecipe() error = %v", err)
		}
		if n != 1 {
			t.Errorf("CountForRecipe() = %d, want 1", n)
		}
	})

	t.Run("UnknownRecipe", func(t *testing.T) {
		err := repo.Add(ctx, user.ID, 999999)
		if !IsInvalidReference(err) {
			t.Errorf("Add(missing recipe) error = %v, want InvalidReferenceError", err)
		}
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		if err := repo.Remove(ctx, user.ID, recipe.ID); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if err := repo.Remove(ctx, user.ID, recipe.ID); !IsNotFound(err) {
			t.Errorf("Remove(absent) error = %v, want NotFoundError", err)
		}
	})
}

func TestCartRepositoryContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartRepository(db.BunDB())
	ctx := context.Background()

	user := seedUser(t, db)
	flour := seedIngredient(t, db, "мука", "г")
	sugar := seedIngredient(t, db, "сахар", "г")

	pie := seedRecipe(t, db, user.ID, "Пирог", flour, sugar)
	bread := seedRecipe(t, db, user.ID, "Хлеб", flour)

	if err := repo.Add(ctx, user.ID, pie.ID); err != nil {
		t.Fatalf("Add(pie) error = %v", err)
	}
	if err := repo.Add(ctx, user.ID, bread.ID); err != nil {
		t.Fatalf("Add(bread) error = %v", err)
	}

	t.Run("DuplicateAdd", func(t *testing.T) {
		err := repo.Add(ctx, user.ID, pie.ID)
		if !IsConflict(err) {
			t.Errorf("Add(duplicate) error = %v, want ConflictError", err)
		}
	})

	t.Run("ShoppingListAggregates", func(t *testing.T) {
		// seedRecipe amounts: pie has flour 100 + sugar 200, bread has flour 100
		items, err := repo.ShoppingList(ctx, user.ID)
		if err != nil {
			t.Fatalf("ShoppingList() error = %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("ShoppingList() = %d lines, want 2", len(items))
		}

		byName := make(map[string]models.ShoppingItem, len(items))
		for _, item := range items {
			byName[item.Name] = item
		}
		if got := byName["мука"].Total; got != 200 {
			t.Errorf("мука total = %d, want 200", got)
		}
		if got := byName["сахар"].Total; got != 200 {
			t.Errorf("сахар total = %d, want 200", got)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := repo.Clear(ctx, user.ID); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := repo.ListRecipes(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListRecipes() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("ListRecipes() after Clear = %d recipes, want 0", len(got))
		}
	})
}
