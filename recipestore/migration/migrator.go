package migration

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/foodshare/recipe-store/recipestore/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Migrator moves data from the previous deployment's MongoDB (dump files
// or a live database) into Postgres. Users and the ingredient catalog go
// first, then recipes with their embedded quantities, tag links, favorites
// and cart entries.
type Migrator struct {
	pgDB            *bun.DB
	dataDir         string
	usersPath       string
	ingredientsPath string
	recipesPath     string
	batchSize       int
	workers         int
	// Statistics tracking
	stats MigrationStats
	// Optional direct Mongo access
	mongoDB *mongo.Database
	// Mongo collection names (overrideable)
	collNames map[string]string
	// Optional: use pgx CopyFrom for fastest bulk inserts
	useCopy bool
	pool    *pgxpool.Pool
}

func NewMigrator(pgDB *bun.DB, dataDir string) *Migrator {
	return &Migrator{
		pgDB:            pgDB,
		dataDir:         dataDir,
		usersPath:       filepath.Join(dataDir, "users.bson"),
		ingredientsPath: filepath.Join(dataDir, "ingredients.bson"),
		recipesPath:     filepath.Join(dataDir, "recipes.bson"),
		batchSize:       config.MaxBatchSize,
		workers:         config.ImportWorkers,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		collNames: map[string]string{
			"users":       "users",
			"ingredients": "ingredients",
			"recipes":     "recipes",
		},
	}
}

// SetBatchSize overrides the default batch size for inserts (useful for poolers/timeouts)
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetWorkers bounds the concurrency of join-table inserts
func (m *Migrator) SetWorkers(n int) {
	if n > 0 {
		m.workers = n
	}
}

// SetUseCopy enables COPY FROM mode using pgx (fast path)
func (m *Migrator) SetUseCopy(v bool) { m.useCopy = v }

// UsePool sets the pgx pool for COPY operations
func (m *Migrator) UsePool(pool *pgxpool.Pool) { m.pool = pool }

// UseMongo enables direct-from-Mongo migration mode
func (m *Migrator) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		m.mongoDB = client.Database(dbName)
	}
}

// SetMongoCollectionName overrides the collection name for a given kind
func (m *Migrator) SetMongoCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) getColl(kind string) *mongo.Collection {
	if m.mongoDB == nil {
		return nil
	}
	return m.mongoDB.Collection(m.collNames[kind])
}

// Stats returns the accumulated migration statistics.
func (m *Migrator) Stats() MigrationStats {
	return m.stats
}

// MigrateAll runs the full import. Step order preserves referential
// integrity: recipes need both users and the ingredient catalog.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	logProgress("Starting legacy data import")
	logProgress(fmt.Sprintf("Data directory: %s", m.dataDir))

	m.stats.StartTime = time.Now()

	steps := []struct {
		name    string
		migrate func(context.Context) error
	}{
		{"users", m.MigrateUsers},
		{"ingredients", m.MigrateIngredients},
		{"recipes", m.MigrateRecipes},
	}

	for _, step := range steps {
		logProgress(fmt.Sprintf("Starting migration step: %s", step.name))
		if err := step.migrate(ctx); err != nil {
			return fmt.Errorf("migration step %s failed: %w", step.name, err)
		}
	}

	m.stats.EndTime = time.Now()
	m.Report()
	return nil
}

// Report logs a per-table summary of the finished import.
func (m *Migrator) Report() {
	for name, t := range m.stats.Tables {
		slog.Info("Import table summary",
			slog.String("type", "import"),
			slog.String("table", name),
			slog.Int("processed", t.Processed),
			slog.Int("successful", t.Successful),
			slog.Int("skipped", t.Skipped),
			slog.Int("errors", t.Errors))
	}
	slog.Info("Import finished",
		slog.String("type", "import"),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)),
		slog.Int("total_processed", m.stats.TotalProcessed),
		slog.Int("total_skipped", m.stats.TotalSkipped),
		slog.Int("total_errors", m.stats.TotalErrors))
}

func (m *Migrator) tableStats(name string) *TableStats {
	t, ok := m.stats.Tables[name]
	if !ok {
		t = &TableStats{TableName: name}
		m.stats.Tables[name] = t
	}
	return t
}

func (m *Migrator) recordSkip(table, reason, key string) {
	t := m.tableStats(table)
	t.Skipped++
	t.SkippedRecords = append(t.SkippedRecords, SkippedRecord{Reason: reason, Key: key})
	m.stats.TotalSkipped++
}

// streamBSONFile reads a mongodump-style file: documents concatenated
// back to back, each starting with its little-endian int32 total length
func streamBSONFile(path string, fn func(raw []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open BSON file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		lengthBytes := make([]byte, 4)
		_, err := io.ReadFull(reader, lengthBytes)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read document length: %w", err)
		}

		length := int32(binary.LittleEndian.Uint32(lengthBytes))
		if length <= 4 {
			return fmt.Errorf("invalid document length: %d", length)
		}

		// The length includes the 4 bytes already consumed
		docBytes := make([]byte, length-4)
		if _, err := io.ReadFull(reader, docBytes); err != nil {
			return fmt.Errorf("failed to read document bytes: %w", err)
		}

		if err := fn(append(lengthBytes, docBytes...)); err != nil {
			return err
		}
	}
}

// MigrateUsers loads legacy users and inserts them, deduplicated by
// username, keeping the last occurrence.
func (m *Migrator) MigrateUsers(ctx context.Context) error {
	var mongoUsers []MongoUser

	if coll := m.getColl("users"); coll != nil {
		cursor, err := coll.Find(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("failed to query legacy users: %w", err)
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &mongoUsers); err != nil {
			return fmt.Errorf("failed to decode legacy users: %w", err)
		}
	} else {
		err := streamBSONFile(m.usersPath, func(raw []byte) error {
			var mu MongoUser
			if err := bson.Unmarshal(raw, &mu); err != nil {
				return fmt.Errorf("failed to decode users BSON: %w", err)
			}
			mongoUsers = append(mongoUsers, mu)
			return nil
		})
		if err != nil {
			return err
		}
	}

	slog.Info("Loaded legacy users", slog.String("type", "import"), slog.Int("count", len(mongoUsers)))

	t := m.tableStats("users")
	byUsername := make(map[string]*models.User, len(mongoUsers))
	for _, mu := range mongoUsers {
		t.Processed++
		m.stats.TotalProcessed++

		user := convertUser(mu)
		if user.Username == "" {
			m.recordSkip("users", "empty username", mu.ID.Hex())
			continue
		}
		if _, exists := byUsername[user.Username]; exists {
			logProgress(fmt.Sprintf("Duplicate username found: %s (keeping latest record)", user.Username))
		}
		byUsername[user.Username] = user
	}

	users := make([]*models.User, 0, len(byUsername))
	for _, u := range byUsername {
		users = append(users, u)
	}

	for i := 0; i < len(users); i += m.batchSize {
		end := i + m.batchSize
		if end > len(users) {
			end = len(users)
		}
		batch := users[i:end]

		start := time.Now()
		res, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT (username) DO NOTHING").
			Exec(ctx)
		if err != nil {
			t.Errors += len(batch)
			m.stats.TotalErrors += len(batch)
			return fmt.Errorf("failed to insert user batch at %d: %w", i, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			t.Successful += int(n)
		}
		logger.LogImport("users", int64(len(batch)), time.Since(start))
	}

	return nil
}

// MigrateIngredients loads the legacy catalog and inserts it, deduplicated
// on (name, unit). With COPY mode enabled, rows not already present are
// written through pgx CopyFrom.
func (m *Migrator) MigrateIngredients(ctx context.Context) error {
	var mongoIngredients []MongoIngredient

	if coll := m.getColl("ingredients"); coll != nil {
		cursor, err := coll.Find(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("failed to query legacy ingredients: %w", err)
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &mongoIngredients); err != nil {
			return fmt.Errorf("failed to decode legacy ingredients: %w", err)
		}
	} else {
		err := streamBSONFile(m.ingredientsPath, func(raw []byte) error {
			var mi MongoIngredient
			if err := bson.Unmarshal(raw, &mi); err != nil {
				return fmt.Errorf("failed to decode ingredients BSON: %w", err)
			}
			mongoIngredients = append(mongoIngredients, mi)
			return nil
		})
		if err != nil {
			return err
		}
	}

	t := m.tableStats("ingredients")
	byKey := make(map[string]*models.Ingredient, len(mongoIngredients))
	for _, mi := range mongoIngredients {
		t.Processed++
		m.stats.TotalProcessed++

		ing := convertIngredient(mi)
		if ing.Name == "" || ing.MeasurementUnit == "" {
			m.recordSkip("ingredients", "empty name or unit", mi.ID.Hex())
			continue
		}
		byKey[ingredientKey(ing.Name, ing.MeasurementUnit)] = ing
	}

	ingredients := make([]*models.Ingredient, 0, len(byKey))
	for _, ing := range byKey {
		ingredients = append(ingredients, ing)
	}

	if m.useCopy && m.pool != nil {
		return m.copyIngredients(ctx, t, ingredients)
	}

	for i := 0; i < len(ingredients); i += m.batchSize {
		end := i + m.batchSize
		if end > len(ingredients) {
			end = len(ingredients)
		}
		batch := ingredients[i:end]

		res, err := m.pgDB.NewInsert().
			Model(&batch).
			On("CONFLICT ON CONSTRAINT unique_ingredient DO NOTHING").
			Exec(ctx)
		if err != nil {
			t.Errors += len(batch)
			m.stats.TotalErrors += len(batch)
			return fmt.Errorf("failed to insert ingredient batch at %d: %w", i, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			t.Successful += int(n)
		}
	}

	return nil
}

// copyIngredients is the CopyFrom fast path. COPY cannot skip conflicting
// rows, so rows already in the catalog are filtered out first.
func (m *Migrator) copyIngredients(ctx context.Context, t *TableStats, ingredients []*models.Ingredient) error {
	existing := make(map[string]bool)
	rows, err := m.pool.Query(ctx, `SELECT name, measurement_unit FROM ingredients`)
	if err != nil {
		return fmt.Errorf("failed to list existing ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, unit string
		if err := rows.Scan(&name, &unit); err == nil {
			existing[ingredientKey(name, unit)] = true
		}
	}

	var fresh [][]interface{}
	now := time.Now()
	for _, ing := range ingredients {
		if existing[ingredientKey(ing.Name, ing.MeasurementUnit)] {
			m.recordSkip("ingredients", "already present", ing.Name)
			continue
		}
		fresh = append(fresh, []interface{}{ing.Name, ing.MeasurementUnit, now, now})
	}
	if len(fresh) == 0 {
		return nil
	}

	start := time.Now()
	copied, err := m.pool.CopyFrom(ctx,
		pgx.Identifier{"ingredients"},
		[]string{"name", "measurement_unit", "created_at", "updated_at"},
		pgx.CopyFromRows(fresh),
	)
	if err != nil {
		t.Errors += len(fresh)
		m.stats.TotalErrors += len(fresh)
		return fmt.Errorf("failed to COPY ingredients: %w", err)
	}
	t.Successful += int(copied)

	logger.LogImport("ingredients", copied, time.Since(start))
	return nil
}

// MigrateRecipes loads legacy recipes and inserts them plus their
// quantities, tag links, favorites and cart rows. Users and ingredients
// must already be imported.
func (m *Migrator) MigrateRecipes(ctx context.Context) error {
	var mongoRecipes []MongoRecipe

	if coll := m.getColl("recipes"); coll != nil {
		cursor, err := coll.Find(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("failed to query legacy recipes: %w", err)
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &mongoRecipes); err != nil {
			return fmt.Errorf("failed to decode legacy recipes: %w", err)
		}
	} else {
		err := streamBSONFile(m.recipesPath, func(raw []byte) error {
			var mr MongoRecipe
			if err := bson.Unmarshal(raw, &mr); err != nil {
				return fmt.Errorf("failed to decode recipes BSON: %w", err)
			}
			mongoRecipes = append(mongoRecipes, mr)
			return nil
		})
		if err != nil {
			return err
		}
	}

	userIDs, err := m.userIDMap(ctx)
	if err != nil {
		return err
	}
	ingredientIDs, err := m.ingredientIDMap(ctx)
	if err != nil {
		return err
	}

	// Every tag slug seen in the dump must exist before linking
	slugSet := make(map[string]bool)
	for _, mr := range mongoRecipes {
		for _, tag := range mr.Tags {
			if slug := convertTagSlug(tag); slug != "" {
				slugSet[slug] = true
			}
		}
	}
	tagIDs, err := m.ensureTags(ctx, slugSet)
	if err != nil {
		return err
	}

	t := m.tableStats("recipes")

	var (
		recipes   []*models.Recipe
		originals []MongoRecipe
	)
	for _, mr := range mongoRecipes {
		t.Processed++
		m.stats.TotalProcessed++

		authorID, ok := userIDs[cleanseString(mr.Author)]
		if !ok {
			m.recordSkip("recipes", "unknown author", mr.Author)
			continue
		}
		if cleanseString(mr.Name) == "" {
			m.recordSkip("recipes", "empty name", mr.ID.Hex())
			continue
		}

		recipes = append(recipes, convertRecipe(mr, authorID))
		originals = append(originals, mr)
	}

	var (
		quantities []*models.QuantityIngredient
		tagLinks   []*models.RecipeTag
		favorites  []*models.Favorite
		carts      []*models.Cart
	)

	for i := 0; i < len(recipes); i += m.batchSize {
		end := i + m.batchSize
		if end > len(recipes) {
			end = len(recipes)
		}
		batch := recipes[i:end]

		// Returning("id") fills the IDs on the models in the batch
		if _, err := m.pgDB.NewInsert().
			Model(&batch).
			Returning("id").
			Exec(ctx); err != nil {
			t.Errors += len(batch)
			m.stats.TotalErrors += len(batch)
			return fmt.Errorf("failed to insert recipe batch at %d: %w", i, err)
		}
		t.Successful += len(batch)

		for j, recipe := range batch {
			mr := originals[i+j]

			seenIngredients := make(map[int64]bool)
			for _, ri := range mr.Ingredients {
				ingID, ok := ingredientIDs[ingredientKey(cleanseString(ri.Name), cleanseString(ri.MeasurementUnit))]
				if !ok {
					m.recordSkip("quantity_ingredients", "unknown ingredient", ri.Name)
					continue
				}
				if seenIngredients[ingID] {
					continue
				}
				seenIngredients[ingID] = true

				amount := int(ri.Amount)
				if amount < models.MinIngredientAmount {
					amount = models.MinIngredientAmount
				}
				quantities = append(quantities, &models.QuantityIngredient{
					IngredientID: ingID,
					RecipeID:     recipe.ID,
					Amount:       amount,
				})
			}

			for _, tag := range mr.Tags {
				if tagID, ok := tagIDs[convertTagSlug(tag)]; ok {
					tagLinks = append(tagLinks, &models.RecipeTag{RecipeID: recipe.ID, TagID: tagID})
				}
			}

			for _, username := range mr.FavoritedBy {
				if userID, ok := userIDs[cleanseString(username)]; ok {
					favorites = append(favorites, &models.Favorite{UserID: userID, RecipeID: recipe.ID, CreatedAt: time.Now()})
				}
			}
			for _, username := range mr.InCarts {
				if userID, ok := userIDs[cleanseString(username)]; ok {
					carts = append(carts, &models.Cart{UserID: userID, RecipeID: recipe.ID, CreatedAt: time.Now()})
				}
			}
		}
	}

	return m.insertJoinRows(ctx, quantities, tagLinks, favorites, carts)
}

// insertJoinRows writes the four join tables concurrently; they are
// independent of each other once recipes exist.
func (m *Migrator) insertJoinRows(ctx context.Context, quantities []*models.QuantityIngredient, tagLinks []*models.RecipeTag, favorites []*models.Favorite, carts []*models.Cart) error {
	// tableStats mutates the shared stats map; resolve all four entries
	// before the goroutines start so each one only touches its own struct
	quantityStats := m.tableStats("quantity_ingredients")
	tagLinkStats := m.tableStats("recipe_tags")
	favoriteStats := m.tableStats("favorites")
	cartStats := m.tableStats("carts")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	g.Go(func() error {
		return insertBatched(gctx, m.pgDB, "quantity_ingredients", m.batchSize, quantities, quantityStats)
	})
	g.Go(func() error {
		return insertBatched(gctx, m.pgDB, "recipe_tags", m.batchSize, tagLinks, tagLinkStats)
	})
	g.Go(func() error {
		return insertBatched(gctx, m.pgDB, "favorites", m.batchSize, favorites, favoriteStats)
	})
	g.Go(func() error {
		return insertBatched(gctx, m.pgDB, "carts", m.batchSize, carts, cartStats)
	})

	return g.Wait()
}

func insertBatched[T any](ctx context.Context, db *bun.DB, table string, batchSize int, rows []T, t *TableStats) error {
	t.Processed += len(rows)

	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		start := time.Now()
		res, err := db.NewInsert().
			Model(&batch).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			t.Errors += len(batch)
			return fmt.Errorf("failed to insert %s batch at %d: %w", table, i, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			t.Successful += int(n)
		}
		logger.LogImport(table, int64(len(batch)), time.Since(start))
	}
	return nil
}

func (m *Migrator) userIDMap(ctx context.Context) (map[string]int64, error) {
	var users []models.User
	if err := m.pgDB.NewSelect().
		Model(&users).
		Column("id", "username").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to map usernames to IDs: %w", err)
	}
	out := make(map[string]int64, len(users))
	for _, u := range users {
		out[u.Username] = u.ID
	}
	return out, nil
}

func (m *Migrator) ingredientIDMap(ctx context.Context) (map[string]int64, error) {
	var ingredients []models.Ingredient
	if err := m.pgDB.NewSelect().
		Model(&ingredients).
		Column("id", "name", "measurement_unit").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to map ingredients to IDs: %w", err)
	}
	out := make(map[string]int64, len(ingredients))
	for _, ing := range ingredients {
		out[ingredientKey(ing.Name, ing.MeasurementUnit)] = ing.ID
	}
	return out, nil
}

// ensureTags inserts any slug from the dump the palette does not cover,
// with the slug as name and a color derived from the slug so the unique
// color constraint holds deterministically.
func (m *Migrator) ensureTags(ctx context.Context, slugs map[string]bool) (map[string]int64, error) {
	now := time.Now()
	for slug := range slugs {
		tag := &models.Tag{
			Name:      slug,
			Color:     slugColor(slug),
			Slug:      slug,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := m.pgDB.NewInsert().
			Model(tag).
			On("CONFLICT DO NOTHING").
			Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure tag %s: %w", slug, err)
		}
	}

	var tags []models.Tag
	if err := m.pgDB.NewSelect().
		Model(&tags).
		Column("id", "slug").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to map tag slugs to IDs: %w", err)
	}
	out := make(map[string]int64, len(tags))
	for _, t := range tags {
		out[t.Slug] = t.ID
	}
	return out, nil
}

// slugColor derives a stable hex color from a slug
func slugColor(slug string) string {
	return fmt.Sprintf("#%06X", crc32.ChecksumIEEE([]byte(slug))&0xFFFFFF)
}

func logProgress(message string) {
	slog.Info(message, slog.String("type", "import"))
}
