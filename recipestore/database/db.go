package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	schemaVersion        = 1 // bump when schema/migrations change
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	// Add retry logic for initial connection
	var conn net.Conn
	var err error

	tryDial := func() (net.Conn, error) {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		force4 := os.Getenv("DB_DIAL_FORCE_IPV4") == "1"
		force6 := os.Getenv("DB_DIAL_FORCE_IPV6") == "1"

		if force4 {
			return net.DialTimeout("tcp4", addr, defaultConnTimeout)
		}
		if force6 {
			return net.DialTimeout("tcp6", addr, defaultConnTimeout)
		}

		// Prefer IPv4, then fall back to IPv6
		if c, e := net.DialTimeout("tcp4", addr, defaultConnTimeout); e == nil {
			return c, nil
		}
		return net.DialTimeout("tcp6", addr, defaultConnTimeout)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = tryDial()
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Configure pool settings
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	return createDB(ctx, poolConfig)
}

// NewFromDSN connects using a connection string, skipping the dial probe.
// Mainly for test harnesses pointed at a throwaway database.
func NewFromDSN(ctx context.Context, dsn string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	return createDB(ctx, poolConfig)
}

// Helper function to build connection string
func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

// Helper function to create DB instance
func createDB(ctx context.Context, poolConfig *pgxpool.Config) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	bunDB := newBunDB(pool)
	return &DB{pool: pool, bunDB: bunDB}, nil
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	// Default to disabling SSL for Bun unless explicitly overridden by env
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	// m2m join tables must be registered before queries reference them
	bunDB.RegisterModel((*models.RecipeTag)(nil))
	return bunDB
}

// ResetAppTables truncates application tables for a fresh start (PostgreSQL only)
func (db *DB) ResetAppTables(ctx context.Context) error {
	if db.bunDB == nil {
		return fmt.Errorf("bun DB not initialized")
	}

	// Candidate tables managed by this application
	candidates := []string{
		"carts",
		"favorites",
		"quantity_ingredients",
		"recipe_tags",
		"recipes",
		"tags",
		"ingredients",
		"users",
	}

	// Verify present tables to avoid failures on missing ones
	rows, err := db.pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			present[name] = true
		}
	}

	var toTruncate []string
	for _, t := range candidates {
		if present[t] {
			toTruncate = append(toTruncate, t)
		}
	}

	if len(toTruncate) == 0 {
		slog.Warn("No app tables found to reset")
		return nil
	}

	stmt := "TRUNCATE TABLE " + joinIdentifiers(toTruncate) + " RESTART IDENTITY CASCADE;"
	if _, err := db.ExecWithLog(ctx, stmt); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	slog.Info("App tables truncated successfully", "tables", toTruncate)
	return nil
}

// joinIdentifiers joins identifiers with proper quoting
func joinIdentifiers(names []string) string {
	if len(names) == 0 {
		return ""
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("\"%s\"", n)
	}
	return out
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Any("args", args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Info("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Any("args", args),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "query"),
			slog.String("query", sql),
			slog.Any("args", args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return rows, err
	}

	slog.Info("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "query"),
		slog.String("query", sql),
		slog.Any("args", args),
		slog.Duration("took", duration),
	)
	return rows, nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates all required database tables, constraints and indexes
func (db *DB) InitializeSchema(ctx context.Context) error {
	// Fast init path for development: skip when schema version matches
	fastInit := os.Getenv("DB_FAST_INIT") == "1"
	if fastInit {
		if err := db.ensureAppMeta(ctx); err == nil {
			if v, _ := db.getAppMeta(ctx, "schema_version"); v == fmt.Sprintf("%d", schemaVersion) {
				slog.Info("Fast DB init: schema up-to-date, skipping initialization",
					slog.String("mode", "DB_FAST_INIT"),
					slog.Int("schema_version", schemaVersion))
				return nil
			}
		}
	}

	// First, ensure the database is using UTF-8 encoding
	if err := db.ensureUTF8Encoding(ctx); err != nil {
		return fmt.Errorf("failed to ensure UTF-8 encoding: %w", err)
	}

	// Create tables in the correct order to handle foreign key constraints
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Ingredient)(nil),
		(*models.Tag)(nil),
		(*models.Recipe)(nil),
		(*models.RecipeTag)(nil),
		(*models.QuantityIngredient)(nil),
		(*models.Favorite)(nil),
		(*models.Cart)(nil),
	}

	// Create tables using Bun
	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		_, err := query.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Apply schema migrations for existing tables FIRST
	if err := db.MigrateSchema(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Create indexes AFTER schema migrations
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);",
		"CREATE INDEX IF NOT EXISTS idx_tags_slug ON tags(slug);",
		"CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);",
		"CREATE INDEX IF NOT EXISTS idx_recipes_author_id ON recipes(author_id);",
		"CREATE INDEX IF NOT EXISTS idx_recipes_pub_date ON recipes(pub_date DESC);",
		"CREATE INDEX IF NOT EXISTS idx_recipes_author_pub_date ON recipes(author_id, pub_date DESC);",
		"CREATE INDEX IF NOT EXISTS idx_recipe_tags_recipe_id ON recipe_tags(recipe_id);",
		"CREATE INDEX IF NOT EXISTS idx_recipe_tags_tag_id ON recipe_tags(tag_id);",
		"CREATE INDEX IF NOT EXISTS idx_quantity_ingredients_recipe_id ON quantity_ingredients(recipe_id);",
		"CREATE INDEX IF NOT EXISTS idx_quantity_ingredients_ingredient_id ON quantity_ingredients(ingredient_id);",
		"CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_favorites_recipe_id ON favorites(recipe_id);",
		"CREATE INDEX IF NOT EXISTS idx_carts_user_id ON carts(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_carts_recipe_id ON carts(recipe_id);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// Load the default tag palette and ingredient catalog
	if err := db.SeedTags(ctx); err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}

	// Update schema version marker (safe upsert)
	if err := db.ensureAppMeta(ctx); err == nil {
		_ = db.setAppMeta(ctx, "schema_version", fmt.Sprintf("%d", schemaVersion))
	}

	return nil
}

// ensureAppMeta creates the app_meta table if not exists
func (db *DB) ensureAppMeta(ctx context.Context) error {
	_, err := db.ExecWithLog(ctx, `CREATE TABLE IF NOT EXISTS app_meta (key TEXT PRIMARY KEY, value TEXT)`)
	return err
}

func (db *DB) getAppMeta(ctx context.Context, key string) (string, error) {
	row := db.pool.QueryRow(ctx, `SELECT value FROM app_meta WHERE key = $1`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

func (db *DB) setAppMeta(ctx context.Context, key, value string) error {
	sql := `INSERT INTO app_meta(key, value) VALUES($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	_, err := db.pool.Exec(ctx, sql, key, value)
	return err
}

// MigrateSchema applies necessary schema changes to existing tables
func (db *DB) MigrateSchema(ctx context.Context) error {
	// The role column arrived after the first deployments; keep the ALTER
	// idempotent so both old and fresh databases converge
	roleColumnSQL := `
		ALTER TABLE users
		ADD COLUMN IF NOT EXISTS role VARCHAR(10) NOT NULL DEFAULT 'guest';
	`

	if _, err := db.ExecWithLog(ctx, roleColumnSQL); err != nil {
		return fmt.Errorf("failed to add role column: %w", err)
	}

	// Value-level invariants live in the database, not application code
	checks := []constraintDef{
		{"recipes", "cooking_time_min_1", "CHECK (cooking_time >= 1)"},
		{"quantity_ingredients", "amount_min_1", "CHECK (amount >= 1)"},
		{"users", "users_role_valid", "CHECK (role IN ('guest', 'authorized', 'admin'))"},
	}

	// Named uniqueness constraints carried over from the original schema
	uniques := []constraintDef{
		{"ingredients", "unique_ingredient", "UNIQUE (name, measurement_unit)"},
		{"quantity_ingredients", "unique_ingredients_recipe", "UNIQUE (ingredient_id, recipe_id)"},
		{"favorites", "unique_for_favorite", "UNIQUE (user_id, recipe_id)"},
		{"carts", "unique_for_carts", "UNIQUE (user_id, recipe_id)"},
		{"recipe_tags", "unique_recipe_tag", "UNIQUE (recipe_id, tag_id)"},
	}

	// Cascading foreign keys: join rows disappear with either side
	fks := []constraintDef{
		{"recipes", "fk_recipes_author", "FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"recipe_tags", "fk_recipe_tags_recipe", "FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE"},
		{"recipe_tags", "fk_recipe_tags_tag", "FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE"},
		{"quantity_ingredients", "fk_quantity_ingredients_ingredient", "FOREIGN KEY (ingredient_id) REFERENCES ingredients(id) ON DELETE CASCADE"},
		{"quantity_ingredients", "fk_quantity_ingredients_recipe", "FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE"},
		{"favorites", "fk_favorites_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"favorites", "fk_favorites_recipe", "FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE"},
		{"carts", "fk_carts_user", "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"carts", "fk_carts_recipe", "FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE"},
	}

	for _, group := range [][]constraintDef{checks, uniques, fks} {
		for _, c := range group {
			if err := db.addConstraintIfMissing(ctx, c); err != nil {
				return err
			}
		}
	}

	return nil
}

type constraintDef struct {
	Table      string
	Name       string
	Definition string
}

// addConstraintIfMissing guards ALTER TABLE ADD CONSTRAINT with a
// pg_constraint lookup, since Postgres has no IF NOT EXISTS form for it
func (db *DB) addConstraintIfMissing(ctx context.Context, c constraintDef) error {
	stmt := fmt.Sprintf(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint
				WHERE conname = '%s'
			) THEN
				ALTER TABLE %s
				ADD CONSTRAINT %s
				%s;
			END IF;
		END $$;
	`, c.Name, c.Table, c.Name, c.Definition)

	if _, err := db.ExecWithLog(ctx, stmt); err != nil {
		return fmt.Errorf("failed to add constraint %s on %s: %w", c.Name, c.Table, err)
	}
	return nil
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	// Check pgxpool connection
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}

	// Check bun connection
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}

	return nil
}

// ensureUTF8Encoding checks and ensures the database is using UTF-8 encoding
func (db *DB) ensureUTF8Encoding(ctx context.Context) error {
	var encoding string
	err := db.pool.QueryRow(ctx, "SHOW server_encoding;").Scan(&encoding)
	if err != nil {
		return fmt.Errorf("failed to check database encoding: %w", err)
	}

	slog.Info("Database encoding", "encoding", encoding)

	// If not UTF-8, log a warning but continue (changing encoding requires superuser)
	if encoding != "UTF8" {
		slog.Warn("Database is not using UTF-8 encoding, this may cause character encoding issues",
			"current_encoding", encoding,
			"recommended", "UTF8")
	}

	// Set client encoding to UTF-8 for this session
	_, err = db.pool.Exec(ctx, "SET client_encoding TO 'UTF8';")
	if err != nil {
		return fmt.Errorf("failed to set client encoding to UTF-8: %w", err)
	}

	slog.Info("Client encoding set to UTF-8")
	return nil
}
