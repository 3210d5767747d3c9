package database

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/foodshare/recipe-store/recipestore/utils"
)

// SeedTags inserts the default tag palette. ON CONFLICT keeps reruns safe;
// operators may recolor or rename tags afterwards without them snapping back.
func (db *DB) SeedTags(ctx context.Context) error {
	var tagCount int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tags").Scan(&tagCount)
	if err == nil && tagCount > 0 {
		slog.Info("Tags already present, skipping palette seed", slog.Int("count", tagCount))
		return nil
	}

	tags := []struct {
		Name  string
		Color string
		Slug  string
	}{
		{"Завтрак", "#E26C2D", "breakfast"},
		{"Обед", "#49B64E", "lunch"},
		{"Ужин", "#8775D2", "dinner"},
	}

	insertSQL := `
		INSERT INTO tags (name, color, slug, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (slug) DO NOTHING;
	`

	for _, t := range tags {
		if _, err := db.ExecWithLog(ctx, insertSQL, t.Name, t.Color, t.Slug); err != nil {
			return fmt.Errorf("failed to insert tag %s: %w", t.Slug, err)
		}
	}

	slog.Info("Default tag palette seeded", slog.Int("count", len(tags)))
	return nil
}

// LoadTags reads a tag palette fixture (JSON array of name/color/slug
// objects) and upserts it, so deployments can carry their own palette
// instead of the built-in one.
func (db *DB) LoadTags(ctx context.Context, path string) (int, error) {
	entries, err := readTagFixture(path)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		slog.Warn("Tag fixture is empty", slog.String("path", path))
		return 0, nil
	}

	insertSQL := `
		INSERT INTO tags (name, color, slug, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (slug) DO NOTHING;
	`

	inserted := 0
	for _, t := range entries {
		res, err := db.ExecWithLog(ctx, insertSQL, t.Name, t.Color, t.Slug)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert tag %s: %w", t.Slug, err)
		}
		inserted += int(res.RowsAffected())
	}

	slog.Info("Tag palette loaded",
		slog.String("path", path),
		slog.Int("total", len(entries)),
		slog.Int("inserted", inserted))
	return inserted, nil
}

func readTagFixture(path string) ([]models.Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag fixture: %w", err)
	}
	defer f.Close()

	var raw []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode tag JSON: %w", err)
	}

	entries := make([]models.Tag, 0, len(raw))
	for _, e := range raw {
		if e.Name == "" || e.Slug == "" || !utils.IsValidHexColor(e.Color) {
			continue
		}
		entries = append(entries, models.Tag{
			Name:  e.Name,
			Color: utils.NormalizeHexColor(e.Color),
			Slug:  e.Slug,
		})
	}
	return entries, nil
}

// LoadIngredients reads the ingredient catalog fixture (.json or .csv) and
// upserts it in batches. Duplicate (name, unit) pairs in the file collapse
// onto the existing rows.
func (db *DB) LoadIngredients(ctx context.Context, path string) (int, error) {
	entries, err := readIngredientFixture(path)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		slog.Warn("Ingredient fixture is empty", slog.String("path", path))
		return 0, nil
	}

	inserted := 0

	for start := 0; start < len(entries); start += config.DefaultBatchSize {
		end := start + config.DefaultBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		res, err := db.bunDB.NewInsert().
			Model(&batch).
			On("CONFLICT ON CONSTRAINT unique_ingredient DO NOTHING").
			Exec(ctx)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert ingredient batch at %d: %w", start, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	slog.Info("Ingredient catalog loaded",
		slog.String("path", path),
		slog.Int("total", len(entries)),
		slog.Int("inserted", inserted))
	return inserted, nil
}

func readIngredientFixture(path string) ([]models.Ingredient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ingredient fixture: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseIngredientJSON(f)
	case ".csv":
		return parseIngredientCSV(f)
	default:
		return nil, fmt.Errorf("unsupported ingredient fixture format: %s", filepath.Ext(path))
	}
}

func parseIngredientJSON(r io.Reader) ([]models.Ingredient, error) {
	var raw []struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode ingredient JSON: %w", err)
	}

	entries := make([]models.Ingredient, 0, len(raw))
	for _, e := range raw {
		if e.Name == "" || e.MeasurementUnit == "" {
			continue
		}
		entries = append(entries, models.Ingredient{
			Name:            e.Name,
			MeasurementUnit: e.MeasurementUnit,
		})
	}
	return entries, nil
}

func parseIngredientCSV(r io.Reader) ([]models.Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var entries []models.Ingredient
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ingredient CSV: %w", err)
		}
		if len(record) < 2 || record[0] == "" || record[1] == "" {
			continue
		}
		entries = append(entries, models.Ingredient{
			Name:            strings.TrimSpace(record[0]),
			MeasurementUnit: strings.TrimSpace(record[1]),
		})
	}
	return entries, nil
}
