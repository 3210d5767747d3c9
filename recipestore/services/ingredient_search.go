package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/foodshare/recipe-store/recipestore/config"
	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/foodshare/recipe-store/recipestore/database/repositories"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
)

// IngredientSearchItems implements fuzzy.Source over the catalog
type IngredientSearchItems []IngredientSearchItem

// IngredientSearchItem represents a single searchable ingredient
type IngredientSearchItem struct {
	Ingredient *models.Ingredient
	Name       string
}

// Len returns the length of the collection
func (items IngredientSearchItems) Len() int {
	return len(items)
}

// String returns the searchable string at index i
func (items IngredientSearchItems) String(i int) string {
	return items[i].Name
}

type cachedResult struct {
	ingredients []*models.Ingredient
	timestamp   time.Time
}

// IngredientSearchService answers "what did the user mean" queries over the
// ingredient catalog: fuzzy matching over names with an LRU result cache.
// The catalog snapshot is refreshed lazily from the repository.
type IngredientSearchService struct {
	repo        repositories.IngredientRepository
	cache       *lru.Cache
	cacheExpiry time.Duration

	mu           sync.RWMutex
	items        IngredientSearchItems
	itemsLoaded  time.Time
	itemsMaxAge  time.Duration
}

// NewIngredientSearchService creates a new ingredient search service
func NewIngredientSearchService(repo repositories.IngredientRepository) *IngredientSearchService {
	cache, _ := lru.New(config.CacheSize)
	return &IngredientSearchService{
		repo:        repo,
		cache:       cache,
		cacheExpiry: config.CacheExpiration,
		itemsMaxAge: config.CacheExpiration,
	}
}

// Search returns up to limit catalog entries ranked by fuzzy match quality.
func (s *IngredientSearchService) Search(ctx context.Context, query string, limit int) ([]*models.Ingredient, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil, nil
	}
	if limit <= 0 || limit > config.MaxSearchResults {
		limit = config.MaxSearchResults
	}

	if cached, ok := s.cache.Get(normalized); ok {
		entry := cached.(cachedResult)
		if time.Since(entry.timestamp) < s.cacheExpiry {
			return clamp(entry.ingredients, limit), nil
		}
		s.cache.Remove(normalized)
	}

	items, err := s.searchItems(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(normalized, items)

	results := make([]*models.Ingredient, 0, len(matches))
	for _, m := range matches {
		results = append(results, items[m.Index].Ingredient)
	}

	s.cache.Add(normalized, cachedResult{
		ingredients: results,
		timestamp:   time.Now(),
	})

	slog.Debug("Ingredient search completed",
		slog.String("type", "db"),
		slog.String("query", normalized),
		slog.Int("matches", len(results)))

	return clamp(results, limit), nil
}

// Invalidate drops the cached catalog snapshot and all cached results,
// for use after bulk catalog changes.
func (s *IngredientSearchService) Invalidate() {
	s.mu.Lock()
	s.items = nil
	s.itemsLoaded = time.Time{}
	s.mu.Unlock()
	s.cache.Purge()
}

func (s *IngredientSearchService) searchItems(ctx context.Context) (IngredientSearchItems, error) {
	s.mu.RLock()
	if s.items != nil && time.Since(s.itemsLoaded) < s.itemsMaxAge {
		items := s.items
		s.mu.RUnlock()
		return items, nil
	}
	s.mu.RUnlock()

	ingredients, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	items := make(IngredientSearchItems, 0, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, IngredientSearchItem{
			Ingredient: ing,
			Name:       strings.ToLower(ing.Name),
		})
	}

	s.mu.Lock()
	s.items = items
	s.itemsLoaded = time.Now()
	s.mu.Unlock()

	return items, nil
}

func clamp(ingredients []*models.Ingredient, limit int) []*models.Ingredient {
	if len(ingredients) > limit {
		return ingredients[:limit]
	}
	return ingredients
}
