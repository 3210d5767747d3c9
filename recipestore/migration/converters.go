// converters.go
package migration

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foodshare/recipe-store/recipestore/database/models"
	"github.com/foodshare/recipe-store/recipestore/utils"
)

func convertUser(mu MongoUser) *models.User {
	now := time.Now()
	joined := mu.Joined
	if joined.IsZero() {
		joined = now
	}

	return &models.User{
		Username:  cleanseString(mu.Username),
		Email:     strings.ToLower(cleanseString(mu.Email)),
		FirstName: cleanseString(mu.FirstName),
		LastName:  cleanseString(mu.LastName),
		Password:  mu.Password,
		Role:      normalizeRole(mu.Role),
		CreatedAt: joined,
		UpdatedAt: now,
	}
}

// normalizeRole maps legacy role names onto the current access levels.
// The old deployment called authorized users "user".
func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleAdmin, "staff", "superuser":
		return models.RoleAdmin
	case models.RoleAuthorized, "user":
		return models.RoleAuthorized
	default:
		return models.RoleGuest
	}
}

func convertIngredient(mi MongoIngredient) *models.Ingredient {
	now := time.Now()
	return &models.Ingredient{
		Name:            strings.ToLower(cleanseString(mi.Name)),
		MeasurementUnit: cleanseString(mi.MeasurementUnit),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func convertRecipe(mr MongoRecipe, authorID int64) *models.Recipe {
	now := time.Now()
	pubDate := mr.PubDate
	if pubDate.IsZero() {
		pubDate = now
	}

	cookingTime := int(mr.CookingTime)
	if cookingTime < models.MinCookingTime {
		cookingTime = models.MinCookingTime
	}

	return &models.Recipe{
		AuthorID:    authorID,
		Name:        cleanseString(mr.Name),
		Image:       cleanseString(mr.Image),
		Text:        cleanseString(mr.Text),
		CookingTime: cookingTime,
		PubDate:     pubDate,
		UpdatedAt:   now,
	}
}

// convertTagSlug turns a legacy tag label into a slug the schema accepts.
func convertTagSlug(tag string) string {
	slug := utils.GenerateSlug(cleanseString(tag))
	return slug
}

// ingredientKey identifies a catalog entry the way the unique constraint
// does.
func ingredientKey(name, unit string) string {
	return strings.ToLower(name) + "|" + unit
}

// cleanseString removes null bytes and control characters and falls back
// to stripping invalid UTF-8 sequences, which old dumps occasionally carry
func cleanseString(s string) string {
	if s == "" {
		return ""
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		// Keep tab, newline and carriage return; drop other control runes
		if r == 0 || (r < 32 && r != 9 && r != 10 && r != 13) {
			continue
		}
		result.WriteRune(r)
	}

	return strings.TrimSpace(result.String())
}
