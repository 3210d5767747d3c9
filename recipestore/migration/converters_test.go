package migration

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foodshare/recipe-store/recipestore/database/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want string
	}{
		{name: "admin", role: "admin", want: models.RoleAdmin},
		{name: "legacy staff", role: "staff", want: models.RoleAdmin},
		{name: "legacy superuser", role: "superuser", want: models.RoleAdmin},
		{name: "authorized", role: "authorized", want: models.RoleAuthorized},
		{name: "legacy user", role: "user", want: models.RoleAuthorized},
		{name: "mixed case", role: " Admin ", want: models.RoleAdmin},
		{name: "unknown", role: "moderator", want: models.RoleGuest},
		{name: "empty", role: "", want: models.RoleGuest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeRole(tt.role); got != tt.want {
				t.Errorf("normalizeRole(%q) = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestConvertUser(t *testing.T) {
	joined := time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC)
	got := convertUser(MongoUser{
		Username:  " chef_anna ",
		Email:     "Anna@Example.COM",
		FirstName: "Anna",
		LastName:  "K",
		Password:  "hashed",
		Role:      "user",
		Joined:    joined,
	})

	if got.Username != "chef_anna" {
		t.Errorf("Username = %q, want %q", got.Username, "chef_anna")
	}
	if got.Email != "anna@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "anna@example.com")
	}
	if got.Role != models.RoleAuthorized {
		t.Errorf("Role = %q, want %q", got.Role, models.RoleAuthorized)
	}
	if !got.CreatedAt.Equal(joined) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, joined)
	}
}

func TestConvertUserZeroJoined(t *testing.T) {
	got := convertUser(MongoUser{Username: "anna"})
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want fallback to now")
	}
}

func TestConvertIngredient(t *testing.T) {
	got := convertIngredient(MongoIngredient{Name: " Картофель ", MeasurementUnit: "г"})
	if got.Name != "картофель" {
		t.Errorf("Name = %q, want %q", got.Name, "картофель")
	}
	if got.MeasurementUnit != "г" {
		t.Errorf("MeasurementUnit = %q, want %q", got.MeasurementUnit, "г")
	}
}

func TestConvertRecipe(t *testing.T) {
	pubDate := time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)
	tests := []struct {
		name            string
		in              MongoRecipe
		wantCookingTime int
		wantPubDateSet  bool
	}{
		{
			name:            "valid",
			in:              MongoRecipe{Name: "Soup", CookingTime: 45, PubDate: pubDate},
			wantCookingTime: 45,
		},
		{
			name:            "zero cooking time clamped",
			in:              MongoRecipe{Name: "Soup", CookingTime: 0, PubDate: pubDate},
			wantCookingTime: models.MinCookingTime,
		},
		{
			name:            "negative cooking time clamped",
			in:              MongoRecipe{Name: "Soup", CookingTime: -5, PubDate: pubDate},
			wantCookingTime: models.MinCookingTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertRecipe(tt.in, 7)
			if got.AuthorID != 7 {
				t.Errorf("AuthorID = %d, want 7", got.AuthorID)
			}
			if got.CookingTime != tt.wantCookingTime {
				t.Errorf("CookingTime = %d, want %d", got.CookingTime, tt.wantCookingTime)
			}
			if got.PubDate.IsZero() {
				t.Error("PubDate is zero")
			}
		})
	}
}

func TestConvertRecipeZeroPubDate(t *testing.T) {
	got := convertRecipe(MongoRecipe{Name: "Soup", CookingTime: 10}, 1)
	if got.PubDate.IsZero() {
		t.Error("PubDate is zero, want fallback to now")
	}
}

func TestConvertTagSlug(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{name: "simple", tag: "Breakfast", want: "breakfast"},
		{name: "spaces", tag: "Quick Lunch", want: "quick-lunch"},
		{name: "already slug", tag: "dinner", want: "dinner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertTagSlug(tt.tag); got != tt.want {
				t.Errorf("convertTagSlug(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestIngredientKey(t *testing.T) {
	if ingredientKey("Картофель", "г") != ingredientKey("картофель", "г") {
		t.Error("ingredientKey is case sensitive on name, want insensitive")
	}
	if ingredientKey("соль", "г") == ingredientKey("соль", "кг") {
		t.Error("ingredientKey collides across units")
	}
}

func TestCleanseString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "trims space", in: "  hello  ", want: "hello"},
		{name: "null bytes", in: "he\x00llo", want: "hello"},
		{name: "control chars", in: "he\x01\x02llo", want: "hello"},
		{name: "keeps newline interior", in: "a\nb", want: "a\nb"},
		{name: "invalid utf8", in: "he\xffllo", want: "hello"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanseString(tt.in); got != tt.want {
				t.Errorf("cleanseString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStreamBSONFile(t *testing.T) {
	docs := []MongoIngredient{
		{Name: "картофель", MeasurementUnit: "г"},
		{Name: "соль", MeasurementUnit: "по вкусу"},
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			t.Fatalf("bson.Marshal: %v", err)
		}
		buf.Write(raw)
	}

	path := filepath.Join(t.TempDir(), "ingredients.bson")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var got []MongoIngredient
	err := streamBSONFile(path, func(raw []byte) error {
		var mi MongoIngredient
		if err := bson.Unmarshal(raw, &mi); err != nil {
			return err
		}
		got = append(got, mi)
		return nil
	})
	if err != nil {
		t.Fatalf("streamBSONFile: %v", err)
	}

	if len(got) != len(docs) {
		t.Fatalf("got %d documents, want %d", len(got), len(docs))
	}
	for i := range docs {
		if got[i].Name != docs[i].Name || got[i].MeasurementUnit != docs[i].MeasurementUnit {
			t.Errorf("doc %d = %+v, want %+v", i, got[i], docs[i])
		}
	}
}

func TestStreamBSONFileTruncated(t *testing.T) {
	raw, err := bson.Marshal(MongoIngredient{Name: "соль", MeasurementUnit: "г"})
	if err != nil {
		t.Fatalf("bson.Marshal: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.bson")
	if err := os.WriteFile(path, raw[:len(raw)-3], 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err = streamBSONFile(path, func([]byte) error { return nil })
	if err == nil {
		t.Error("streamBSONFile on truncated file = nil, want error")
	}
}

func TestStreamBSONFileBadLength(t *testing.T) {
	var buf bytes.Buffer
	lengthBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBytes, 2)
	buf.Write(lengthBytes)

	path := filepath.Join(t.TempDir(), "bad.bson")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := streamBSONFile(path, func([]byte) error { return nil })
	if err == nil {
		t.Error("streamBSONFile with invalid length = nil, want error")
	}
}

func TestSlugColor(t *testing.T) {
	c1 := slugColor("breakfast")
	c2 := slugColor("breakfast")
	c3 := slugColor("dinner")

	if c1 != c2 {
		t.Errorf("slugColor not stable: %q vs %q", c1, c2)
	}
	if c1 == c3 {
		t.Errorf("slugColor collides for different slugs: %q", c1)
	}
	if len(c1) != 7 || c1[0] != '#' {
		t.Errorf("slugColor(%q) = %q, want #RRGGBB", "breakfast", c1)
	}
}
