// types.go
package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoUser is a user document from the legacy deployment's dump.
type MongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	FirstName string             `bson:"first_name"`
	LastName  string             `bson:"last_name"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	Joined    time.Time          `bson:"joined"`
}

// MongoIngredient is a catalog entry from the legacy dump.
type MongoIngredient struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	MeasurementUnit string             `bson:"measurement_unit"`
}

// MongoRecipeIngredient is an embedded quantity inside a legacy recipe,
// referencing the catalog by (name, unit).
type MongoRecipeIngredient struct {
	Name            string `bson:"name"`
	MeasurementUnit string `bson:"measurement_unit"`
	Amount          int32  `bson:"amount"`
}

// MongoRecipe is a recipe document from the legacy dump. Relations are
// embedded: ingredients with amounts, tag slugs, and the usernames that
// favorited or carted the recipe.
type MongoRecipe struct {
	ID          primitive.ObjectID      `bson:"_id,omitempty"`
	Author      string                  `bson:"author"`
	Name        string                  `bson:"name"`
	Image       string                  `bson:"image"`
	Text        string                  `bson:"text"`
	CookingTime int32                   `bson:"cooking_time"`
	PubDate     time.Time               `bson:"pub_date"`
	Ingredients []MongoRecipeIngredient `bson:"ingredients"`
	Tags        []string                `bson:"tags"`
	FavoritedBy []string                `bson:"favorited_by"`
	InCarts     []string                `bson:"in_carts"`
}

// MigrationStats tracks migration progress and issues
type MigrationStats struct {
	Tables         map[string]*TableStats `json:"tables"`
	StartTime      time.Time              `json:"start_time"`
	EndTime        time.Time              `json:"end_time"`
	TotalErrors    int                    `json:"total_errors"`
	TotalSkipped   int                    `json:"total_skipped"`
	TotalProcessed int                    `json:"total_processed"`
}

// TableStats tracks stats for individual tables
type TableStats struct {
	TableName      string          `json:"table_name"`
	Processed      int             `json:"processed"`
	Successful     int             `json:"successful"`
	Skipped        int             `json:"skipped"`
	Errors         int             `json:"errors"`
	SkippedRecords []SkippedRecord `json:"skipped_records"`
}

// SkippedRecord tracks why a record was skipped
type SkippedRecord struct {
	Reason string `json:"reason"`
	Key    string `json:"key"`
}
