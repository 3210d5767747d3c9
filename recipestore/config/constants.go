package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	SearchTimeout       = 10 * time.Second
	BatchQueryTimeout   = 30 * time.Second
	ImportTimeout       = 5 * time.Minute
	NetworkDialTimeout  = 5 * time.Second

	// Cache settings
	CacheExpiration = 5 * time.Minute
	CacheSize       = 10000

	// Batch processing
	DefaultBatchSize = 500
	MaxBatchSize     = 1000
	ImportWorkers    = 3
	MaxRetries       = 3
)

// Pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Field limits mirrored by the database schema
const (
	MaxUsernameLength        = 150
	MaxNameLength            = 150
	MaxPasswordLength        = 150
	MaxTagNameLength         = 50
	MaxTagColorLength        = 7
	MaxTagSlugLength         = 100
	MaxRecipeNameLength      = 100
	MaxIngredientNameLength  = 150
	MaxMeasurementUnitLength = 150
)

// Search and Filter Constants
const (
	MaxSearchResults     = 100
	SearchScoreThreshold = 0.1
)

// Logging level names
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)
