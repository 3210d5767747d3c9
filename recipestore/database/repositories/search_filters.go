package repositories

// RecipeFilters defines the available filters for recipe listings.
// Zero values mean "not filtered". Results are always newest-first.
type RecipeFilters struct {
	// Entity filters
	AuthorID int64
	TagSlugs []string
	Name     string // prefix match, case-insensitive

	// User-specific filters
	FavoritedBy int64 // only recipes favorited by this user
	InCartOf    int64 // only recipes in this user's cart

	// Pagination
	Limit  int
	Offset int
}

// IsZero reports whether no filter is set.
func (f RecipeFilters) IsZero() bool {
	return f.AuthorID == 0 &&
		len(f.TagSlugs) == 0 &&
		f.Name == "" &&
		f.FavoritedBy == 0 &&
		f.InCartOf == 0
}
