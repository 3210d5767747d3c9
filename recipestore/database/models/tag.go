package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Tag labels recipes for filtering. Name, color and slug are each globally
// unique; color is a hex code like #49B64E.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull,unique,type:varchar(50)"`
	Color string `bun:"color,notnull,unique,type:varchar(7)"`
	Slug  string `bun:"slug,notnull,unique,type:varchar(100)"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
