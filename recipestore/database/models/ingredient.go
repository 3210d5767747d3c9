package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ingredient is a catalog entry: a product name plus the unit its amounts
// are measured in. The same name may appear with several units, so the
// unique constraint covers the (name, measurement_unit) pair.
type Ingredient struct {
	bun.BaseModel `bun:"table:ingredients,alias:i"`

	ID              int64  `bun:"id,pk,autoincrement"`
	Name            string `bun:"name,notnull,type:varchar(150)"`
	MeasurementUnit string `bun:"measurement_unit,notnull,type:varchar(150)"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func (i *Ingredient) String() string {
	return i.Name + ", " + i.MeasurementUnit
}
