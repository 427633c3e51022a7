package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockroom/internal/core/entity"
	"stockroom/internal/core/id"
)

type sampleEntry struct {
	entity.BaseEntity
	entity.Location
	ProductID id.ID  `db:"product_id"`
	Quantity  int64  `db:"quantity"`
	Computed  string `db:"-"`
	Untagged  string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[sampleEntry]()

	assert.ElementsMatch(t, []string{
		"id", "created_at", "updated_at", "location_kind", "location_id", "product_id", "quantity",
	}, cols)
}

func TestStructToMap_Embedded(t *testing.T) {
	now := time.Now().UTC()
	e := sampleEntry{
		BaseEntity: entity.BaseEntity{ID: id.New(), CreatedAt: now, UpdatedAt: now},
		Location:   entity.Location{Kind: entity.LocationFreezer, ID: id.New()},
		ProductID:  id.New(),
		Quantity:   7,
		Computed:   "ignored",
	}

	m := StructToMap(&e)

	assert.Len(t, m, 7)
	assert.Equal(t, e.BaseEntity.ID, m["id"])
	assert.Equal(t, entity.LocationFreezer, m["location_kind"])
	assert.Equal(t, e.Location.ID, m["location_id"])
	assert.Equal(t, int64(7), m["quantity"])
	assert.NotContains(t, m, "Untagged")
}
