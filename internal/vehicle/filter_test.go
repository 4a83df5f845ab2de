package vehicle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestBuildListQueryDefaults(t *testing.T) {
	sql, args := buildListQuery(ListFilter{})

	assert.Contains(t, sql, "AND sold = FALSE")
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Empty(t, args)
}

func TestBuildListQuerySoldVariants(t *testing.T) {
	sql, _ := buildListQuery(ListFilter{Sold: SoldAll})
	assert.NotContains(t, sql, "sold =")

	sql, _ = buildListQuery(ListFilter{Sold: SoldOnly})
	assert.Contains(t, sql, "AND sold = TRUE")

	sql, _ = buildListQuery(ListFilter{Sold: SoldExclude})
	assert.Contains(t, sql, "AND sold = FALSE")
}

func TestBuildListQueryModelSearch(t *testing.T) {
	sql, args := buildListQuery(ListFilter{Model: "Sportster", Sold: SoldAll})

	assert.Contains(t, sql, "model ILIKE $1")
	assert.Equal(t, []interface{}{"%Sportster%"}, args)
}

func TestBuildListQueryNumbersPlaceholdersSequentially(t *testing.T) {
	f := ListFilter{
		Model:      "Iron",
		Brand:      "Harley-Davidson",
		Category:   "custom",
		Year:       intPtr(2020),
		MinPrice:   floatPtr(5000),
		MaxPrice:   floatPtr(15000),
		MinMileage: intPtr(0),
		MaxMileage: intPtr(30000),
		Type:       "moto",
		Featured:   true,
		Sold:       SoldAll,
	}
	sql, args := buildListQuery(f)

	assert.Contains(t, sql, "model ILIKE $1")
	assert.Contains(t, sql, "brand = $2")
	assert.Contains(t, sql, "category = $3")
	assert.Contains(t, sql, "year = $4")
	assert.Contains(t, sql, "price >= $5")
	assert.Contains(t, sql, "price <= $6")
	assert.Contains(t, sql, "mileage >= $7")
	assert.Contains(t, sql, "mileage <= $8")
	assert.Contains(t, sql, "type = $9")
	assert.Contains(t, sql, "featured = TRUE")

	assert.Equal(t, []interface{}{
		"%Iron%", "Harley-Davidson", "custom", 2020,
		float64(5000), float64(15000), 0, 30000, "moto",
	}, args)
}

func TestBuildListQuerySorts(t *testing.T) {
	tests := map[string]string{
		"price_asc":  "ORDER BY price ASC",
		"price_desc": "ORDER BY price DESC",
		"year_asc":   "ORDER BY year ASC",
		"year_desc":  "ORDER BY year DESC",
		"":           "ORDER BY created_at DESC",
		"bogus":      "ORDER BY created_at DESC",
	}
	for sort, want := range tests {
		sql, _ := buildListQuery(ListFilter{Sort: sort})
		assert.True(t, strings.HasSuffix(sql, want), "sort %q", sort)
	}
}
