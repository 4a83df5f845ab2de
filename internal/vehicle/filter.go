package vehicle

import (
	"fmt"
	"strings"
)

// Sold filter values accepted by ListFilter.Sold. Anything else (including
// the empty string) excludes sold vehicles, which is what the public
// catalog wants by default; the admin passes "all".
const (
	SoldAll     = "all"
	SoldOnly    = "true"
	SoldExclude = "false"
)

// ListFilter narrows and orders the catalog listing. Nil pointer fields are
// not applied.
type ListFilter struct {
	Model      string
	Brand      string
	Category   string
	Year       *int
	MinPrice   *float64
	MaxPrice   *float64
	MinMileage *int
	MaxMileage *int
	Type       string
	Featured   bool
	Sold       string
	Sort       string
}

const vehicleColumns = `id, model, brand, category, year, mileage, price, description, type, featured, sold, created_at, updated_at`

// buildListQuery assembles the catalog SELECT for a filter, returning the
// SQL and its positional arguments.
func buildListQuery(f ListFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + vehicleColumns + ` FROM vehicles WHERE 1=1`)
	var args []interface{}

	switch f.Sold {
	case SoldAll:
	case SoldOnly:
		sb.WriteString(" AND sold = TRUE")
	default:
		sb.WriteString(" AND sold = FALSE")
	}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		fmt.Fprintf(&sb, clause, len(args))
	}

	if f.Model != "" {
		add(" AND model ILIKE $%d", "%"+f.Model+"%")
	}
	if f.Brand != "" {
		add(" AND brand = $%d", f.Brand)
	}
	if f.Category != "" {
		add(" AND category = $%d", f.Category)
	}
	if f.Year != nil {
		add(" AND year = $%d", *f.Year)
	}
	if f.MinPrice != nil {
		add(" AND price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add(" AND price <= $%d", *f.MaxPrice)
	}
	if f.MinMileage != nil {
		add(" AND mileage >= $%d", *f.MinMileage)
	}
	if f.MaxMileage != nil {
		add(" AND mileage <= $%d", *f.MaxMileage)
	}
	if f.Type != "" {
		add(" AND type = $%d", f.Type)
	}
	if f.Featured {
		sb.WriteString(" AND featured = TRUE")
	}

	switch f.Sort {
	case "price_asc":
		sb.WriteString(" ORDER BY price ASC")
	case "price_desc":
		sb.WriteString(" ORDER BY price DESC")
	case "year_asc":
		sb.WriteString(" ORDER BY year ASC")
	case "year_desc":
		sb.WriteString(" ORDER BY year DESC")
	default:
		sb.WriteString(" ORDER BY created_at DESC")
	}

	return sb.String(), args
}
