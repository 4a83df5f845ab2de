// Package vehicle manages the dealership catalog: vehicles, their images,
// and the admin back-office operations on them.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Vehicle is a catalog listing.
type Vehicle struct {
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Year        int       `json:"year"`
	Mileage     int       `json:"mileage"`
	Price       float64   `json:"price"`
	Description *string   `json:"description,omitempty"`
	Type        string    `json:"type"`
	Featured    bool      `json:"featured"`
	Sold        bool      `json:"sold"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Images      []Image   `json:"images"`
}

// Image is one stored photo of a vehicle. Filename is the stored image
// reference; URL is computed per request by the image service and never
// persisted.
type Image struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicleId"`
	Filename  string    `json:"filename"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	TotalVehicles int `json:"totalVehicles"`
	TotalCars     int `json:"totalCars"`
	TotalMotos    int `json:"totalMotos"`
	FeaturedCount int `json:"featuredCount"`
}

// ErrNotFound is returned when a vehicle or image does not exist.
var ErrNotFound = errors.New("vehicle not found")

// Repository handles all vehicle and vehicle-image database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	v := &Vehicle{}
	err := row.Scan(&v.ID, &v.Model, &v.Brand, &v.Category, &v.Year, &v.Mileage,
		&v.Price, &v.Description, &v.Type, &v.Featured, &v.Sold, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// List returns the vehicles matching the filter, without images.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Vehicle, error) {
	query, args := buildListQuery(f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

// GetByID fetches a vehicle by its UUID, without images.
func (r *Repository) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle by id: %w", err)
	}
	return v, nil
}

// Insert creates a vehicle row.
func (r *Repository) Insert(ctx context.Context, v *Vehicle) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO vehicles (id, model, brand, category, year, mileage, price, description, type, featured, sold)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at, updated_at`,
		v.ID, v.Model, v.Brand, v.Category, v.Year, v.Mileage, v.Price, v.Description, v.Type, v.Featured, v.Sold,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a vehicle row.
func (r *Repository) Update(ctx context.Context, v *Vehicle) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vehicles SET
		   model = $1, brand = $2, category = $3, year = $4, mileage = $5,
		   price = $6, description = $7, type = $8, featured = $9, sold = $10,
		   updated_at = NOW()
		 WHERE id = $11`,
		v.Model, v.Brand, v.Category, v.Year, v.Mileage, v.Price, v.Description, v.Type, v.Featured, v.Sold, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a vehicle row; image rows follow via the cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates the dashboard counters in one pass.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE type = 'car'),
		        COUNT(*) FILTER (WHERE type = 'moto'),
		        COUNT(*) FILTER (WHERE featured)
		 FROM vehicles`,
	).Scan(&s.TotalVehicles, &s.TotalCars, &s.TotalMotos, &s.FeaturedCount)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return s, nil
}

// ImagesForVehicle returns the images of a vehicle, primary first.
func (r *Repository) ImagesForVehicle(ctx context.Context, vehicleID string) ([]Image, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, vehicle_id, filename, is_primary, created_at
		 FROM vehicle_images
		 WHERE vehicle_id = $1
		 ORDER BY is_primary DESC, created_at ASC`,
		vehicleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.VehicleID, &img.Filename, &img.IsPrimary, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

// GetImage fetches one image row.
func (r *Repository) GetImage(ctx context.Context, imageID string) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRow(ctx,
		`SELECT id, vehicle_id, filename, is_primary, created_at
		 FROM vehicle_images WHERE id = $1`,
		imageID,
	).Scan(&img.ID, &img.VehicleID, &img.Filename, &img.IsPrimary, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// InsertImage creates an image row.
func (r *Repository) InsertImage(ctx context.Context, img *Image) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO vehicle_images (id, vehicle_id, filename, is_primary)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		img.ID, img.VehicleID, img.Filename, img.IsPrimary,
	).Scan(&img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// DeleteImage removes one image row.
func (r *Repository) DeleteImage(ctx context.Context, imageID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM vehicle_images WHERE id = $1`, imageID); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// HasPrimary reports whether the vehicle already has a primary image.
func (r *Repository) HasPrimary(ctx context.Context, vehicleID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vehicle_images WHERE vehicle_id = $1 AND is_primary)`,
		vehicleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check primary image: %w", err)
	}
	return exists, nil
}

// SetPrimary makes imageID the single primary image of the vehicle. The
// at-most-one-primary rule is enforced here, not by a database constraint.
func (r *Repository) SetPrimary(ctx context.Context, vehicleID, imageID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE vehicle_images SET is_primary = FALSE WHERE vehicle_id = $1`, vehicleID); err != nil {
		return fmt.Errorf("clear primary image: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE vehicle_images SET is_primary = TRUE WHERE id = $1 AND vehicle_id = $2`,
		imageID, vehicleID); err != nil {
		return fmt.Errorf("set primary image: %w", err)
	}

	return tx.Commit(ctx)
}
