package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tucanomotors/dealership/internal/storage"
)

// Input carries the mutable vehicle fields for create and update.
type Input struct {
	Model       string
	Brand       string
	Category    string
	Year        int
	Mileage     int
	Price       float64
	Description *string
	Type        string
	Featured    bool
	Sold        bool
}

// UpdateOptions carries the admin's image instructions alongside field
// changes. PrimaryImageID is either an existing image id or "new-<index>"
// pointing at a freshly uploaded file of the same request.
type UpdateOptions struct {
	RemoveImageIDs []string
	PrimaryImageID string
}

// Service contains the catalog business logic.
type Service struct {
	repo   *Repository
	images *storage.Service
}

// NewService creates a new vehicle Service.
func NewService(repo *Repository, images *storage.Service) *Service {
	return &Service{repo: repo, images: images}
}

// List returns matching vehicles with their images, primary first, each
// image annotated with its client-facing URL.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Vehicle, error) {
	vehicles, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range vehicles {
		images, err := s.repo.ImagesForVehicle(ctx, vehicles[i].ID)
		if err != nil {
			return nil, err
		}
		s.annotate(images)
		vehicles[i].Images = images
	}
	return vehicles, nil
}

// Get returns one vehicle with its images.
func (s *Service) Get(ctx context.Context, id string) (*Vehicle, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ImagesForVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	s.annotate(images)
	v.Images = images
	return v, nil
}

// Create uploads the images first and writes rows only after every upload
// confirmed, so a storage failure never leaves records pointing at missing
// blobs. The first stored image becomes the primary one.
func (s *Service) Create(ctx context.Context, in Input, files []storage.FileUpload) (*Vehicle, error) {
	uploaded, err := s.images.UploadMany(ctx, files)
	if err != nil {
		return nil, err
	}

	v := &Vehicle{
		ID:          uuid.NewString(),
		Model:       in.Model,
		Brand:       in.Brand,
		Category:    in.Category,
		Year:        in.Year,
		Mileage:     in.Mileage,
		Price:       in.Price,
		Description: in.Description,
		Type:        in.Type,
		Featured:    in.Featured,
		Sold:        in.Sold,
	}
	if err := s.repo.Insert(ctx, v); err != nil {
		return nil, err
	}

	for i, res := range uploaded {
		img := &Image{
			ID:        uuid.NewString(),
			VehicleID: v.ID,
			Filename:  res.Key,
			IsPrimary: i == 0,
		}
		if err := s.repo.InsertImage(ctx, img); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, v.ID)
}

// Update applies field changes, removes the selected images, designates the
// primary image, and appends freshly uploaded files.
func (s *Service) Update(ctx context.Context, id string, in Input, opts UpdateOptions, files []storage.FileUpload) (*Vehicle, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	v := &Vehicle{
		ID:          id,
		Model:       in.Model,
		Brand:       in.Brand,
		Category:    in.Category,
		Year:        in.Year,
		Mileage:     in.Mileage,
		Price:       in.Price,
		Description: in.Description,
		Type:        in.Type,
		Featured:    in.Featured,
		Sold:        in.Sold,
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	for _, imageID := range opts.RemoveImageIDs {
		img, err := s.repo.GetImage(ctx, imageID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if img.VehicleID != id {
			continue
		}
		// Blob delete is best effort; the row goes regardless.
		if err := s.images.DeleteByReference(ctx, img.Filename); err != nil {
			log.Warn().Err(err).Str("reference", img.Filename).Msg("image blob delete failed")
		}
		if err := s.repo.DeleteImage(ctx, imageID); err != nil {
			return nil, err
		}
	}

	if opts.PrimaryImageID != "" && !strings.HasPrefix(opts.PrimaryImageID, "new-") {
		if err := s.repo.SetPrimary(ctx, id, opts.PrimaryImageID); err != nil {
			return nil, err
		}
	}

	if len(files) > 0 {
		uploaded, err := s.images.UploadMany(ctx, files)
		if err != nil {
			return nil, err
		}
		hasPrimary, err := s.repo.HasPrimary(ctx, id)
		if err != nil {
			return nil, err
		}
		for i, res := range uploaded {
			newRef := fmt.Sprintf("new-%d", i)
			isPrimary := (!hasPrimary && i == 0 && opts.PrimaryImageID == "") ||
				opts.PrimaryImageID == newRef
			img := &Image{
				ID:        uuid.NewString(),
				VehicleID: id,
				Filename:  res.Key,
				IsPrimary: isPrimary,
			}
			if err := s.repo.InsertImage(ctx, img); err != nil {
				return nil, err
			}
			if opts.PrimaryImageID == newRef {
				if err := s.repo.SetPrimary(ctx, id, img.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the vehicle and its image rows, deleting the physical
// blobs best effort and in parallel. A failed blob delete never blocks the
// record deletion; the leaked blob is the lesser failure.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	images, err := s.repo.ImagesForVehicle(ctx, id)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, img := range images {
		wg.Add(1)
		go func(reference string) {
			defer wg.Done()
			if err := s.images.DeleteByReference(ctx, reference); err != nil {
				log.Warn().Err(err).Str("reference", reference).Msg("image blob delete failed")
			}
		}(img.Filename)
	}
	wg.Wait()

	return s.repo.Delete(ctx, id)
}

// Upload stores a batch of images without attaching them to a vehicle.
func (s *Service) Upload(ctx context.Context, files []storage.FileUpload) ([]storage.UploadResult, error) {
	return s.images.UploadMany(ctx, files)
}

// Stats returns the admin dashboard counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// IsNotFound returns true when the error indicates a missing vehicle.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func (s *Service) annotate(images []Image) {
	for i := range images {
		images[i].URL = s.images.URLFor(images[i].Filename)
	}
}
