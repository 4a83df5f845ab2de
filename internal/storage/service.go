package storage

import (
	"context"
	"fmt"
	"sync"
)

// Service is the public contract of the image layer: upload one or many
// images, delete by stored reference, and produce client-facing URLs.
// It holds the single backend selected at startup and never retries failed
// operations; uploads are admin-interactive and silent retries would only
// hide latency.
type Service struct {
	backend  Backend
	resolver *Resolver
}

// NewService creates the image service for the active backend.
func NewService(backend Backend, resolver *Resolver) *Service {
	return &Service{backend: backend, resolver: resolver}
}

// FileUpload is one in-memory file handed over by the upload intake.
type FileUpload struct {
	Name string
	Data []byte
}

// UploadResult describes one stored image.
type UploadResult struct {
	Key string `json:"filename"`
	URL string `json:"url"`
}

// UploadOne stores a single image on the active backend.
func (s *Service) UploadOne(ctx context.Context, data []byte, originalName string) (*UploadResult, error) {
	key, err := s.backend.Put(ctx, data, originalName)
	if err != nil {
		return nil, fmt.Errorf("upload via %s backend: %w", s.backend.Name(), err)
	}
	return &UploadResult{Key: key, URL: s.backend.URL(key)}, nil
}

// UploadMany stores the given files concurrently. Results keep the
// submission order so callers can treat the first entry as the primary
// image. The first failure fails the whole batch; files already stored are
// not rolled back, and no database rows exist yet to leak.
func (s *Service) UploadMany(ctx context.Context, files []FileUpload) ([]UploadResult, error) {
	results := make([]UploadResult, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f FileUpload) {
			defer wg.Done()
			res, err := s.UploadOne(ctx, f.Data, f.Name)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = *res
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// DeleteByReference resolves a stored reference and removes the physical
// object when it belongs to the active backend. Opaque legacy references
// are skipped entirely: nothing can be safely deleted for them, and the
// caller still removes its database row.
func (s *Service) DeleteByReference(ctx context.Context, reference string) error {
	ref := s.resolver.Resolve(reference)
	if ref.Kind == KindOpaque {
		return nil
	}
	if err := s.backend.Delete(ctx, ref.Key); err != nil {
		return fmt.Errorf("delete via %s backend: %w", s.backend.Name(), err)
	}
	return nil
}

// URLFor converts a stored reference into the URL a client should fetch:
// opaque references pass through unchanged, local keys map to the static
// mount, object-store keys map to the proxy route.
func (s *Service) URLFor(reference string) string {
	ref := s.resolver.Resolve(reference)
	if ref.Kind == KindOpaque {
		return ref.URL
	}
	return s.backend.URL(ref.Key)
}

// Open streams the object for a canonical key on behalf of the proxy
// endpoint.
func (s *Service) Open(ctx context.Context, key string) (*Object, error) {
	return s.backend.Get(ctx, key)
}
