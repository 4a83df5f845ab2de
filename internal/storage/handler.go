package storage

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tucanomotors/dealership/internal/response"
)

// Handler serves stored images over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a new storage Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ServeImage godoc
//
//	@Summary		Fetch a stored image
//	@Description	Streams the object's bytes through the application. The key may be %2F-encoded into a single path segment.
//	@Tags			images
//	@Produce		image/jpeg
//	@Param			key	path	string	true	"URL-encoded object key"
//	@Success		200
//	@Failure		404	{object}	response.Envelope
//	@Router			/images/{key} [get]
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if dec, err := url.PathUnescape(key); err == nil {
		key = dec
	}
	if key == "" {
		response.NotFound(w, "image not found")
		return
	}

	obj, err := h.svc.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "image not found")
			return
		}
		log.Error().Err(err).Str("key", key).Msg("image proxy fetch failed")
		response.InternalError(w)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, obj)
}
