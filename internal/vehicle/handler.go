package vehicle

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tucanomotors/dealership/internal/response"
	"github.com/tucanomotors/dealership/internal/storage"
	"github.com/tucanomotors/dealership/internal/upload"
)

// Handler holds HTTP handlers for catalog endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new vehicle Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List godoc
//
//	@Summary		List vehicles
//	@Description	Public catalog listing with filters and sorting. Sold vehicles are excluded unless sold=true or sold=all.
//	@Tags			vehicles
//	@Produce		json
//	@Param			model		query	string	false	"Substring match on model"
//	@Param			brand		query	string	false	"Exact brand"
//	@Param			category	query	string	false	"Exact category"
//	@Param			year		query	int		false	"Exact year"
//	@Param			minPrice	query	number	false	"Minimum price"
//	@Param			maxPrice	query	number	false	"Maximum price"
//	@Param			minMileage	query	int		false	"Minimum mileage"
//	@Param			maxMileage	query	int		false	"Maximum mileage"
//	@Param			type		query	string	false	"Vehicle type (moto, car)"
//	@Param			featured	query	bool	false	"Only featured vehicles"
//	@Param			sold		query	string	false	"all, true or false"
//	@Param			sort		query	string	false	"price_asc, price_desc, year_asc, year_desc"
//	@Success		200	{object}	response.Envelope{data=[]Vehicle}
//	@Failure		500	{object}	response.Envelope
//	@Router			/vehicles [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	vehicles, err := h.svc.List(r.Context(), f)
	if err != nil {
		log.Error().Err(err).Msg("list vehicles failed")
		response.InternalError(w)
		return
	}
	if vehicles == nil {
		vehicles = []Vehicle{}
	}
	response.OK(w, vehicles)
}

// Get godoc
//
//	@Summary		Get one vehicle
//	@Tags			vehicles
//	@Produce		json
//	@Param			id	path		string	true	"Vehicle ID"
//	@Success		200	{object}	response.Envelope{data=Vehicle}
//	@Failure		404	{object}	response.Envelope
//	@Router			/vehicles/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "vehicle not found")
			return
		}
		log.Error().Err(err).Msg("get vehicle failed")
		response.InternalError(w)
		return
	}
	response.OK(w, v)
}

// Create godoc
//
//	@Summary		Create a vehicle
//	@Description	Multipart form with vehicle fields and up to 10 images. The whole request fails if any image upload fails.
//	@Tags			vehicles
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Success		201	{object}	response.Envelope{data=Vehicle}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/vehicles [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	files, err := upload.FromRequest(r, "images")
	if err != nil {
		handleUploadError(w, err)
		return
	}

	in, err := inputFromForm(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	v, err := h.svc.Create(r.Context(), in, toFileUploads(files))
	if err != nil {
		log.Error().Err(err).Msg("create vehicle failed")
		response.InternalError(w)
		return
	}
	response.Created(w, v)
}

// Update godoc
//
//	@Summary		Update a vehicle
//	@Description	Multipart form with vehicle fields, optional new images, removeImages (JSON array of image IDs) and primaryImageId (existing ID or new-<index>).
//	@Tags			vehicles
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Vehicle ID"
//	@Success		200	{object}	response.Envelope{data=Vehicle}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/vehicles/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	files, err := upload.FromRequest(r, "images")
	if err != nil {
		handleUploadError(w, err)
		return
	}

	in, err := inputFromForm(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	opts := UpdateOptions{PrimaryImageID: r.FormValue("primaryImageId")}
	if raw := r.FormValue("removeImages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.RemoveImageIDs); err != nil {
			response.BadRequest(w, "removeImages must be a JSON array of image IDs")
			return
		}
	}

	v, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in, opts, toFileUploads(files))
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "vehicle not found")
			return
		}
		log.Error().Err(err).Msg("update vehicle failed")
		response.InternalError(w)
		return
	}
	response.OK(w, v)
}

// Delete godoc
//
//	@Summary		Delete a vehicle
//	@Tags			vehicles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Vehicle ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/vehicles/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "vehicle not found")
			return
		}
		log.Error().Err(err).Msg("delete vehicle failed")
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]string{"message": "vehicle deleted"})
}

// Upload godoc
//
//	@Summary		Upload images
//	@Description	Stores up to 10 images without attaching them to a vehicle.
//	@Tags			vehicles
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]storage.UploadResult}
//	@Failure		400	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	files, err := upload.FromRequest(r, "images")
	if err != nil {
		handleUploadError(w, err)
		return
	}
	if len(files) == 0 {
		response.BadRequest(w, "no images provided")
		return
	}

	results, err := h.svc.Upload(r.Context(), toFileUploads(files))
	if err != nil {
		log.Error().Err(err).Msg("image upload failed")
		response.InternalError(w)
		return
	}
	response.OK(w, results)
}

// Stats godoc
//
//	@Summary		Catalog statistics
//	@Tags			vehicles
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Stats}
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load stats failed")
		response.InternalError(w)
		return
	}
	response.OK(w, stats)
}

func handleUploadError(w http.ResponseWriter, err error) {
	if upload.IsValidation(err) {
		response.BadRequest(w, err.Error())
		return
	}
	log.Error().Err(err).Msg("upload intake failed")
	response.InternalError(w)
}

func toFileUploads(files []upload.File) []storage.FileUpload {
	uploads := make([]storage.FileUpload, len(files))
	for i, f := range files {
		uploads[i] = storage.FileUpload{Name: f.Name, Data: f.Data}
	}
	return uploads
}

// inputFromForm reads the vehicle fields of a multipart or urlencoded form.
func inputFromForm(r *http.Request) (Input, error) {
	in := Input{
		Model:    strings.TrimSpace(r.FormValue("model")),
		Brand:    strings.TrimSpace(r.FormValue("brand")),
		Category: strings.TrimSpace(r.FormValue("category")),
		Type:     strings.TrimSpace(r.FormValue("type")),
		Featured: parseBool(r.FormValue("featured")),
		Sold:     parseBool(r.FormValue("sold")),
	}
	if in.Model == "" {
		return in, errInput("model is required")
	}
	if in.Brand == "" {
		in.Brand = "Harley-Davidson"
	}
	if in.Category == "" {
		in.Category = "custom"
	}
	if in.Type == "" {
		in.Type = "moto"
	}

	var err error
	if in.Year, err = strconv.Atoi(r.FormValue("year")); err != nil {
		return in, errInput("year must be an integer")
	}
	if in.Mileage, err = strconv.Atoi(r.FormValue("mileage")); err != nil {
		return in, errInput("mileage must be an integer")
	}
	if in.Price, err = strconv.ParseFloat(r.FormValue("price"), 64); err != nil {
		return in, errInput("price must be a number")
	}
	if desc := r.FormValue("description"); desc != "" {
		in.Description = &desc
	}
	return in, nil
}

type errInput string

func (e errInput) Error() string { return string(e) }

// parseBool accepts the loose truthy forms the admin UI has historically
// sent: "true", "1", case-insensitive.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	}
	return false
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	f := ListFilter{
		Model:    q.Get("model"),
		Brand:    q.Get("brand"),
		Category: q.Get("category"),
		Type:     q.Get("type"),
		Featured: q.Get("featured") == "true",
		Sold:     normalizeSold(q.Get("sold")),
		Sort:     q.Get("sort"),
	}
	f.Year = intParam(q.Get("year"))
	f.MinPrice = floatParam(q.Get("minPrice"))
	f.MaxPrice = floatParam(q.Get("maxPrice"))
	f.MinMileage = intParam(q.Get("minMileage"))
	f.MaxMileage = intParam(q.Get("maxMileage"))
	return f
}

// normalizeSold folds the historical 0/1 forms into the canonical values.
func normalizeSold(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return SoldAll
	case "true", "1":
		return SoldOnly
	default:
		return SoldExclude
	}
}

func intParam(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func floatParam(s string) *float64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}
