package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tucanomotors/dealership/internal/middleware"
	"github.com/tucanomotors/dealership/internal/response"
)

// Handler holds HTTP handlers for authentication endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Exchanges username and password for a JWT.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"Admin credentials"
//	@Success		200	{object}	response.Envelope{data=loginResponse}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		response.BadRequest(w, "username and password are required")
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid credentials")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, loginResponse{Token: token, User: u})
}

// Verify godoc
//
//	@Summary		Verify token
//	@Description	Confirms the Bearer token is still valid and returns its identity.
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Router			/auth/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)
	username, _ := r.Context().Value(middleware.UsernameKey).(string)
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	response.OK(w, map[string]interface{}{
		"valid": true,
		"user":  map[string]string{"id": userID, "username": username},
	})
}
