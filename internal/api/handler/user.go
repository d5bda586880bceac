// internal/api/handler/user.go
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"finledger/internal/api/middleware"
	"finledger/internal/domain"
	"finledger/internal/service"
	"finledger/internal/util"
)

// UserHandler handles registration, sessions and profile requests.
type UserHandler struct {
	service service.UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  logger,
	}
}

// UserResponse is the public profile of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateUserRequest represents the request body for registration.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser handles user registration.
// POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondWithError(w, r, h.logger, util.NewError("decode request", util.KindInvalidInput, err))
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// SessionRequest represents the request body for authentication.
type SessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries the authenticated user and their token.
type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// CreateSession handles authentication.
// POST /api/v1/sessions
func (h *UserHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondWithError(w, r, h.logger, util.NewError("decode request", util.KindInvalidInput, err))
		return
	}

	user, token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, SessionResponse{User: newUserResponse(user), Token: token})
}

// ShowProfile returns the authenticated user's profile.
// GET /api/v1/profile
func (h *UserHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, h.logger, util.ErrInvalidToken)
		return
	}

	user, err := h.service.ShowProfile(r.Context(), userID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, newUserResponse(user))
}
