package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citehub/citation-service/internal/domain"
)

// createUserRequest is the JSON request body for registering a user.
// The password policy is enforced by the domain layer.
type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the outward representation of a user. The password hash
// never leaves the service.
type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func domainUserToResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// createUser handles POST /users.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := domain.NewUser(req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.users.Create(r.Context(), u)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Info().Int64("user_id", created.ID).Msg("user registered")
	writeJSON(w, http.StatusCreated, domainUserToResponse(created))
}

// getUser handles GET /users/{userID}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	u, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainUserToResponse(u))
}

// deleteUser handles DELETE /users/{userID}. The user's submissions and
// their citations are removed by cascade.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
