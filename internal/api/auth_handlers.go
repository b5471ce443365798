package api

import (
	"encoding/json"
	"net/http"

	"magazyn-dokumentow/internal/auth"
)

type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"password123"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...."`
}

// @Summary      Logs a user in
// @Description  Authenticates a user and returns an access token carrying the user's group memberships.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      LoginRequest  true  "Login Credentials"
// @Success      200            {object}  TokenResponse
// @Failure      400            {string}  string "Invalid request body"
// @Failure      401            {string}  string "Invalid username or password"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	groups, err := s.store.GetUserGroupIDs(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	accessToken, err := auth.GenerateJWT(user.ID, user.Username, user.DisplayName, groups, s.config.JWT.Secret, s.config.JWT.Lifetime)
	if err != nil {
		http.Error(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: accessToken})
}

type CurrentUserResponse struct {
	ID          int64    `json:"id" example:"1"`
	Username    string   `json:"username" example:"admin"`
	DisplayName string   `json:"display_name" example:"Jan Kowalski"`
	Groups      []string `json:"groups"`
}

// @Summary      Get current user
// @Description  Returns the identity decoded from the access token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  CurrentUserResponse
// @Failure      401  {string}  string "Unauthorized"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())

	writeJSON(w, http.StatusOK, CurrentUserResponse{
		ID:          ident.UserID,
		Username:    ident.Username,
		DisplayName: ident.DisplayName,
		Groups:      ident.GroupIDs,
	})
}
