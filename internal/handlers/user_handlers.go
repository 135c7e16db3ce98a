package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	stdctx "context"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session token and the authenticated user
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to register user: %v", err), http.StatusInternalServerError)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			s.respond(w, result)
			return
		}

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			log.Printf("HTTP Handler: Failed to generate token: %v", err)
			http.Error(w, "Failed to generate auth token", http.StatusInternalServerError)
			return
		}

		s.respondCreated(w, &AuthResponse{Token: token, User: user})
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		log.Printf("HTTP Handler: Received login request for email: %s", req.Email)

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			log.Printf("HTTP Handler: Error getting login result: %v", err)
			http.Error(w, "Failed to process login", http.StatusInternalServerError)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			s.respond(w, result)
			return
		}

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			log.Printf("HTTP Handler: Failed to generate token: %v", err)
			http.Error(w, "Failed to generate auth token", http.StatusInternalServerError)
			return
		}

		s.respond(w, &AuthResponse{Token: token, User: user})
	}
}

// HandleGitHubLogin redirects the browser to the GitHub authorization page.
func (s *Server) HandleGitHubLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.OAuth == nil {
			http.Error(w, "OAuth is not configured", http.StatusServiceUnavailable)
			return
		}

		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     "oauth_state",
			Value:    state,
			Path:     "/",
			MaxAge:   300,
			HttpOnly: true,
		})

		http.Redirect(w, r, s.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
	}
}

// githubProfile is the subset of the GitHub user API we read.
type githubProfile struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// HandleGitHubCallback finishes the OAuth flow: exchanges the code, fetches
// the GitHub profile and logs the matching account in.
func (s *Server) HandleGitHubCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.OAuth == nil {
			http.Error(w, "OAuth is not configured", http.StatusServiceUnavailable)
			return
		}

		stateCookie, err := r.Cookie("oauth_state")
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}

		oauthToken, err := s.OAuth.Exchange(r.Context(), code)
		if err != nil {
			log.Printf("HTTP Handler: OAuth exchange failed: %v", err)
			http.Error(w, "OAuth exchange failed", http.StatusBadGateway)
			return
		}

		profile, err := s.fetchGitHubProfile(r.Context(), oauthToken)
		if err != nil {
			log.Printf("HTTP Handler: Failed to fetch GitHub profile: %v", err)
			http.Error(w, "Failed to fetch GitHub profile", http.StatusBadGateway)
			return
		}

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.OAuthLoginMsg{
			Email:          profile.Email,
			Username:       profile.Login,
			FullName:       profile.Name,
			AvatarURL:      profile.AvatarURL,
			GitHubUsername: profile.Login,
		})
		if err != nil {
			http.Error(w, "Failed to process login", http.StatusInternalServerError)
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			s.respond(w, result)
			return
		}

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			http.Error(w, "Failed to generate auth token", http.StatusInternalServerError)
			return
		}

		s.respond(w, &AuthResponse{Token: token, User: user})
	}
}

func (s *Server) fetchGitHubProfile(ctx stdctx.Context, token *oauth2.Token) (*githubProfile, error) {
	client := s.OAuth.Client(ctx, token)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("github user API returned %d: %s", resp.StatusCode, body)
	}

	var profile githubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	// The profile email is empty when the user hides it; the emails endpoint
	// still returns the primary address for the user:email scope.
	if profile.Email == "" {
		email, err := s.fetchGitHubPrimaryEmail(ctx, token)
		if err != nil {
			return nil, err
		}
		profile.Email = email
	}

	return &profile, nil
}

func (s *Server) fetchGitHubPrimaryEmail(ctx stdctx.Context, token *oauth2.Token) (string, error) {
	client := s.OAuth.Client(ctx, token)

	resp, err := client.Get("https://api.github.com/user/emails")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("no verified primary email on GitHub account")
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	FullName       string `json:"fullName"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatarUrl"`
	GitHubUsername string `json:"githubUsername"`
}

// HandleUserProfile serves and updates the authenticated user's profile. A
// "id" query parameter reads another user's public profile.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			targetID := userID
			if id := r.URL.Query().Get("id"); id != "" {
				parsed, err := uuid.Parse(id)
				if err != nil {
					http.Error(w, "Invalid user ID format", http.StatusBadRequest)
					return
				}
				targetID = parsed
			}

			result, err := s.request(s.Engine.GetUserSupervisor(), &actors.GetUserProfileMsg{UserID: targetID})
			if err != nil {
				http.Error(w, "Failed to get profile", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPut:
			var req UpdateProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetUserSupervisor(), &actors.UpdateProfileMsg{
				UserID:         userID,
				FullName:       req.FullName,
				Bio:            req.Bio,
				AvatarURL:      req.AvatarURL,
				GitHubUsername: req.GitHubUsername,
			})
			if err != nil {
				http.Error(w, "Failed to update profile", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleUserSearch searches users by username or full name.
func (s *Server) HandleUserSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "Search query required", http.StatusBadRequest)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.SearchUsersMsg{
			Query: query,
			Limit: limit,
		})
		if err != nil {
			http.Error(w, "Failed to search users", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// PresenceRequest sets the caller's presence status
type PresenceRequest struct {
	Status string `json:"status"`
}

// HandlePresence updates the caller's presence and lists online users.
func (s *Server) HandlePresence() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			result, err := s.request(s.Engine.GetUserSupervisor(), &actors.GetOnlineUsersMsg{})
			if err != nil {
				http.Error(w, "Failed to get online users", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPut:
			userID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req PresenceRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			status := models.PresenceStatus(req.Status)
			switch status {
			case models.PresenceOnline, models.PresenceAway, models.PresenceBusy, models.PresenceOffline:
			default:
				http.Error(w, "Invalid presence status", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetUserSupervisor(), &actors.SetPresenceMsg{
				UserID: userID,
				Status: status,
			})
			if err != nil {
				http.Error(w, "Failed to update presence", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandlePasswordResetRequest issues a reset token for the given email.
func (s *Server) HandlePasswordResetRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.RequestPasswordResetMsg{Email: req.Email})
		if err != nil {
			http.Error(w, "Failed to process reset request", http.StatusInternalServerError)
			return
		}

		// Never expose the token in the response body. A mailer would pick it
		// up here; without one we log it so operators can relay it manually.
		if reset, ok := result.(*models.PasswordResetToken); ok {
			log.Printf("HTTP Handler: Password reset token issued for user %s (expires %s)",
				reset.UserID, reset.ExpiresAt.Format(time.RFC3339))
			s.respond(w, &models.StatusResponse{Success: true, Message: "If the account exists, a reset link was sent"})
			return
		}
		s.respond(w, result)
	}
}

// HandlePasswordResetConfirm consumes a reset token and sets the new password.
func (s *Server) HandlePasswordResetConfirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Token       string `json:"token"`
			NewPassword string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.ResetPasswordMsg{
			Token:       req.Token,
			NewPassword: req.NewPassword,
		})
		if err != nil {
			http.Error(w, "Failed to reset password", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandlePasswordChange updates the signed-in user's password after verifying
// the current one.
func (s *Server) HandlePasswordChange() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetUserSupervisor(), &actors.ChangePasswordMsg{
			UserID:          userID,
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
		})
		if err != nil {
			http.Error(w, "Failed to change password", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}
