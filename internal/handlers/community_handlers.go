package handlers

import (
	"encoding/json"
	"net/http"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"

	"github.com/google/uuid"
)

// CreateCommunityRequest represents a request to create a new community
type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatarUrl"`
}

// HandleCommunities handles requests related to communities
func (s *Server) HandleCommunities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			name := r.URL.Query().Get("name")
			id := r.URL.Query().Get("id")

			// Neither parameter lists all communities
			if name == "" && id == "" {
				result, err := s.request(s.Engine.GetCommunityActor(),
					&actors.ListCommunitiesMsg{RequestingUserID: userID})
				if err != nil {
					http.Error(w, "Failed to get communities", http.StatusInternalServerError)
					return
				}
				s.respond(w, result)
				return
			}

			if id != "" {
				communityID, err := uuid.Parse(id)
				if err != nil {
					http.Error(w, "Invalid community ID format", http.StatusBadRequest)
					return
				}

				result, err := s.request(s.Engine.GetCommunityActor(),
					&actors.GetCommunityMsg{CommunityID: communityID, RequestingUserID: userID})
				if err != nil {
					http.Error(w, "Failed to get community", http.StatusInternalServerError)
					return
				}
				s.respond(w, result)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(),
				&actors.GetCommunityByNameMsg{Name: name})
			if err != nil {
				http.Error(w, "Failed to get community", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req CreateCommunityRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.CreateCommunityMsg{
				Name:        req.Name,
				Description: req.Description,
				AvatarURL:   req.AvatarURL,
				CreatorID:   userID,
			})
			if err != nil {
				http.Error(w, "Failed to create community", http.StatusInternalServerError)
				return
			}
			s.respondCreated(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleCommunityMembers handles community membership operations
func (s *Server) HandleCommunityMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("id")
			if id == "" {
				http.Error(w, "Community ID required", http.StatusBadRequest)
				return
			}

			communityID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid community ID", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(),
				&actors.GetCommunityMembersMsg{CommunityID: communityID})
			if err != nil {
				http.Error(w, "Failed to get members", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req struct {
				CommunityID string `json:"communityId"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			communityID, err := uuid.Parse(req.CommunityID)
			if err != nil {
				http.Error(w, "Invalid community ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.JoinCommunityMsg{
				CommunityID: communityID,
				UserID:      userID,
			})
			if err != nil {
				http.Error(w, "Failed to join community", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodDelete:
			var req struct {
				CommunityID string `json:"communityId"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			communityID, err := uuid.Parse(req.CommunityID)
			if err != nil {
				http.Error(w, "Invalid community ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommunityActor(), &actors.LeaveCommunityMsg{
				CommunityID: communityID,
				UserID:      userID,
			})
			if err != nil {
				http.Error(w, "Failed to leave community", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
