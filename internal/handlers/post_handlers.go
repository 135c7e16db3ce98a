package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"

	"github.com/google/uuid"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl"`
	CommunityID string `json:"communityId,omitempty"`
}

// VoteRequest represents an upvote or downvote on a post
type VoteRequest struct {
	PostID string `json:"postId"`
	Value  int    `json:"value"`
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// HandlePosts handles post creation, lookup and deletion
func (s *Server) HandlePosts() http.HandlerFunc {
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
				http.Error(w, "Post ID required", http.StatusBadRequest)
				return
			}

			postID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetPostActor(),
				&actors.GetPostMsg{PostID: postID, RequestingUserID: userID})
			if err != nil {
				http.Error(w, "Failed to get post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req CreatePostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			msg := &actors.CreatePostMsg{
				Title:    req.Title,
				Content:  req.Content,
				ImageURL: req.ImageURL,
				AuthorID: userID,
			}
			if req.CommunityID != "" {
				communityID, err := uuid.Parse(req.CommunityID)
				if err != nil {
					http.Error(w, "Invalid community ID format", http.StatusBadRequest)
					return
				}
				msg.CommunityID = &communityID
			}

			result, err := s.request(s.Engine.GetPostActor(), msg)
			if err != nil {
				http.Error(w, "Failed to create post", http.StatusInternalServerError)
				return
			}
			s.respondCreated(w, result)

		case http.MethodDelete:
			id := r.URL.Query().Get("id")
			postID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetPostActor(),
				&actors.DeletePostMsg{PostID: postID, AuthorID: userID})
			if err != nil {
				http.Error(w, "Failed to delete post", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFeed serves the recent-post feed. A "communityId" parameter narrows
// the feed to one community, a "userId" parameter to one author.
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		limit, offset := paginationParams(r)

		if cid := r.URL.Query().Get("communityId"); cid != "" {
			communityID, err := uuid.Parse(cid)
			if err != nil {
				http.Error(w, "Invalid community ID format", http.StatusBadRequest)
				return
			}
			result, err := s.request(s.Engine.GetPostActor(), &actors.GetCommunityPostsMsg{
				CommunityID:      communityID,
				Limit:            limit,
				Offset:           offset,
				RequestingUserID: userID,
			})
			if err != nil {
				http.Error(w, "Failed to get posts", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)
			return
		}

		if uid := r.URL.Query().Get("userId"); uid != "" {
			authorID, err := uuid.Parse(uid)
			if err != nil {
				http.Error(w, "Invalid user ID format", http.StatusBadRequest)
				return
			}
			result, err := s.request(s.Engine.GetPostActor(), &actors.GetUserPostsMsg{
				UserID:           authorID,
				Limit:            limit,
				Offset:           offset,
				RequestingUserID: userID,
			})
			if err != nil {
				http.Error(w, "Failed to get posts", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)
			return
		}

		result, err := s.request(s.Engine.GetPostActor(), &actors.GetFeedMsg{
			Limit:            limit,
			Offset:           offset,
			RequestingUserID: userID,
		})
		if err != nil {
			http.Error(w, "Failed to get feed", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleVote records, flips or withdraws a vote on a post
func (s *Server) HandleVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req VoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetPostActor(), &actors.VotePostMsg{
			PostID: postID,
			UserID: userID,
			Value:  req.Value,
		})
		if err != nil {
			http.Error(w, "Failed to record vote", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}
