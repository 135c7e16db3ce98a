package handlers

import (
	"encoding/json"
	"net/http"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"

	"github.com/google/uuid"
)

// CreateCommentRequest represents a request to comment on a post
type CreateCommentRequest struct {
	Content  string `json:"content"`
	PostID   string `json:"postId"`
	ParentID string `json:"parentId,omitempty"`
}

// HandleComments handles comment creation, retrieval and deletion
func (s *Server) HandleComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("postId")
			if id == "" {
				http.Error(w, "Post ID required", http.StatusBadRequest)
				return
			}

			postID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommentActor(),
				&actors.GetCommentsForPostMsg{PostID: postID})
			if err != nil {
				http.Error(w, "Failed to get comments", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req CreateCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			msg := &actors.CreateCommentMsg{
				Content:  req.Content,
				AuthorID: userID,
				PostID:   postID,
			}
			if req.ParentID != "" {
				parentID, err := uuid.Parse(req.ParentID)
				if err != nil {
					http.Error(w, "Invalid parent comment ID format", http.StatusBadRequest)
					return
				}
				msg.ParentID = &parentID
			}

			result, err := s.request(s.Engine.GetCommentActor(), msg)
			if err != nil {
				http.Error(w, "Failed to create comment", http.StatusInternalServerError)
				return
			}
			s.respondCreated(w, result)

		case http.MethodDelete:
			id := r.URL.Query().Get("id")
			commentID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetCommentActor(),
				&actors.DeleteCommentMsg{CommentID: commentID, AuthorID: userID})
			if err != nil {
				http.Error(w, "Failed to delete comment", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
