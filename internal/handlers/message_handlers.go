package handlers

import (
	"encoding/json"
	"net/http"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/google/uuid"
)

// CreateConversationRequest starts a direct or group conversation
type CreateConversationRequest struct {
	Type           string   `json:"type"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	IsPrivate      bool     `json:"isPrivate,omitempty"`
	ParticipantIDs []string `json:"participantIds"`
}

// SendMessageRequest posts a message into a conversation
type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	Type           string `json:"type,omitempty"`
	FileURL        string `json:"fileUrl,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	ReplyToID      string `json:"replyToId,omitempty"`
}

// ReactionRequest adds or removes an emoji reaction on a message
type ReactionRequest struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

func parseUUIDList(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// HandleConversations creates and lists conversations
func (s *Server) HandleConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			if id := r.URL.Query().Get("id"); id != "" {
				conversationID, err := uuid.Parse(id)
				if err != nil {
					http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
					return
				}
				result, err := s.request(s.Engine.GetConversationActor(),
					&actors.GetConversationMsg{ConversationID: conversationID, UserID: userID})
				if err != nil {
					http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
					return
				}
				s.respond(w, result)
				return
			}

			result, err := s.request(s.Engine.GetConversationActor(),
				&actors.ListConversationsMsg{UserID: userID})
			if err != nil {
				http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req CreateConversationRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			participantIDs, err := parseUUIDList(req.ParticipantIDs)
			if err != nil {
				http.Error(w, "Invalid participant ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetConversationActor(), &actors.CreateConversationMsg{
				Type:           models.ConversationType(req.Type),
				Name:           req.Name,
				Description:    req.Description,
				IsPrivate:      req.IsPrivate,
				CreatorID:      userID,
				ParticipantIDs: participantIDs,
			})
			if err != nil {
				http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
				return
			}
			s.respondCreated(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleConversationParticipants adds members to a group conversation
func (s *Server) HandleConversationParticipants() http.HandlerFunc {
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

		var req struct {
			ConversationID string   `json:"conversationId"`
			ParticipantIDs []string `json:"participantIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		conversationID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
			return
		}

		participantIDs, err := parseUUIDList(req.ParticipantIDs)
		if err != nil {
			http.Error(w, "Invalid participant ID format", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetConversationActor(), &actors.AddParticipantsMsg{
			ConversationID: conversationID,
			RequesterID:    userID,
			ParticipantIDs: participantIDs,
		})
		if err != nil {
			http.Error(w, "Failed to add participants", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleMessages sends, lists, edits and deletes messages
func (s *Server) HandleMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("conversationId")
			conversationID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
				return
			}

			limit, offset := paginationParams(r)

			result, err := s.request(s.Engine.GetConversationActor(), &actors.GetMessagesMsg{
				ConversationID: conversationID,
				UserID:         userID,
				Limit:          limit,
				Offset:         offset,
			})
			if err != nil {
				http.Error(w, "Failed to get messages", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			conversationID, err := uuid.Parse(req.ConversationID)
			if err != nil {
				http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
				return
			}

			msgType := models.MessageText
			if req.Type != "" {
				msgType = models.MessageType(req.Type)
			}

			var replyToID *uuid.UUID
			if req.ReplyToID != "" {
				parsed, err := uuid.Parse(req.ReplyToID)
				if err != nil {
					http.Error(w, "Invalid reply target ID format", http.StatusBadRequest)
					return
				}
				replyToID = &parsed
			}

			result, err := s.request(s.Engine.GetConversationActor(), &actors.SendMessageMsg{
				ConversationID: conversationID,
				SenderID:       userID,
				Content:        req.Content,
				Type:           msgType,
				FileURL:        req.FileURL,
				FileName:       req.FileName,
				ReplyToID:      replyToID,
			})
			if err != nil {
				http.Error(w, "Failed to send message", http.StatusInternalServerError)
				return
			}
			s.respondCreated(w, result)

		case http.MethodPut:
			var req struct {
				MessageID string `json:"messageId"`
				Content   string `json:"content"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			messageID, err := uuid.Parse(req.MessageID)
			if err != nil {
				http.Error(w, "Invalid message ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetConversationActor(), &actors.EditMessageMsg{
				MessageID: messageID,
				SenderID:  userID,
				Content:   req.Content,
			})
			if err != nil {
				http.Error(w, "Failed to edit message", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodDelete:
			id := r.URL.Query().Get("id")
			messageID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid message ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetConversationActor(),
				&actors.DeleteMessageMsg{MessageID: messageID, SenderID: userID})
			if err != nil {
				http.Error(w, "Failed to delete message", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleMarkRead records how far the caller has read a conversation
func (s *Server) HandleMarkRead() http.HandlerFunc {
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

		var req struct {
			ConversationID string `json:"conversationId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		conversationID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
			return
		}

		result, err := s.request(s.Engine.GetConversationActor(),
			&actors.MarkReadMsg{ConversationID: conversationID, UserID: userID})
		if err != nil {
			http.Error(w, "Failed to mark conversation read", http.StatusInternalServerError)
			return
		}
		s.respond(w, result)
	}
}

// HandleReactions adds and removes emoji reactions on messages
func (s *Server) HandleReactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req ReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		messageID, err := uuid.Parse(req.MessageID)
		if err != nil {
			http.Error(w, "Invalid message ID format", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodPost:
			result, err := s.request(s.Engine.GetConversationActor(), &actors.AddReactionMsg{
				MessageID: messageID,
				UserID:    userID,
				Emoji:     req.Emoji,
			})
			if err != nil {
				http.Error(w, "Failed to add reaction", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodDelete:
			result, err := s.request(s.Engine.GetConversationActor(), &actors.RemoveReactionMsg{
				MessageID: messageID,
				UserID:    userID,
				Emoji:     req.Emoji,
			})
			if err != nil {
				http.Error(w, "Failed to remove reaction", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleTyping publishes and reads typing indicators for a conversation
func (s *Server) HandleTyping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("conversationId")
			conversationID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetConversationActor(),
				&actors.GetTypingMsg{ConversationID: conversationID, RequestingUserID: userID})
			if err != nil {
				http.Error(w, "Failed to get typing users", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req struct {
				ConversationID string `json:"conversationId"`
				Username       string `json:"username"`
				Typing         bool   `json:"typing"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			conversationID, err := uuid.Parse(req.ConversationID)
			if err != nil {
				http.Error(w, "Invalid conversation ID format", http.StatusBadRequest)
				return
			}

			var result interface{}
			if req.Typing {
				result, err = s.request(s.Engine.GetConversationActor(), &actors.SetTypingMsg{
					ConversationID: conversationID,
					UserID:         userID,
					Username:       req.Username,
				})
			} else {
				result, err = s.request(s.Engine.GetConversationActor(), &actors.ClearTypingMsg{
					ConversationID: conversationID,
					UserID:         userID,
				})
			}
			if err != nil {
				http.Error(w, "Failed to update typing state", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
