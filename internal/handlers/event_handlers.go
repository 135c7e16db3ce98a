package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/google/uuid"
)

// CreateEventRequest represents a request to schedule an event
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	IsVirtual   bool      `json:"isVirtual"`
	MeetingURL  string    `json:"meetingUrl"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	CommunityID string    `json:"communityId,omitempty"`
}

// RSVPRequest sets the caller's attendance for an event
type RSVPRequest struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// HandleEvents handles event creation and lookup
func (s *Server) HandleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			if id := r.URL.Query().Get("id"); id != "" {
				eventID, err := uuid.Parse(id)
				if err != nil {
					http.Error(w, "Invalid event ID format", http.StatusBadRequest)
					return
				}
				result, err := s.request(s.Engine.GetEventActor(),
					&actors.GetEventMsg{EventID: eventID, RequestingUserID: userID})
				if err != nil {
					http.Error(w, "Failed to get event", http.StatusInternalServerError)
					return
				}
				s.respond(w, result)
				return
			}

			if cid := r.URL.Query().Get("communityId"); cid != "" {
				communityID, err := uuid.Parse(cid)
				if err != nil {
					http.Error(w, "Invalid community ID format", http.StatusBadRequest)
					return
				}
				result, err := s.request(s.Engine.GetEventActor(),
					&actors.GetCommunityEventsMsg{CommunityID: communityID, RequestingUserID: userID})
				if err != nil {
					http.Error(w, "Failed to get events", http.StatusInternalServerError)
					return
				}
				s.respond(w, result)
				return
			}

			limit, offset := paginationParams(r)
			result, err := s.request(s.Engine.GetEventActor(), &actors.ListUpcomingEventsMsg{
				Limit:            limit,
				Offset:           offset,
				RequestingUserID: userID,
			})
			if err != nil {
				http.Error(w, "Failed to get events", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req CreateEventRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			msg := &actors.CreateEventMsg{
				Title:       req.Title,
				Description: req.Description,
				Location:    req.Location,
				IsVirtual:   req.IsVirtual,
				MeetingURL:  req.MeetingURL,
				StartsAt:    req.StartsAt,
				EndsAt:      req.EndsAt,
				CreatorID:   userID,
			}
			if req.CommunityID != "" {
				communityID, err := uuid.Parse(req.CommunityID)
				if err != nil {
					http.Error(w, "Invalid community ID format", http.StatusBadRequest)
					return
				}
				msg.CommunityID = &communityID
			}

			result, err := s.request(s.Engine.GetEventActor(), msg)
			if err != nil {
				http.Error(w, "Failed to create event", http.StatusInternalServerError)
				return
			}
			s.respondCreated(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleEventAttendance records and withdraws RSVPs, and lists attendees
func (s *Server) HandleEventAttendance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("eventId")
			eventID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid event ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetEventActor(),
				&actors.GetEventAttendeesMsg{EventID: eventID})
			if err != nil {
				http.Error(w, "Failed to get attendees", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodPost:
			var req RSVPRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}

			eventID, err := uuid.Parse(req.EventID)
			if err != nil {
				http.Error(w, "Invalid event ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetEventActor(), &actors.RSVPMsg{
				EventID: eventID,
				UserID:  userID,
				Status:  models.AttendanceStatus(req.Status),
			})
			if err != nil {
				http.Error(w, "Failed to record RSVP", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		case http.MethodDelete:
			id := r.URL.Query().Get("eventId")
			eventID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid event ID format", http.StatusBadRequest)
				return
			}

			result, err := s.request(s.Engine.GetEventActor(),
				&actors.CancelRSVPMsg{EventID: eventID, UserID: userID})
			if err != nil {
				http.Error(w, "Failed to cancel RSVP", http.StatusInternalServerError)
				return
			}
			s.respond(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
