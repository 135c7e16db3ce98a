package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"devconnect/internal/middleware"
	"devconnect/internal/storage"
)

// UploadResponse is returned after a successful file upload
type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// HandleFileUpload accepts a multipart upload and stores it in the bucket.
// The returned URL goes into the fileUrl of a message or the imageUrl of a
// post.
func (s *Server) HandleFileUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.Storage == nil {
			http.Error(w, "File storage is not configured", http.StatusServiceUnavailable)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
			http.Error(w, "File too large or invalid form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file in request", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > storage.MaxUploadSize {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, storage.MaxUploadSize))
		if err != nil {
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		key := storage.ObjectKey(userID, header.Filename)
		url, err := s.Storage.Upload(r.Context(), key, contentType, data)
		if err != nil {
			log.Printf("HTTP Handler: Upload failed for user %s: %v", userID, err)
			s.Metrics.IncrementErrors()
			http.Error(w, "Upload failed", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(&UploadResponse{URL: url, Key: key})
	}
}

// presignTTL is how long a download link handed to a client stays valid.
const presignTTL = 15 * time.Minute

// HandleFiles serves download links for stored objects and lets owners remove
// them. Keys are prefixed with the uploader's user ID, which is what the
// delete path checks.
func (s *Server) HandleFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Storage == nil {
			http.Error(w, "File storage is not configured", http.StatusServiceUnavailable)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		key := r.URL.Query().Get("key")
		if key == "" {
			http.Error(w, "Missing file key", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			url, err := s.Storage.PresignURL(r.Context(), key, presignTTL)
			if err != nil {
				log.Printf("HTTP Handler: Presign failed for key %s: %v", key, err)
				s.Metrics.IncrementErrors()
				http.Error(w, "Failed to create download link", http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(&UploadResponse{URL: url, Key: key})

		case http.MethodDelete:
			if !strings.HasPrefix(key, userID.String()+"/") {
				http.Error(w, "Not the owner of this file", http.StatusForbidden)
				return
			}
			if err := s.Storage.Delete(r.Context(), key); err != nil {
				log.Printf("HTTP Handler: Delete failed for key %s: %v", key, err)
				s.Metrics.IncrementErrors()
				http.Error(w, "Failed to delete file", http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
