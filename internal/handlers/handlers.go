package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"devconnect/internal/database"
	"devconnect/internal/engine"
	"devconnect/internal/storage"
	"devconnect/internal/utils"
	"devconnect/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"golang.org/x/oauth2"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Hub            *websocket.Hub
	DB             database.DBAdapter
	Storage        *storage.S3Store
	OAuth          *oauth2.Config
	Metrics        *utils.MetricsCollector
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	context *actor.RootContext,
	eng *engine.Engine,
	hub *websocket.Hub,
	db database.DBAdapter,
	store *storage.S3Store,
	oauthCfg *oauth2.Config,
	metrics *utils.MetricsCollector,
) *Server {
	return &Server{
		System:         system,
		Context:        context,
		Engine:         eng,
		Hub:            hub,
		DB:             db,
		Storage:        store,
		OAuth:          oauthCfg,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// request sends a message to an actor and waits for the reply, recording the
// round trip under the message type name.
func (s *Server) request(pid *actor.PID, msg interface{}) (interface{}, error) {
	s.Metrics.IncrementRequests()
	start := time.Now()
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	s.Metrics.AddOperationLatency(fmt.Sprintf("%T", msg), time.Since(start))
	return result, err
}

// respond writes an actor result as JSON, translating application errors to
// their HTTP status.
func (s *Server) respond(w http.ResponseWriter, result interface{}) {
	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors()
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// respondCreated is respond with a 201 status for successful creations.
func (s *Server) respondCreated(w http.ResponseWriter, result interface{}) {
	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors()
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}
