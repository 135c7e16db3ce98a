package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"devconnect/internal/changefeed"
	"devconnect/internal/config"
	"devconnect/internal/database"
	"devconnect/internal/engine"
	"devconnect/internal/engine/actors"
	"devconnect/internal/handlers"
	"devconnect/internal/middleware"
	"devconnect/internal/storage"
	"devconnect/internal/utils"
	"devconnect/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.SetSecret(cfg.JWTSecret)
	metrics := utils.NewMetricsCollector()

	// PostgreSQL is the system of record.
	db, err := database.NewPostgresDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close(context.Background())

	if err := db.InitializeTables(context.Background()); err != nil {
		log.Fatalf("Failed to initialize tables: %v", err)
	}

	// MongoDB keeps the short-lived presence and typing documents.
	presence, err := database.NewPresenceStore(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Printf("Presence store unavailable, continuing without it: %v", err)
		presence = nil
	} else {
		defer presence.Close(context.Background())
	}

	// Change events flow through Redis when configured, otherwise in-process.
	var bus changefeed.Bus
	if cfg.Redis.URL != "" {
		redisBus, err := changefeed.NewRedisBus(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		bus = redisBus
		log.Println("Using Redis changefeed bus")
	} else {
		bus = changefeed.NewLocalBus()
		log.Println("Using in-process changefeed bus")
	}
	defer bus.Close()

	var s3Store *storage.S3Store
	if cfg.S3.Bucket != "" {
		s3Store, err = storage.NewS3Store(context.Background(), cfg.S3.Region, cfg.S3.Bucket)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("S3_BUCKET not set, file uploads disabled")
	}

	var oauthCfg *oauth2.Config
	if cfg.OAuth.GitHubClientID != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.OAuth.GitHubClientID,
			ClientSecret: cfg.OAuth.GitHubClientSecret,
			RedirectURL:  cfg.OAuth.GitHubRedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	} else {
		log.Println("GITHUB_CLIENT_ID not set, GitHub login disabled")
	}

	system := actor.NewActorSystem()
	// A nil *PresenceStore must stay a nil interface inside the actors.
	var presenceAdapter actors.PresenceAdapter
	if presence != nil {
		presenceAdapter = presence
	}
	appEngine := engine.NewEngine(system, db, bus, presenceAdapter)

	hub := websocket.NewHub(bus)
	go hub.Run()

	server := handlers.NewServer(system, system.Root, appEngine, hub, db, s3Store, oauthCfg, metrics)

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)

	mux := http.NewServeMux()
	route := func(path string, handler http.HandlerFunc) {
		mux.HandleFunc(path, middleware.ApplyCORS(middleware.ApplyJWTMiddleware(handler, path), corsConfig))
	}

	route("/health", server.HandleHealth())
	route("/api/auth/register", server.HandleUserRegistration())
	route("/api/auth/login", server.HandleUserLogin())
	route("/api/auth/github", server.HandleGitHubLogin())
	route("/api/auth/github/callback", server.HandleGitHubCallback())
	route("/api/auth/password-reset", server.HandlePasswordResetRequest())
	route("/api/auth/password-reset/confirm", server.HandlePasswordResetConfirm())
	route("/api/users/profile", server.HandleUserProfile())
	route("/api/users/password", server.HandlePasswordChange())
	route("/api/users/search", server.HandleUserSearch())
	route("/api/users/presence", server.HandlePresence())
	route("/api/communities", server.HandleCommunities())
	route("/api/communities/members", server.HandleCommunityMembers())
	route("/api/posts", server.HandlePosts())
	route("/api/posts/feed", server.HandleFeed())
	route("/api/posts/vote", server.HandleVote())
	route("/api/comments", server.HandleComments())
	route("/api/conversations", server.HandleConversations())
	route("/api/conversations/participants", server.HandleConversationParticipants())
	route("/api/conversations/read", server.HandleMarkRead())
	route("/api/messages", server.HandleMessages())
	route("/api/messages/reactions", server.HandleReactions())
	route("/api/messages/typing", server.HandleTyping())
	route("/api/events", server.HandleEvents())
	route("/api/events/attendance", server.HandleEventAttendance())
	route("/api/files/upload", server.HandleFileUpload())
	route("/api/files", server.HandleFiles())
	route("/api/dashboard", server.HandleDashboard())

	// The websocket route authenticates itself from the token query parameter.
	mux.HandleFunc("/ws", server.HandleWebSocket())

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
