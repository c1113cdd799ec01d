package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"cinreq/internal/auth"
	"cinreq/internal/config"
	"cinreq/internal/handler"
	"cinreq/internal/middleware"
	"cinreq/internal/presence"
	"cinreq/internal/repository/postgres"
	"cinreq/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	versionRepo := postgres.NewVersionRepository(repoConfig)
	sectionRepo := postgres.NewSectionRepository(repoConfig)
	bindingRepo := postgres.NewBindingRepository(repoConfig)
	sessionRepo := postgres.NewSessionRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	docService := service.NewDocumentService(docRepo, versionRepo, txManager, logger)
	sectionService := service.NewSectionService(sectionRepo, bindingRepo, docRepo, txManager, logger)
	bindingService := service.NewBindingService(bindingRepo, sectionRepo, docRepo, txManager, logger)
	sessionService := service.NewSessionService(sessionRepo, messageRepo, logger)

	// Presence hub (in-process fan-out, no persistence)
	hub := presence.NewHub(logger)

	// Create handlers
	docHandler := handler.NewDocumentHandler(docService, logger)
	sectionHandler := handler.NewSectionHandler(sectionService, logger)
	bindingHandler := handler.NewBindingHandler(bindingService, logger)
	sessionHandler := handler.NewSessionHandler(sessionService, logger)
	presenceHandler := handler.NewPresenceHandler(hub, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.Health)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Version routes
	mux.HandleFunc("POST /api/documents/{id}/versions", docHandler.CreateVersion)
	mux.HandleFunc("GET /api/documents/{id}/versions", docHandler.ListVersions)
	mux.HandleFunc("GET /api/documents/{id}/versions/{n}", docHandler.GetVersion)
	mux.HandleFunc("POST /api/documents/{id}/versions/{n}/restore", docHandler.RestoreVersion)

	// Section routes (tree must come before {sid})
	mux.HandleFunc("POST /api/documents/{id}/sections", sectionHandler.CreateSection)
	mux.HandleFunc("GET /api/documents/{id}/sections", sectionHandler.ListSections)
	mux.HandleFunc("GET /api/documents/{id}/sections/tree", sectionHandler.GetSectionTree)
	mux.HandleFunc("GET /api/documents/{id}/sections/{sid}", sectionHandler.GetSection)
	mux.HandleFunc("PATCH /api/documents/{id}/sections/{sid}", sectionHandler.UpdateSection)
	mux.HandleFunc("DELETE /api/documents/{id}/sections/{sid}", sectionHandler.DeleteSection)

	// Binding routes
	mux.HandleFunc("POST /api/documents/{id}/sections/{sid}/bindings", bindingHandler.CreateBinding)
	mux.HandleFunc("PATCH /api/documents/{id}/bindings/{bid}", bindingHandler.UpdateBinding)
	mux.HandleFunc("GET /api/documents/{id}/active-bindings", bindingHandler.ListActiveBindings)

	// Presence (websocket upgrade)
	mux.HandleFunc("GET /api/documents/{id}/presence", presenceHandler.Connect)

	// Session routes
	mux.HandleFunc("POST /api/sessions", sessionHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions", sessionHandler.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.GetSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", sessionHandler.UpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionHandler.DeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/messages", sessionHandler.CreateMessage)
	mux.HandleFunc("GET /api/sessions/{id}/messages", sessionHandler.ListMessages)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived presence websockets
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
