package api

import (
	"fmt"
	"net/http"

	_ "github.com/rohits-web03/docvault/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rohits-web03/docvault/internal/api/handlers"
	"github.com/rohits-web03/docvault/internal/api/middleware"
	"github.com/rohits-web03/docvault/internal/auth"
	"github.com/rohits-web03/docvault/internal/config"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Documents *handlers.DocumentHandler
}

func NewRouter(cfg config.Config, h Handlers, resolver auth.Resolver, logger *zap.Logger) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(cfg.CorsConfig)
	requireAuth := middleware.Auth(resolver, logger)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("POST /register", h.Auth.Register)
	authMux.HandleFunc("POST /login", h.Auth.Login)
	authMux.HandleFunc("POST /logout", h.Auth.Logout)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /documents", h.Documents.List)
	protectedMux.HandleFunc("POST /documents", h.Documents.Upload)
	protectedMux.HandleFunc("GET /documents/{id}", h.Documents.Get)
	protectedMux.HandleFunc("DELETE /documents/{id}", h.Documents.Delete)
	protectedMux.HandleFunc("POST /documents/{id}/analyze", h.Documents.Analyze)
	protectedMux.HandleFunc("POST /documents/{id}/sign", h.Documents.Sign)
	protectedMux.HandleFunc("GET /documents/{id}/download", h.Documents.Download)
	protectedMux.HandleFunc("GET /documents/{id}/file", h.Documents.ViewFile)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			requireAuth(protectedMux),
		),
	)

	logger.Info("Router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Recover(logger)(handler)
	handler = middleware.Logger(logger)(handler)
	handler = middleware.AssignRequestID(handler)
	return handler
}
