package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/mkuballa/blitzquiz/internal/config"
	"github.com/mkuballa/blitzquiz/internal/database"
	"github.com/mkuballa/blitzquiz/internal/game"
)

type QuizApp struct {
	log            *log.Logger
	db             database.QuizRepository
	mux            *http.Server
	gs             *game.GameServer
	signingKey     []byte
	allowedOrigins []string
}

func NewQuizApp(mux *http.ServeMux, logger *log.Logger, gs *game.GameServer,
	db database.QuizRepository, cfg *config.Config) *QuizApp {
	s := &QuizApp{
		log:            logger,
		db:             db,
		gs:             gs,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("POST /api/games", s.authMiddleware(s.createGame))
	mux.Handle("GET /api/games", s.authMiddleware(s.getGameResults))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *QuizApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *QuizApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
