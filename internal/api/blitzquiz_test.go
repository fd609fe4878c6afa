package api

import (
	"net/http"
	"testing"

	"github.com/mkuballa/blitzquiz/internal/config"
	"github.com/mkuballa/blitzquiz/internal/database"
	"github.com/mkuballa/blitzquiz/internal/game"
	"github.com/mkuballa/blitzquiz/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewQuizApp(t *testing.T) {
	mux := http.NewServeMux()
	logger := testutil.TestLogger(t)
	gs := &game.GameServer{}
	db := &database.MockQuizRepository{}
	cfg := &config.Config{
		ServerAddr:     "localhost:8080",
		DatabaseDSN:    "dsn",
		SigningKey:     []byte("secret"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	app := NewQuizApp(mux, logger, gs, db, cfg)

	assert.NotNil(t, app, "expected app to be initialized")
	assert.NotNil(t, app.mux, "expected mux to be initialized")
	assert.Equal(t, app.log, logger, "expected logger to be set")
	assert.Equal(t, app.db, db, "expected db to be set")
	assert.Equal(t, app.gs, gs, "expected game server to be set")
	assert.Equal(t, app.signingKey, cfg.SigningKey, "expected signing key to be set")
	assert.Equal(t, app.allowedOrigins, cfg.AllowedOrigins, "expected allowed origins to be set")
	assert.Equal(t, app.mux.Addr, cfg.ServerAddr, "expected server address to match config")
}
