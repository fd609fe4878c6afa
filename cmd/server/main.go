package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/mkuballa/blitzquiz/internal/api"
	"github.com/mkuballa/blitzquiz/internal/config"
	"github.com/mkuballa/blitzquiz/internal/database"
	"github.com/mkuballa/blitzquiz/internal/game"
	"github.com/mkuballa/blitzquiz/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	addr            string
	dsn             string
	signingKey      string
	allowedOrigins  stringSliceFlag
	roomGracePeriod time.Duration
	skipMigrations  bool
)

func main() {
	// .env is optional; flags and real environment take precedence.
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("BLITZQUIZ_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("BLITZQUIZ_DSN",
		"host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", os.Getenv("BLITZQUIZ_SIGNING_KEY"), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.DurationVar(&roomGracePeriod, "room-grace-period", 0, "how long finished rooms are kept for reconnects")
	flag.BoolVar(&skipMigrations, "skip-migrations", false, "do not run database migrations on startup")
	flag.Parse()

	logger := log.New(os.Stderr, "[blitzquiz] ", log.LstdFlags)

	if len(allowedOrigins) == 0 {
		if origins := os.Getenv("BLITZQUIZ_ALLOWED_ORIGINS"); origins != "" {
			allowedOrigins = strings.Split(origins, ",")
		}
	}

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, roomGracePeriod)
	if err != nil {
		logger.Fatal("config: ", err)
	}

	if !skipMigrations {
		if err := database.Migrate(cfg.MigrationsURL, cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrate: ", err)
		}
	}

	dbConn, err := database.NewPgQuizRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close: ", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	gameServer, err := game.NewGameServer(logger, dbConn, statsUpdater, clockwork.NewRealClock(), cfg.RoomGracePeriod)
	if err != nil {
		logger.Fatal("new game server: ", err)
	}

	srv := api.NewQuizApp(mux, logger, gameServer, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go gameServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down game server...")
	if err := gameServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("game server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
