package cli

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pubgame-service/internal/config"
	"pubgame-service/internal/domain"
	"pubgame-service/internal/game"
	"pubgame-service/internal/infra/memory"
	pgloader "pubgame-service/internal/infra/postgres"
	redisinfra "pubgame-service/internal/infra/redis"
	"pubgame-service/internal/realtime"
	transport "pubgame-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := applyMigrations(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Sessions.TTL, 12*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.PackLoader = memory.NewStaticPackLoader(samplePacks())
	if pool != nil {
		loader = pgloader.NewPackLoader(pool)
	}

	packTTL := config.TTLDuration(cfg.Packs.TTL, 10*time.Minute)
	var packs game.PackRepository
	if redisClient != nil {
		packs = redisinfra.NewPackRepository(redisClient, loader, packTTL)
	} else {
		packs = memory.NewPackRepository(loader, packTTL)
	}

	var store game.SessionStore
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore()
	}

	locks := game.NewKeyedMutex()
	grader := game.NewGrader(store, locks)
	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, store, locks)

	wsHandler := transport.NewWSHandler(registry, dispatcher)
	gamesHandler := transport.NewGamesHandler(store, packs, grader, locks)
	mux := transport.NewMux(wsHandler, gamesHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// samplePacks provides demo content; the Postgres loader replaces this when
// a database is configured.
func samplePacks() map[string]domain.Pack {
	perilContent, _ := json.Marshal(domain.PerilContent{
		GameName: "PERIL!",
		Categories: []domain.PerilCategory{
			{
				CategoryTitle: "Bar Trivia",
				Clues: []domain.PerilClue{
					{Value: 100, Difficulty: 1, ClueText: "This golden lager style was born in a Czech town in 1842", CorrectAnswer: "A"},
					{Value: 200, Difficulty: 2, ClueText: "The number of strings on a standard bar-room ukulele", CorrectAnswer: "B"},
				},
			},
		},
	})
	return map[string]domain.Pack{
		"pack-peril-demo": {
			ID:      "pack-peril-demo",
			Name:    "Peril Demo Pack",
			Format:  domain.FormatPeril,
			Content: perilContent,
			Tags:    []string{"demo"},
		},
	}
}
