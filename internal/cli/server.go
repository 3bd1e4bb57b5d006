package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quizion-service/internal/app"
	"quizion-service/internal/config"
	"quizion-service/internal/domain"
	"quizion-service/internal/genai"
	"quizion-service/internal/infra/memory"
	pgarchive "quizion-service/internal/infra/postgres"
	redisinfra "quizion-service/internal/infra/redis"
	transport "quizion-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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
	sessionTTL := config.Duration(cfg.Redis.TTL, 30*time.Minute)

	generator := genai.NewClient(genai.Options{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		BaseURL:        cfg.Gemini.BaseURL,
		ConnectTimeout: config.Duration(cfg.Gemini.ConnectTimeout, 20*time.Second),
		ReadTimeout:    config.Duration(cfg.Gemini.ReadTimeout, 60*time.Second),
	})

	var profiles app.ProfileStore
	var sessions app.SessionRepository
	if redisClient != nil {
		profiles = redisinfra.NewProfileStore(redisClient)
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		profiles = memory.NewProfileStore()
		sessions = memory.NewSessionStore()
	}

	opts := []app.Option{
		app.WithQuestionBudget(config.Duration(cfg.Quiz.QuestionTime, 30*time.Second)),
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts = append(opts, app.WithArchive(pgarchive.NewSummaryArchive(pool)))
	}

	service := app.NewQuizService(sessions, generator, profiles, opts...)
	wsHandler := transport.NewWSHandler(service, cfg.Quiz.QuestionCount, domain.ParseDifficulty(cfg.Quiz.Difficulty))
	profileHandler := transport.NewProfileHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/profile", profileHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizion service on :%s", finalPort)
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
