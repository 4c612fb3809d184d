package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/config"
	"formbuilder-service/internal/infra/memory"
	infrapg "formbuilder-service/internal/infra/postgres"
	infraredis "formbuilder-service/internal/infra/redis"
	transport "formbuilder-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the form builder server",
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

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)
	var sessions app.SessionStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = infraredis.NewSessionStore(client, sessionTTL)
	} else {
		sessions = memory.NewSessionStore(sessionTTL)
	}

	var forms app.FormRepository
	var users app.UserRepository
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		forms = infrapg.NewFormStore(pool)
		users = infrapg.NewUserStore(pool)
	} else {
		formStore := memory.NewFormStore()
		userStore := memory.NewUserStore()
		if err := seedSampleData(ctx, formStore, userStore); err != nil {
			return err
		}
		log.Printf("no postgres configured, serving sample forms from memory (login %s)", sampleUserEmail)
		forms = formStore
		users = userStore
	}

	feed := app.NewResponseFeed()
	formService := app.NewFormService(forms, feed)
	authService := app.NewAuthService(users, sessions)
	handler := transport.NewHandler(formService, authService, feed)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("starting formbuilder service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		select {
		case <-stop:
			log.Println("shutting down server...")
		case <-groupCtx.Done():
			log.Println("context canceled, shutting down server...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
