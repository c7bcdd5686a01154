// Package app wires configuration, credential storage, the provider client
// and the notification backends into a runnable sign-in job. Every binary
// under cmd/ starts here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/unclebandit/drive-signin/internal/config"
	"github.com/unclebandit/drive-signin/internal/db"
	"github.com/unclebandit/drive-signin/internal/drive"
	"github.com/unclebandit/drive-signin/internal/logger"
	"github.com/unclebandit/drive-signin/internal/notify"
	"github.com/unclebandit/drive-signin/internal/queue"
	"github.com/unclebandit/drive-signin/internal/repository"
	"github.com/unclebandit/drive-signin/internal/service"
)

// App is a fully wired process.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Job    *service.Job
	DB     *sql.DB

	closers []io.Closer
}

// Setup loads .env, parses args, reads configuration, opens the log file and
// builds the job.
func Setup(ctx context.Context, name string, args []string) (*App, error) {
	envErr := godotenv.Load()

	flags := config.Flags(name)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		return nil, err
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.New(cfg.Debug, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		log.Debug("no .env file found, relying on environment variables")
	}

	a, err := Build(ctx, cfg, log)
	if err != nil {
		closer.Close()
		return nil, err
	}
	a.closers = append([]io.Closer{closer}, a.closers...)
	return a, nil
}

// Build assembles the job from an already loaded configuration.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	source, sink, err := a.credentialStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := drive.NewClient()
	exchanger := service.NewExchanger(client, service.DefaultRetryPolicy, log)
	signer := service.NewSignInExecutor(client, service.DefaultRetryPolicy, log)

	var redeemer *service.RewardRedeemer
	if cfg.RewardEnabled {
		redeemer = service.NewRewardRedeemer(client, cfg.RewardCode, log)
	}

	session := service.NewSession(exchanger, signer, redeemer, log)
	aggregator := service.NewAggregator(session, log)
	dispatcher := notify.NewDispatcher(log, notify.Backends(cfg.Notify())...)

	a.Job = service.NewJob(source, aggregator, dispatcher, sink, cfg.PushTypes, log)
	log.Info("sign-in job ready",
		"credential_store", cfg.CredentialStore,
		"push_types", cfg.PushTypes,
		"reward_enabled", cfg.RewardEnabled)
	return a, nil
}

func (a *App) credentialStore(ctx context.Context) (service.CredentialSource, service.CredentialSink, error) {
	cfg := a.Config
	switch cfg.CredentialStore {
	case config.StoreFile:
		repo := &repository.FileCredentialRepository{Path: cfg.ConfigFile}
		// Tokens from the environment or .env win over the file; rotated
		// tokens are still written back to it.
		if tokens := repository.CleanTokens(cfg.RefreshTokens); len(tokens) > 0 {
			return &repository.StaticCredentialSource{Tokens: tokens}, repo, nil
		}
		return repo, repo, nil

	case config.StoreGitHub:
		source := &repository.StaticCredentialSource{Tokens: cfg.RefreshTokens}
		sink := &repository.GitHubSecretRepository{
			Token:      cfg.GitHubToken,
			Repository: cfg.GitHubRepository,
			SecretName: cfg.GitHubSecretName,
		}
		return source, sink, nil

	case config.StorePostgres:
		conn, err := a.OpenDB(ctx)
		if err != nil {
			return nil, nil, err
		}
		repo := &repository.CredentialRepository{DB: conn}
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return repo, repo, nil

	case config.StoreNone:
		return &repository.StaticCredentialSource{Tokens: cfg.RefreshTokens}, repository.DiscardSink{}, nil
	}
	return nil, nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
}

// OpenDB connects to DATABASE_URL once and reuses the pool afterwards.
func (a *App) OpenDB(ctx context.Context) (*sql.DB, error) {
	if a.DB != nil {
		return a.DB, nil
	}
	if a.Config.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	conn, err := db.Open(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.DB = conn
	a.closers = append(a.closers, conn)
	a.Logger.Info("database connection established")
	return conn, nil
}

// OpenQueue connects to RabbitMQ when RABBITMQ_URL is set and falls back to
// an in-process queue otherwise.
func (a *App) OpenQueue() (queue.Queue, error) {
	var q queue.Queue
	if a.Config.RabbitMQURL != "" {
		amqpQueue, err := queue.DialAMQP(a.Config.RabbitMQURL, a.Logger)
		if err != nil {
			return nil, err
		}
		a.Logger.Info("connected to RabbitMQ")
		q = amqpQueue
	} else {
		q = queue.NewInMemoryQueue(a.Logger, 8, 2, 30*time.Second)
	}
	a.closers = append(a.closers, q)
	return q, nil
}

// Close releases the database pool and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
