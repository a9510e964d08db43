package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	handler "github.com/vncsmyrnk/pollstr/internal/adapters/handler/http"
	"github.com/vncsmyrnk/pollstr/internal/adapters/oauth/google"
	relay "github.com/vncsmyrnk/pollstr/internal/adapters/pubsub/redis"
	"github.com/vncsmyrnk/pollstr/internal/adapters/realtime"
	"github.com/vncsmyrnk/pollstr/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/pollstr/internal/config"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/services"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
	"github.com/vncsmyrnk/pollstr/internal/metrics"
)

type Options struct {
	Config   *config.Config
	DB       *sql.DB
	Redis    *goredis.Client
	Registry *prometheus.Registry
	Logger   *log.Logger
	Verifier ports.TokenVerifier
	// BcryptCost overrides the default hashing cost, for tests.
	BcryptCost int
}

// App is the wired server: repositories, services, realtime fan-out and the
// HTTP router.
type App struct {
	Handler http.Handler
	Hub     *realtime.Hub
	Relay   *relay.SessionRelay
	Tally   ports.TallyService
	Metrics *metrics.Metrics
}

func New(opts Options) *App {
	cfg := opts.Config
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.Verifier == nil {
		opts.Verifier = google.NewVerifier()
	}

	// Initialize Repositories
	pollRepo := postgres.NewPollRepository(opts.DB)
	voteRepo := postgres.NewVoteRepository(opts.DB)
	tallyRepo := postgres.NewTallyRepository(opts.DB)
	userRepo := postgres.NewUserRepository(opts.DB)
	authRepo := postgres.NewAuthRepository(opts.DB)

	m := metrics.New("pollstr", opts.Registry)
	hub := realtime.NewHub()

	broker := session.NewBroker()
	var notifier ports.SessionNotifier = broker
	var sessionRelay *relay.SessionRelay
	if opts.Redis != nil {
		sessionRelay = relay.NewSessionRelay(opts.Redis, relay.DefaultChannel, broker)
		notifier = sessionRelay
	}

	// Initialize Services
	pollService := services.NewPollService(pollRepo, voteRepo)
	voteService := services.NewVoteService(pollRepo, voteRepo,
		services.WithResultsPublisher(hub),
		services.WithVoteRecorder(m),
	)
	tallyService := services.NewTallyService(pollRepo, tallyRepo, cfg.ReconcileConcurrency)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, authRepo, opts.Verifier, notifier, services.AuthConfig{
		JWTSecret:       []byte(cfg.JWTSecret),
		GoogleClientID:  cfg.GoogleClientID,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		BcryptCost:      opts.BcryptCost,
	})

	router := handler.NewRouter(
		handler.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
			RedirectURL:    cfg.GoogleRedirect,
			Cookies: handler.CookieConfig{
				Domain:     cfg.CookieDomain,
				SameSite:   cfg.SameSite(),
				AccessTTL:  cfg.AccessTokenTTL,
				RefreshTTL: cfg.RefreshTokenTTL,
			},
		},
		handler.Services{
			Polls:    pollService,
			Votes:    voteService,
			Tally:    tallyService,
			Users:    userService,
			Auth:     authService,
			Sessions: broker,
			Hub:      hub,
		},
		m,
		opts.Logger,
	)

	return &App{
		Handler: router,
		Hub:     hub,
		Relay:   sessionRelay,
		Tally:   tallyService,
		Metrics: m,
	}
}

// Start runs the background loops until ctx ends.
func (a *App) Start(ctx context.Context) {
	go a.Hub.Run(ctx)
	if a.Relay != nil {
		go func() {
			if err := a.Relay.Run(ctx); err != nil {
				log.WithError(err).WithField("component", "session-relay").Error("session relay stopped")
			}
		}()
	}
}
