package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/adapters/realtime"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	RedirectURL    string
	Cookies        CookieConfig
}

type Services struct {
	Polls    ports.PollService
	Votes    ports.VoteService
	Tally    ports.TallyService
	Users    ports.UserService
	Auth     ports.AuthService
	Sessions ports.SessionSubscriber
	Hub      *realtime.Hub
}

// Instrumenter wraps every routed request, typically for metrics.
type Instrumenter interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

func NewRouter(cfg RouterConfig, svc Services, metrics Instrumenter, logger *log.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	pollHandler := NewPollHandler(svc.Polls)
	voteHandler := NewVoteHandler(svc.Votes, svc.Tally)
	userHandler := NewUserHandler(svc.Users, svc.Polls)
	authHandler := NewAuthHandler(svc.Auth, cfg.RedirectURL, cfg.Cookies)
	liveHandler := NewLiveHandler(svc.Hub, svc.Tally, svc.Auth, svc.Sessions, originPatterns(cfg.AllowedOrigins))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if metrics != nil {
		r.Use(metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(Authenticate(svc.Auth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	// Websocket streams are kept out of the request timeout.
	timeout := middleware.Timeout(cfg.RequestTimeout)

	r.Route("/auth", func(r chi.Router) {
		r.With(RequireUser).Get("/session/events", liveHandler.SessionEvents)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleCallback)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/polls", func(r chi.Router) {
			r.With(timeout).Get("/", pollHandler.ListPolls)
			r.With(timeout, RequireUser).Post("/", pollHandler.CreatePoll)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/live", liveHandler.PollResults)

				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.Get("/", pollHandler.GetPoll)
					r.Get("/ballot", voteHandler.Ballot)
					r.Get("/results", voteHandler.Results)

					r.Group(func(r chi.Router) {
						r.Use(RequireUser)
						r.Patch("/", pollHandler.UpdatePoll)
						r.Delete("/", pollHandler.DeletePoll)
						r.Post("/votes", voteHandler.VoteOnPoll)
						r.Get("/vote-status", voteHandler.VoteStatus)
					})
				})
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(timeout, RequireUser)
			r.Get("/", userHandler.GetMe)
			r.Get("/polls", userHandler.MyPolls)
			r.Get("/votes", userHandler.MyVotes)
		})
	})

	return r
}

// originPatterns turns CORS origins into the host patterns the websocket
// origin check expects.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
