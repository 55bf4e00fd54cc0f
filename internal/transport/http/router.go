package http

import (
	"net/http"
	"time"

	"authsvc/internal/observability/middleware"
	"authsvc/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins  []string
	CookieSecure bool
	// IPRateLimit caps requests per client IP per minute; 0 disables it.
	IPRateLimit    int
	RequestTimeout time.Duration
}

func NewRouter(auth service.AuthService, cfg RouterConfig) http.Handler {
	h := &handler{
		auth:    auth,
		cookies: cookiePolicy{secure: cfg.CookieSecure},
		now:     time.Now,
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.WithRequestAndTrace)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	if cfg.IPRateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.IPRateLimit, time.Minute))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/register", h.register)
	r.Post("/verify-email", h.verifyEmail)
	r.Post("/resend-verification", h.resendVerification)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
	r.Get("/user/{id}", h.user)

	return r
}
