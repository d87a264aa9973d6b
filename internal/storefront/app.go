package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MediCart/internal/cart"
	"MediCart/internal/catalog"
	"MediCart/internal/identity"
	"MediCart/internal/orders"
	"MediCart/internal/storage"
	"MediCart/internal/wishlist"
	"MediCart/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Manager *Manager
	JWT     *identity.TokenMaker
	Catalog *catalog.Client
	Orders  *orders.Client
	KV      storage.KV

	CookieName     string
	AllowedOrigins []string
	LoginPerMinute int
}

const limitWindow = 60 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	s := &Server{
		JWT:    deps.JWT,
		Orders: deps.Orders,
		Log:    httpDeps.Log,
	}
	cartSrv := &cart.Server{Catalog: deps.Catalog, Log: httpDeps.Log}
	wishSrv := &wishlist.Server{Catalog: deps.Catalog, Log: httpDeps.Log}

	r := chi.NewRouter()
	setupMiddleware(r, deps, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.KV, httpDeps.Log))

	loginLimiter := kit.NewIPRateLimiter(deps.LoginPerMinute, int(limitWindow.Seconds()))

	r.Group(func(pr chi.Router) {
		pr.Use(deps.Manager.WithSession(deps.CookieName))

		pr.Route("/session", func(sr chi.Router) {
			sr.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
			sr.Post("/logout", s.handleLogout)
			sr.Get("/", s.handleSession)
		})

		pr.Mount("/cart", cartSrv.Routes())
		pr.Mount("/wishlist", wishSrv.Routes())

		pr.Post("/checkout", s.handleCheckout)
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps Deps, httpDeps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(httpDeps.Log))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(kv storage.KV, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := kv.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
