package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
)

// RouterConfig carries the router's non-handler settings.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
	RateLimit   middleware.RateLimitConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	sessions SessionSource,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore())
		r.Use(ContentTypeJSON)
		r.Use(middleware.SessionID())
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Use(WithSession(sessions))

		mountRoutes(r, logger)
	})

	return r
}

func mountRoutes(r chi.Router, logger *slog.Logger) {
	cart := NewCartHandler(logger)
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cart.GetCart)
		r.Delete("/", cart.ClearCart)
		r.Post("/items", cart.AddItem)
		r.Put("/items/{productId}", cart.UpdateItemQuantity)
		r.Delete("/items/{productId}", cart.RemoveItem)
	})

	comparison := NewComparisonHandler(logger)
	r.Route("/comparison", func(r chi.Router) {
		r.Get("/", comparison.GetComparison)
		r.Delete("/", comparison.ClearComparison)
		r.Post("/items", comparison.AddItem)
		r.Delete("/items/{productId}", comparison.RemoveItem)
	})

	wishlist := NewWishlistHandler(logger)
	r.Route("/wishlist", func(r chi.Router) {
		r.Get("/", wishlist.GetWishlist)
		r.Post("/items", wishlist.AddItem)
		r.Post("/toggle", wishlist.Toggle)
		r.Get("/items/{productId}", wishlist.CheckItem)
		r.Delete("/items/{productId}", wishlist.RemoveItem)
	})

	sess := NewSessionHandler(logger)
	r.Route("/session", func(r chi.Router) {
		r.Get("/", sess.GetSession)
		r.Post("/login", sess.Login)
		r.Post("/logout", sess.Logout)
	})

	products := NewProductHandler(logger)
	r.Post("/products/view", products.ViewProduct)
	r.Get("/recently-viewed", products.RecentlyViewed)
	r.Delete("/recently-viewed", products.ClearRecentlyViewed)
	r.Route("/products/{productId}/reviews", func(r chi.Router) {
		r.Get("/", products.ListReviews)
		r.Post("/", products.CreateReview)
		r.Get("/stats", products.ReviewStats)
	})

	analytics := NewAnalyticsHandler(logger)
	r.Post("/analytics/events", analytics.TrackEvents)
}
