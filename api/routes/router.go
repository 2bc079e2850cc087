package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tableside-backend/api/controllers"
	"github.com/angelmondragon/tableside-backend/api/middleware"
	"github.com/angelmondragon/tableside-backend/internal/cart"
	"github.com/angelmondragon/tableside-backend/internal/catalog"
	"github.com/angelmondragon/tableside-backend/internal/orders"
	"github.com/angelmondragon/tableside-backend/internal/servercalls"
	"github.com/angelmondragon/tableside-backend/internal/sessions"
	"github.com/angelmondragon/tableside-backend/pkg/config"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the router wires into
// handlers. Idempotency and Metrics are optional.
type Dependencies struct {
	Cart        cart.Service
	Orders      orders.Service
	Sessions    sessions.Service
	Catalog     catalog.Service
	ServerCalls servercalls.Service
	Idempotency redis.IdempotencyStore
	Metrics     http.Handler
	Readiness   []controllers.ReadinessCheck
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	idempotent := middleware.Idempotency(deps.Idempotency, logg)

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Post("/", controllers.CartAdd(deps.Cart, logg))
			r.Get("/{sessionId}", controllers.CartList(deps.Cart, logg))
			r.Put("/{id}", controllers.CartUpdate(deps.Cart, logg))
			r.Delete("/{id}", controllers.CartRemove(deps.Cart, logg))
			r.Delete("/session/{sessionId}", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(idempotent).Post("/", controllers.OrderPlace(deps.Orders, logg))
			r.Get("/{sessionId}", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}/detail", controllers.OrderDetail(deps.Orders, logg))
			r.Put("/{orderId}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionCreate(deps.Sessions, logg))
			r.Get("/{sessionId}", controllers.SessionGet(deps.Sessions, logg))
			r.With(idempotent).Post("/{sessionId}/close", controllers.SessionClose(deps.Sessions, logg))
			r.Put("/{sessionId}/status", controllers.SessionUpdateStatus(deps.Sessions, logg))
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.RestaurantList(deps.Catalog, logg))
			r.Route("/{restaurantId}", func(r chi.Router) {
				r.Get("/", controllers.RestaurantGet(deps.Catalog, logg))
				r.Get("/menu", controllers.RestaurantMenu(deps.Catalog, logg))
				r.Get("/deals", controllers.RestaurantDeals(deps.Catalog, logg))
				r.Get("/server-calls", controllers.ServerCallList(deps.ServerCalls, logg))
				r.Get("/tables/{tableNumber}/qr", controllers.TableQRCode(deps.Catalog, cfg.App.PublicBaseURL, logg))
			})
		})

		r.Route("/menu-items/{id}", func(r chi.Router) {
			r.Get("/", controllers.MenuItemGet(deps.Catalog, logg))
			r.Get("/addons", controllers.MenuItemAddons(deps.Catalog, logg))
			r.Post("/vote", controllers.MenuItemVote(deps.Catalog, logg))
		})

		r.Route("/server-calls", func(r chi.Router) {
			r.Post("/", controllers.ServerCallCreate(deps.ServerCalls, logg))
			r.Put("/{id}/status", controllers.ServerCallUpdateStatus(deps.ServerCalls, logg))
		})
	})

	return r
}
