package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcuschung/assetflow-backend/api/controllers"
	"github.com/marcuschung/assetflow-backend/api/middleware"
	assetsvc "github.com/marcuschung/assetflow-backend/internal/assets"
	"github.com/marcuschung/assetflow-backend/internal/movements"
	"github.com/marcuschung/assetflow-backend/internal/stocktakes"
	"github.com/marcuschung/assetflow-backend/pkg/config"
	"github.com/marcuschung/assetflow-backend/pkg/db"
	"github.com/marcuschung/assetflow-backend/pkg/logger"
	"github.com/marcuschung/assetflow-backend/pkg/metrics"
	pkgredis "github.com/marcuschung/assetflow-backend/pkg/redis"
)

// Deps carries everything the router needs. Fields left nil disable the
// corresponding concern (no redis means no idempotency replay, no registry
// means no /metrics endpoint).
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *pkgredis.Client
	Metrics      *metrics.HTTPMetrics
	PromRegistry *prometheus.Registry

	Movements  movements.Service
	StockTakes stocktakes.Service
	Registry   assetsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var idempotencyStore pkgredis.IdempotencyStore
	var cachePinger pkgredis.Pinger
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		cachePinger = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cachePinger, logg))
	})

	if deps.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/movements", func(r chi.Router) {
			r.Post("/", controllers.MovementCreate(deps.Movements, logg))
			r.Get("/", controllers.MovementList(deps.Movements, logg))
			r.Post("/bulk", controllers.MovementBulkCreate(deps.Movements, logg))
			r.Get("/{movementID}", controllers.MovementGet(deps.Movements, logg))
			r.Post("/{movementID}/transition", controllers.MovementTransition(deps.Movements, logg))
			r.Post("/{movementID}/cancel", controllers.MovementCancel(deps.Movements, logg))
		})

		r.Get("/track/{trackingNumber}", controllers.MovementTrack(deps.Movements, logg))

		r.Route("/stock-takes", func(r chi.Router) {
			r.Post("/", controllers.StockTakePlan(deps.StockTakes, logg))
			r.Get("/", controllers.StockTakeList(deps.StockTakes, logg))
			r.Get("/{stockTakeID}", controllers.StockTakeGet(deps.StockTakes, logg))
			r.Post("/{stockTakeID}/start", controllers.StockTakeStart(deps.StockTakes, logg))
			r.Post("/{stockTakeID}/findings", controllers.StockTakeRecordFinding(deps.StockTakes, logg))
			r.Post("/{stockTakeID}/complete", controllers.StockTakeComplete(deps.StockTakes, logg))
		})

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", controllers.AssetCreate(deps.Registry, logg))
			r.Get("/", controllers.AssetList(deps.Registry, logg))
			r.Get("/{assetID}", controllers.AssetGet(deps.Registry, logg))
			r.Patch("/{assetID}", controllers.AssetUpdate(deps.Registry, logg))
			r.Delete("/{assetID}", controllers.AssetDelete(deps.Registry, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Post("/", controllers.LocationCreate(deps.Registry, logg))
			r.Get("/", controllers.LocationList(deps.Registry, logg))
			r.Get("/{locationID}", controllers.LocationGet(deps.Registry, logg))
			r.Patch("/{locationID}", controllers.LocationUpdate(deps.Registry, logg))
		})
	})

	return r
}
