package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cocomarket/bulkbuy-backend/api/controllers"
	"github.com/cocomarket/bulkbuy-backend/api/middleware"
	"github.com/cocomarket/bulkbuy-backend/internal/cart"
	"github.com/cocomarket/bulkbuy-backend/internal/consolidation"
	"github.com/cocomarket/bulkbuy-backend/internal/lots"
	"github.com/cocomarket/bulkbuy-backend/internal/packages"
	"github.com/cocomarket/bulkbuy-backend/internal/shipments"
	"github.com/cocomarket/bulkbuy-backend/internal/trace"
	"github.com/cocomarket/bulkbuy-backend/pkg/config"
	"github.com/cocomarket/bulkbuy-backend/pkg/logger"
	"github.com/cocomarket/bulkbuy-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
	lotService lots.Service,
	packageService packages.Service,
	shipmentService shipments.Service,
	traceService trace.Service,
	consolidationService consolidation.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ActorContext(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbPinger,
			"redis":    pingerOrNil(redisClient),
		}))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(cartService, logg))
			r.Get("/active", controllers.CartActive(cartService, logg))
			r.Get("/{cartID}", controllers.CartGet(cartService, logg))
			r.Put("/{cartID}/items", controllers.CartSetItem(cartService, logg))
			r.Get("/{cartID}/totals", controllers.CartTotals(cartService, logg))
			r.Post("/{cartID}/pay", controllers.CartPay(cartService, logg))
			r.Post("/{cartID}/split", controllers.CartSplit(cartService, logg))
		})

		r.Route("/lots", func(r chi.Router) {
			r.Get("/", controllers.LotList(lotService, logg))
			r.Post("/rebuild", controllers.LotsRebuild(consolidationService, logg))
			r.Get("/{lotID}", controllers.LotGet(lotService, logg))
			r.Get("/{lotID}/progress", controllers.LotProgress(lotService, logg))
			r.Get("/{lotID}/packages", controllers.PackagesByLot(packageService, logg))
			r.Post("/{lotID}/ready", controllers.LotMarkReady(lotService, logg))
			r.Post("/{lotID}/send-order", controllers.LotSendOrder(lotService, logg))
			r.Post("/{lotID}/confirm", controllers.LotConfirm(lotService, logg))
			r.Post("/{lotID}/packages", controllers.LotGeneratePackages(lotService, logg))
		})

		r.Route("/packages", func(r chi.Router) {
			r.Get("/{packageID}", controllers.PackageGet(packageService, logg))
			r.Post("/{packageID}/ready", controllers.PackageMarkReady(packageService, logg))
			r.Post("/{packageID}/transit", controllers.PackageStartTransit(packageService, logg))
			r.Post("/{packageID}/delivered", controllers.PackageMarkDelivered(packageService, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", controllers.ShipmentAssemble(shipmentService, logg))
			r.Get("/", controllers.ShipmentList(shipmentService, logg))
			r.Get("/active", controllers.ShipmentActive(shipmentService, logg))
			r.Get("/{shipmentID}", controllers.ShipmentGet(shipmentService, logg))
			r.Post("/{shipmentID}/transit", controllers.ShipmentStartTransit(shipmentService, logg))
			r.Post("/{shipmentID}/arrive", controllers.ShipmentArrive(shipmentService, logg))
			r.Post("/{shipmentID}/close", controllers.ShipmentClose(shipmentService, logg))
		})

		r.Get("/trace/items/{itemID}", controllers.TraceItemStage(traceService, logg))
		r.Get("/dashboard", controllers.DashboardSummary(packageService, shipmentService, logg))
	})

	return r
}

// pingerOrNil keeps a typed nil *redis.Client from masquerading as a live
// dependency behind the Pinger interface.
func pingerOrNil(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
