// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/uplinehub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/uplinehub/internal/app/features/health"
	ledgerfeature "github.com/dalemusser/uplinehub/internal/app/features/ledger"
	levelsfeature "github.com/dalemusser/uplinehub/internal/app/features/levels"
	networkfeature "github.com/dalemusser/uplinehub/internal/app/features/network"
	"github.com/dalemusser/uplinehub/internal/app/store/audit"
	networkstore "github.com/dalemusser/uplinehub/internal/app/store/network"
	"github.com/dalemusser/uplinehub/internal/app/system/auditlog"
	"github.com/dalemusser/uplinehub/internal/app/system/metrics"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The referral engine is built once over the MongoDB store and shared by
// the network feature; level administration, the ledger views and the
// audit log read their stores directly. Network writes are rate limited
// per client IP when rate_limit_writes is positive.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	auditLog := auditlog.New(audit.New(db), logger, auditConfig(appCfg))
	store := networkstore.New(db, logger)
	engine := network.New(store, store, store, auditLog, logger, engineConfig(appCfg))

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(db, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	var networkMW []func(http.Handler) http.Handler
	if appCfg.RateLimitWrites > 0 {
		networkMW = append(networkMW, ratelimit.Writes(appCfg.RateLimitWrites, appCfg.RateLimitWindow))
	}
	networkHandler := networkfeature.NewHandler(engine, store, logger)
	r.Mount("/network", networkfeature.Routes(networkHandler, networkMW...))

	levelsHandler := levelsfeature.NewHandler(db, auditLog, logger)
	r.Mount("/levels", levelsfeature.Routes(levelsHandler))

	ledgerHandler := ledgerfeature.NewHandler(db, logger)
	r.Mount("/ledger", ledgerfeature.Routes(ledgerHandler))

	auditHandler := auditlogfeature.NewHandler(db, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler))

	return r, nil
}
