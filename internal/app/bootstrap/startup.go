// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// The company wallet must exist before any purchase can settle, so it is
// created here.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	w, err := walletstore.New(deps.MongoDatabase).EnsureCompany(ctx)
	if err != nil {
		logger.Error("ensure company wallet failed", zap.Error(err))
		return err
	}
	logger.Info("company wallet ready",
		zap.String("wallet_id", w.ID.Hex()),
		zap.String("amount", w.Balance.String()))
	return nil
}
