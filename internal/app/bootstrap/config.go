// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/system/auditlog"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for UplineHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, passive_income_percent, etc.
//   - Environment variables: UPLINEHUB_MONGO_URI, UPLINEHUB_AMOUNT_SCALE, etc.
//   - Command-line flags: --mongo_uri, --amount_scale, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "uplinehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Referral engine
	{Name: "passive_income_percent", Default: "10", Desc: "Percent of each purchase that forms the passive-income pool"},
	{Name: "amount_scale", Default: 2, Desc: "Decimal places of the smallest currency unit; shares are truncated to it"},
	{Name: "appraisal_bonus_enabled", Default: true, Desc: "Credit a level's appraisal bonus from the company wallet on promotion"},

	// Rate limiting
	{Name: "rate_limit_writes", Default: 120, Desc: "Max network write requests per client IP per window; 0 disables"},
	{Name: "rate_limit_window", Default: "1m", Desc: "Rate limit window for network writes"},

	// Audit logging settings
	{Name: "audit_log_network", Default: "all", Desc: "Network event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for writes and small transactions"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for purchases and promotion cascades"},
}

var hundred = decimal.NewFromInt(100)

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, UPLINEHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "UPLINEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	pct, err := decimal.NewFromString(appValues.String("passive_income_percent"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("passive_income_percent: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		PassiveIncomePercent: pct,
		AmountScale:          int32(appValues.Int("amount_scale")),
		AppraisalBonus:       appValues.Bool("appraisal_bonus_enabled"),

		RateLimitWrites: appValues.Int("rate_limit_writes"),
		RateLimitWindow: appValues.Duration("rate_limit_window", time.Minute),

		AuditLogNetwork: appValues.String("audit_log_network"),
		AuditLogAdmin:   appValues.String("audit_log_admin"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked here to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateEngine(appCfg)
}

func validateEngine(appCfg AppConfig) error {
	if appCfg.PassiveIncomePercent.IsNegative() || appCfg.PassiveIncomePercent.GreaterThan(hundred) {
		return fmt.Errorf("passive_income_percent must be between 0 and 100, got %s", appCfg.PassiveIncomePercent)
	}
	if appCfg.AmountScale < 0 {
		return fmt.Errorf("amount_scale must not be negative, got %d", appCfg.AmountScale)
	}
	if appCfg.RateLimitWrites < 0 {
		return fmt.Errorf("rate_limit_writes must not be negative, got %d", appCfg.RateLimitWrites)
	}
	if appCfg.RateLimitWrites > 0 && appCfg.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive, got %s", appCfg.RateLimitWindow)
	}
	for name, v := range map[string]string{"audit_log_network": appCfg.AuditLogNetwork, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, v)
		}
	}
	return nil
}

// engineConfig maps the app config onto the referral engine's settings.
func engineConfig(appCfg AppConfig) network.Config {
	return network.Config{
		PassiveIncomePercent: appCfg.PassiveIncomePercent,
		AmountScale:          appCfg.AmountScale,
		AppraisalBonus:       appCfg.AppraisalBonus,
	}
}

func auditConfig(appCfg AppConfig) auditlog.Config {
	return auditlog.Config{
		Network: appCfg.AuditLogNetwork,
		Admin:   appCfg.AuditLogAdmin,
	}
}
