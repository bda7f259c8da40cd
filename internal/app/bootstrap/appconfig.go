// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries the database connection and the referral engine's
// business rules.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Referral engine
	PassiveIncomePercent decimal.Decimal // share of each purchase that forms the pool
	AmountScale          int32           // decimal places of the smallest currency unit
	AppraisalBonus       bool            // credit level appraisal bonuses on promotion

	// Network write rate limit per client IP; 0 disables
	RateLimitWrites int
	RateLimitWindow time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogNetwork string
	AuditLogAdmin   string

	// Per-operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
