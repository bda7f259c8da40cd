// internal/app/features/levels/handler.go
package levels

import (
	levelstore "github.com/dalemusser/uplinehub/internal/app/store/levels"
	"github.com/dalemusser/uplinehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler administers level definitions.
type Handler struct {
	Levels *levelstore.Store
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Levels: levelstore.New(db),
		Audit:  audit,
		Log:    logger,
	}
}
