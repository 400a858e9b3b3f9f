package migration

import (
	auditdomain "github.com/smallbiznis/lotbid/internal/audit/domain"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	"github.com/smallbiznis/lotbid/internal/config"
	invitationdomain "github.com/smallbiznis/lotbid/internal/invitation/domain"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType != "postgres" {
			log.Info("auto-migrating schema", zap.String("db_type", cfg.DBType))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		_, err = RunMigrations(sqlDB, log)
		return err
	}),
)

// AutoMigrate creates the schema from the gorm models. It serves the
// non-postgres dialects, which the SQL migrations do not target.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&lotdomain.Lot{},
		&lotdomain.LineItem{},
		&rounddomain.Round{},
		&offerdomain.Offer{},
		&offerdomain.OfferLine{},
		&awarddomain.AwardedLine{},
		&invitationdomain.Invitation{},
		&auditdomain.AuditLog{},
	)
}
