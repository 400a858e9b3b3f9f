package offer

import (
	"github.com/smallbiznis/lotbid/internal/offer/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("offer.repository",
	fx.Provide(repository.Provide),
)
