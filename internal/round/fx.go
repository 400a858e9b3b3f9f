package round

import (
	"github.com/smallbiznis/lotbid/internal/round/repository"
	"github.com/smallbiznis/lotbid/internal/round/service"
	"go.uber.org/fx"
)

var Module = fx.Module("round.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
