package award

import (
	"github.com/smallbiznis/lotbid/internal/award/repository"
	"github.com/smallbiznis/lotbid/internal/award/service"
	"go.uber.org/fx"
)

var Module = fx.Module("award.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
