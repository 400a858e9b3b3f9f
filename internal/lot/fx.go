package lot

import (
	"github.com/smallbiznis/lotbid/internal/lot/repository"
	"github.com/smallbiznis/lotbid/internal/lot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lot.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
