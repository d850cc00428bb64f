package bootstrap

import (
	"slot-reservation-engine/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// CoreModule is everything the use cases need; the reconcile CLI stops here.
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	CacheModule,
	components.PersistenceModule,
	components.UseCaseModule,
)

var Module = fx.Options(
	CoreModule,
	components.HandlerModule,
	SchedulerModule,
)
