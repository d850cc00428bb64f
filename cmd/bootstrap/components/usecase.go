package components

import (
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/pkg/clock"
	"slot-reservation-engine/internal/pkg/config"
	"slot-reservation-engine/internal/usecase/commands"
	"slot-reservation-engine/internal/usecase/queries"
	"slot-reservation-engine/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) slot.Codec {
		return slot.NewCodec(cfg.Admission.PreserveVariants, cfg.Admission.MaxSlotIndex)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAdmissionUseCase,
		func(uow shared.UnitOfWork, cache shared.CapacityCache, clk clock.Clock, cfg config.Config) commands.ReconcileCommands {
			return commands.NewReconcileUseCase(uow, cache, clk, cfg.Reconcile)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
	),
)
