package components

import (
	"slot-reservation-engine/internal/handler"
	"slot-reservation-engine/internal/handler/api"
	"slot-reservation-engine/internal/handler/middleware"
	"slot-reservation-engine/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewAvailabilityHandler,
		api.NewAdminHandler,
		func(cfg config.Config) *middleware.WriteLimiter {
			return middleware.NewWriteLimiter(cfg.Server)
		},
		func(
			reservation *api.ReservationHandler,
			availability *api.AvailabilityHandler,
			admin *api.AdminHandler,
			limiter *middleware.WriteLimiter,
		) handler.Handlers {
			return handler.Handlers{
				Reservation:  reservation,
				Availability: availability,
				Admin:        admin,
				WriteLimiter: limiter,
			}
		},
	),
	fx.Invoke(handler.NewRouter),
)
