package di

import (
	"context"

	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/KOMKZ/go-yogan-eventbus/telemetry"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// StartCoreComponents forces the lazy providers so configuration errors surface at startup.
// Telemetry failures are logged; an event component failure is returned.
func StartCoreComponents(ctx context.Context, injector do.Injector, log *logger.CtxZapLogger) error {
	if tel, err := do.Invoke[*telemetry.Component](injector); err != nil {
		log.WarnCtx(ctx, "telemetry unavailable", zap.Error(err))
	} else if err := tel.Start(ctx); err != nil {
		return err
	}

	comp, err := do.Invoke[*event.Component](injector)
	if err != nil {
		return err
	}
	if err := comp.Start(ctx); err != nil {
		return err
	}
	if comp.IsEnabled() {
		log.DebugCtx(ctx, "✅ event bus ready", zap.String("bus_id", comp.GetDispatcher().ID()))
	}
	return nil
}
