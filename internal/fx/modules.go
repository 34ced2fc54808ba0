package fx

import (
	"github.com/DevNDanger/MyPinballStats/internal/config"
	"github.com/DevNDanger/MyPinballStats/internal/dashboard"
	"github.com/DevNDanger/MyPinballStats/internal/history"
	"github.com/DevNDanger/MyPinballStats/internal/identity"
	"github.com/DevNDanger/MyPinballStats/internal/ifpa"
	"github.com/DevNDanger/MyPinballStats/internal/logger"
	"github.com/DevNDanger/MyPinballStats/internal/matchplay"
	"github.com/DevNDanger/MyPinballStats/internal/server"
	"github.com/DevNDanger/MyPinballStats/internal/store"
	"github.com/DevNDanger/MyPinballStats/internal/transport"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(store.New),
	// shared transport
	fx.Provide(transport.NewClient),
	// provider adapters
	fx.Provide(ifpa.NewClient),
	fx.Provide(matchplay.NewClient),
	// core
	fx.Provide(identity.NewResolver),
	fx.Provide(history.NewReconstructor),
	fx.Provide(dashboard.NewService),
	// server
	fx.Provide(server.New),
)
