package di

import (
	"go.uber.org/zap"

	"ontoview/application/history"
	"ontoview/application/layout"
	"ontoview/application/ports"
	"ontoview/application/provider"
	"ontoview/application/services"
	"ontoview/domain/core/aggregates"
	"ontoview/domain/events"
	"ontoview/infrastructure/config"
	"ontoview/infrastructure/messaging/eventbridge"
	"ontoview/interfaces/sse"
	"ontoview/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	EventBus     *events.Bus
	Diagram      *aggregates.Diagram
	History      *history.History
	DataProvider ports.DataProvider
	Cache        *provider.Cache
	Service      *services.DiagramService
	LayoutWorker *layout.Worker
	Coordinator  *layout.Coordinator
	Publisher    *eventbridge.Publisher
	Hub          *sse.Hub
}
