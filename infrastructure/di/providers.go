package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
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
	dynamoprovider "ontoview/infrastructure/provider/dynamodb"
	memoryprovider "ontoview/infrastructure/provider/memory"
	"ontoview/interfaces/sse"
	"ontoview/pkg/observability"
)

// ProvideLogger creates the application logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the Prometheus collectors
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics("ontoview")
}

// ProvideEventBus creates the in-process diagram event bus
func ProvideEventBus(logger *zap.Logger) *events.Bus {
	return events.NewBus(logger)
}

// ProvideDiagram creates the diagram aggregate served by this process
func ProvideDiagram(cfg *config.Config, bus *events.Bus) *aggregates.Diagram {
	return aggregates.NewDiagram(cfg.Domain().DefaultDiagramName, bus)
}

// ProvideHistory creates the undo/redo engine
func ProvideHistory(diagram *aggregates.Diagram, cfg *config.Config, logger *zap.Logger) *history.History {
	return history.New(diagram, cfg.HistoryDepth, logger)
}

// ProvideDataProvider selects the configured backend and wraps it with a
// circuit breaker
func ProvideDataProvider(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DataProvider {
	var inner ports.DataProvider
	switch cfg.ProviderBackend {
	case "dynamodb":
		inner = dynamoprovider.NewProvider(client, cfg.DynamoDBTable, logger)
	default:
		inner = memoryprovider.NewProvider(logger)
	}

	breakerCfg := provider.DefaultBreakerConfig()
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}
	return provider.NewBreakerProvider(inner, breakerCfg, logger)
}

// ProvideCache creates the deduplicating provider cache
func ProvideCache(dataProvider ports.DataProvider, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *provider.Cache {
	return provider.NewCache(dataProvider, logger,
		provider.WithMaxEntries(cfg.CacheMaxEntries),
		provider.WithStaleAfter(cfg.CacheStaleAfter),
		provider.WithMetrics(metrics),
	)
}

// ProvideDiagramService creates the mutation facade
func ProvideDiagramService(
	diagram *aggregates.Diagram,
	hist *history.History,
	cache *provider.Cache,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.DiagramService {
	return services.NewDiagramService(diagram, hist, cache, cfg.Domain(), metrics, logger)
}

// ProvideLayoutWorker creates the layout worker; the caller starts its Run
// loop
func ProvideLayoutWorker(cfg *config.Config, logger *zap.Logger) *layout.Worker {
	return layout.NewWorker(cfg.LayoutQueueSize, logger)
}

// ProvideLayoutCoordinator creates the coordinator bound to the worker and
// the diagram service
func ProvideLayoutCoordinator(
	service *services.DiagramService,
	worker *layout.Worker,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *layout.Coordinator {
	return layout.NewCoordinator(service, worker.Requests(), worker.Responses(), cfg.LayoutTimeout, metrics, logger)
}

// ProvideEventPublisher creates the EventBridge forwarder and attaches it to
// the diagram bus when events are enabled
func ProvideEventPublisher(client *awseventbridge.Client, bus *events.Bus, cfg *config.Config, logger *zap.Logger) *eventbridge.Publisher {
	if !cfg.EnableEvents {
		return eventbridge.NewPublisher(nil, cfg.EventBusName, logger)
	}
	publisher := eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	publisher.Attach(bus)
	return publisher
}

// ProvideHub creates the SSE fan-out hub attached to the diagram bus
func ProvideHub(bus *events.Bus, logger *zap.Logger) *sse.Hub {
	return sse.NewHub(bus, logger)
}
