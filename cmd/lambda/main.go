package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ontoview/infrastructure/config"
	"ontoview/infrastructure/di"
	"ontoview/interfaces/http/rest"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()
	log.Println("Lambda cold start initiated")

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// The worker lives as long as the execution environment
	go container.LayoutWorker.Run(ctx)

	router := rest.NewRouter(
		container.Service,
		container.Coordinator,
		container.Hub,
		container.Metrics,
		cfg,
		container.Logger,
	)
	handler, err := router.Setup()
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	log.Printf("Lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler proxies one API Gateway request through the router
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	response, err := chiLambda.ProxyWithContextV2(ctx, req)

	if response.Headers == nil {
		response.Headers = make(map[string]string)
	}
	if coldStart {
		response.Headers["X-Cold-Start"] = "true"
		response.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	} else {
		response.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		response.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if response.StatusCode >= 500 {
		container.Logger.Error("lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
		)
	}

	return response, err
}

func main() {
	lambda.Start(Handler)
}
