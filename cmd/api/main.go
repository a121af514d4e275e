package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/canteenhq/customer-insights/internal/aws"
	"github.com/canteenhq/customer-insights/internal/handlers"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterInsightsRoutes(r, cfg)

	return r
}

func main() {
	cfg := handlers.HandlerConfig{
		MetricNamespace: os.Getenv("METRICS_NAMESPACE"),
	}

	// The engines are pure; AWS is only needed for metric emission, so a
	// failed client init degrades to no emission instead of refusing to start.
	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Printf("aws clients unavailable, metric emission disabled: %v", err)
	} else {
		cfg.CloudWatchClient = clients.CloudWatch
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
