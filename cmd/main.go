package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/clsasailing/weekly-blast/internal/config"
	"github.com/clsasailing/weekly-blast/internal/domain"
	"github.com/clsasailing/weekly-blast/internal/gateway"
	"github.com/clsasailing/weekly-blast/internal/usecase"
)

// LambdaEvent is the scheduler payload; the weekly EventBridge rule carries
// nothing the blast needs.
type LambdaEvent struct{}

// LambdaResponse reports the outcome of one blast run.
type LambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// handler runs one weekly blast end to end: load config, authenticate against
// Wild Apricot, compute the coming week's window once, and hand it to the use
// case.
func handler(ctx context.Context, _ LambdaEvent) (LambdaResponse, error) {
	cfg, err := config.Load()
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "configuration error"}, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "configuration error"},
			fmt.Errorf("%w: loading timezone %q: %v", domain.ErrConfiguration, cfg.Timezone, err)
	}

	client, err := gateway.NewClient(ctx, cfg)
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "wild apricot auth error"}, err
	}

	uc := usecase.NewSendWeeklyBlastUseCase(
		gateway.NewWildApricotEventRepository(client, loc),
		gateway.NewWildApricotContactRepository(client, cfg.BlastGroupID),
		gateway.NewWildApricotMailer(client),
		usecase.BlastOptions{
			Environment:    cfg.Environment,
			Subject:        cfg.Subject,
			ReplyToName:    cfg.ReplyToName,
			ReplyToAddress: cfg.ReplyToAddress,
			Location:       loc,
		},
	)

	// One window per run, shared by the event query and the overlap filters.
	window := domain.ComputeWeekWindow(time.Now().In(loc))

	skipped, err := uc.Execute(ctx, window)
	if err != nil {
		return LambdaResponse{StatusCode: 500, Message: "weekly blast failed"}, err
	}
	if skipped {
		return LambdaResponse{StatusCode: 200, Message: "no events this week, blast skipped"}, nil
	}
	return LambdaResponse{StatusCode: 200, Message: "weekly blast processed"}, nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handler)
		return
	}

	// Local one-shot run for development.
	if _, err := handler(context.Background(), LambdaEvent{}); err != nil {
		log.Fatalf("weekly blast failed: %v", err)
	}
}
