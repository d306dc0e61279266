package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/AhmeWagih/resume-analyzer/internal/bootstrap"
	"github.com/AhmeWagih/resume-analyzer/internal/queue"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/config"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
	"github.com/AhmeWagih/resume-analyzer/internal/sweeper"
)

var (
	initOnce sync.Once
	initErr  error
	sweep    *sweeper.Sweeper
)

func initApp() {
	cfg := config.Load()
	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	sweep = sweeper.New(app.Artifacts, cfg.SweeperMaxReceives)
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return handleBatch(ctx, sweep, event), nil
}

type orphanHandler interface {
	Handle(ctx context.Context, msg queue.Message, receiveCount int) (sweeper.Result, error)
}

// handleBatch reports only Retry results as batch item failures; SQS then
// redelivers those and deletes the rest.
func handleBatch(ctx context.Context, h orphanHandler, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		decoded, meta, err := sweeper.ParseMessage(record.Body)
		if err != nil {
			telemetry.Error("lambda.orphan.invalid_message", map[string]any{
				"message_id":  record.MessageId,
				"body_len":    meta.BodyLen,
				"body_sha256": meta.BodySHA,
				"error":       err.Error(),
			})
			continue
		}
		result, err := h.Handle(ctx, decoded, receiveCount(record))
		if result == sweeper.Retry {
			fields := map[string]any{"message_id": record.MessageId, "path": decoded.Path}
			if err != nil {
				fields["error"] = err.Error()
			}
			telemetry.Warn("lambda.orphan.retry_later", fields)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func receiveCount(record events.SQSMessage) int {
	n, err := strconv.Atoi(record.Attributes["ApproximateReceiveCount"])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func main() {
	lambda.Start(handler)
}
