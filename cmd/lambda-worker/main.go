package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"ledgerly-backend/internal/bootstrap"
	"ledgerly-backend/internal/shared/config"
	"ledgerly-backend/internal/shared/metrics"
	"ledgerly-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

// handler processes an SQS batch. Unrecoverable messages are acknowledged by
// omission so SQS never redelivers them; everything else that fails is
// reported back for retry.
func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncIngestJobReceived()
		if err := workerproc.HandleMessage(ctx, app.Pipeline, record.Body); err != nil {
			if workerproc.Unrecoverable(err) {
				log.Printf("dropping unrecoverable message %s: %v", record.MessageId, err)
				metrics.IncIngestJobDeletedUnrecoverable()
				continue
			}
			metrics.IncIngestJobFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}
		metrics.IncIngestJobCompleted()
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}
