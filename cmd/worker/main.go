package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"ledgerly-backend/internal/bootstrap"
	"ledgerly-backend/internal/shared/config"
	"ledgerly-backend/internal/shared/metrics"
	"ledgerly-backend/internal/shared/telemetry"
	"ledgerly-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds  = 1200
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if strings.TrimSpace(cfg.AWSRegion) != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	sem := make(chan struct{}, max(1, cfg.WorkerMaxConc))
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, cfg.WorkerMaxConc, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     int32(cfg.SQSWaitSeconds),
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncIngestJobReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, queueURL, app.Pipeline, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage runs one queue message through the extraction pipeline.
// Successful and hopeless messages get deleted; anything else stays on the
// queue for redelivery after the visibility timeout.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, proc workerproc.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, parseErr := workerproc.ParseMessage(body)
	if parseErr != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = parseErr.Error()
		telemetry.Error("worker.ingest.parse_failed", fields)
		if deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID) {
			metrics.IncIngestJobDeletedUnrecoverable()
		}
		return
	}

	telemetry.Info("worker.ingest.received", baseFields(msg, decoded.DocumentID, decoded.RequestID))

	ctxWithParsed := workerproc.WithParsedMessage(ctx, decoded)
	if err := workerproc.HandleMessage(ctxWithParsed, proc, body); err != nil {
		fields := baseFields(msg, decoded.DocumentID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.ingest.failed", fields)
		if workerproc.Unrecoverable(err) {
			if deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID) {
				metrics.IncIngestJobDeletedUnrecoverable()
			}
			return
		}
		metrics.IncIngestJobFailed()
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.DocumentID, decoded.RequestID) {
		telemetry.Info("worker.ingest.completed", baseFields(msg, decoded.DocumentID, decoded.RequestID))
		metrics.IncIngestJobCompleted()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, documentID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.ingest.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, documentID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.ingest.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, documentID, requestID string) map[string]any {
	fields := map[string]any{
		"document_id":    documentID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
