package infrastructure

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	SQSMessageIDKey     = "sqs_message_id"
	SQSReceiptHandleKey = "sqs_receipt_handle"
)

// SQSAPI is the part of the SQS client the subscriber needs
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

type sqsMessage struct {
	Message types.Message
	Event   *events.Event
	Err     error
}

// SQSEventSubscriber reads a queue and hands every event to handler.
// Readers, workers and cleaners run as separate stages; a message is deleted
// once handled and its visibility is extended when the handler fails.
type SQSEventSubscriber struct {
	mux     sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	options *sqsSubscriberOptions

	client   SQSAPI
	queueURL string
	handler  events.EventHandler
}

type sqsSubscriberOptions struct {
	workers                        int
	readers                        int
	cleaners                       int
	bufferSize                     int
	maxNumberOfMessages            int32
	waitTimeSeconds                int32
	visibilityTimeout              int32
	sleepTimeAfterEmptyReceive     time.Duration
	sleepTimeAfterError            time.Duration
	ack                            bool
	extendVisibilityTimeoutOnError bool
	receiveCountRange              int32
	visibilityTimeoutOffset        int32
	maxVisibilityTimeout           int32
}

type SQSSubscriberOption func(*sqsSubscriberOptions)

func WithWorkers(workers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.workers = workers
	}
}

func WithReaders(readers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.readers = readers
	}
}

func WithVisibilityTimeout(timeout int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.visibilityTimeout = timeout
	}
}

// WithPolling sets the long poll wait and the pauses after an empty receive or a receive error
func WithPolling(waitTimeSeconds int32, afterEmpty, afterError time.Duration) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.waitTimeSeconds = waitTimeSeconds
		o.sleepTimeAfterEmptyReceive = afterEmpty
		o.sleepTimeAfterError = afterError
	}
}

func NewSQSEventSubscriber(
	client SQSAPI,
	queueURL string,
	handler events.EventHandler,
	opts ...SQSSubscriberOption,
) *SQSEventSubscriber {
	options := &sqsSubscriberOptions{
		workers:                        10,
		readers:                        1,
		cleaners:                       2,
		bufferSize:                     10,
		maxNumberOfMessages:            5,
		waitTimeSeconds:                15,
		visibilityTimeout:              60,
		sleepTimeAfterEmptyReceive:     time.Second,
		sleepTimeAfterError:            5 * time.Second,
		ack:                            true,
		extendVisibilityTimeoutOnError: true,
		receiveCountRange:              3,
		visibilityTimeoutOffset:        30,
		maxVisibilityTimeout:           900,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &SQSEventSubscriber{
		client:   client,
		queueURL: queueURL,
		handler:  handler,
		options:  options,
	}
}

// Start runs the subscriber in the background until Stop is called or ctx is done
func (s *SQSEventSubscriber) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.cancel != nil {
		return nil
	}
	if s.handler == nil {
		return errors.New("no handler configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("queue_url", s.queueURL).Msg("sqs subscriber stopped")
		}
	}()

	return nil
}

// Stop cancels the readers and waits for in-flight messages to be settled
func (s *SQSEventSubscriber) Stop(ctx context.Context) error {
	s.mux.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mux.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sqs subscriber did not stop in time")
	}
}

// Run blocks until ctx is done. Messages already received when ctx ends are
// still handled and settled.
func (s *SQSEventSubscriber) Run(ctx context.Context) error {
	inbound := make(chan *sqsMessage, s.options.bufferSize)
	outbound := make(chan *sqsMessage, s.options.bufferSize)
	settleCtx := context.WithoutCancel(ctx)

	var gr errgroup.Group
	var readers, workers sync.WaitGroup

	for i := 0; i < max(s.options.readers, 1); i++ {
		readers.Add(1)
		gr.Go(func() error {
			defer readers.Done()
			s.startReader(ctx, inbound)
			return nil
		})
	}
	gr.Go(func() error {
		readers.Wait()
		close(inbound)
		return nil
	})

	for i := 0; i < max(s.options.workers, 1); i++ {
		workers.Add(1)
		gr.Go(func() error {
			defer workers.Done()
			for message := range inbound {
				s.handle(settleCtx, message)
				outbound <- message
			}
			return nil
		})
	}
	gr.Go(func() error {
		workers.Wait()
		close(outbound)
		return nil
	})

	for i := 0; i < max(s.options.cleaners, 1); i++ {
		gr.Go(func() error {
			for message := range outbound {
				if err := s.clean(settleCtx, message); err != nil {
					logging.FromContext(ctx).Warn().Err(err).
						Str("message_id", aws.ToString(message.Message.MessageId)).
						Msg("failed to settle sqs message")
				}
			}
			return nil
		})
	}

	return gr.Wait()
}

func (s *SQSEventSubscriber) startReader(ctx context.Context, inbound chan<- *sqsMessage) {
	for ctx.Err() == nil {
		received, err := s.read(ctx, inbound)
		switch {
		case err != nil && ctx.Err() == nil:
			logging.FromContext(ctx).Warn().Err(err).Str("queue_url", s.queueURL).Msg("sqs receive failed")
			sleep(ctx, s.options.sleepTimeAfterError)
		case err == nil && received == 0:
			sleep(ctx, s.options.sleepTimeAfterEmptyReceive)
		}
	}
}

func (s *SQSEventSubscriber) read(ctx context.Context, inbound chan<- *sqsMessage) (int, error) {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: s.options.maxNumberOfMessages,
		WaitTimeSeconds:     s.options.waitTimeSeconds,
		VisibilityTimeout:   s.options.visibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to receive message from SQS")
	}

	for _, message := range output.Messages {
		event, err := decodeEvent([]byte(aws.ToString(message.Body)))
		if err != nil {
			// poison messages are left to the queue redrive policy
			logging.FromContext(ctx).Warn().Err(err).
				Str("message_id", aws.ToString(message.MessageId)).
				Msg("skipping malformed sqs message")
			continue
		}

		event.Metadata[SQSMessageIDKey] = aws.ToString(message.MessageId)
		if message.ReceiptHandle != nil {
			event.Metadata[SQSReceiptHandleKey] = *message.ReceiptHandle
		}
		for k, v := range message.MessageAttributes {
			if v.StringValue != nil {
				event.Metadata[k] = *v.StringValue
			}
		}
		if event.Topic == "" {
			event.Topic = events.Topic(event.Metadata["topic"])
		}

		select {
		case inbound <- &sqsMessage{Message: message, Event: event}:
		case <-ctx.Done():
			return len(output.Messages), ctx.Err()
		}
	}

	return len(output.Messages), nil
}

func (s *SQSEventSubscriber) handle(ctx context.Context, message *sqsMessage) {
	message.Err = s.handler.Handle(ctx, message.Event)
	if message.Err != nil {
		logging.FromContext(ctx).Warn().Err(message.Err).
			Str("handler", s.handler.HandlerID()).
			Str("topic", message.Event.Topic.String()).
			Msg("event handler failed")
	}
}

func (s *SQSEventSubscriber) clean(ctx context.Context, message *sqsMessage) error {
	if message.Err != nil {
		if !s.options.extendVisibilityTimeoutOnError {
			return nil
		}

		receiveCount, err := strconv.Atoi(message.Message.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
		if err != nil {
			receiveCount = 1
		}

		_, err = s.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(s.queueURL),
			ReceiptHandle:     message.Message.ReceiptHandle,
			VisibilityTimeout: s.visibilityTimeoutFor(receiveCount),
		})
		return errors.Wrap(err, "failed to extend visibility timeout")
	}

	if !s.options.ack {
		return nil
	}

	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: message.Message.ReceiptHandle,
	})
	return errors.Wrap(err, "failed to delete message from SQS")
}

// visibilityTimeoutFor grows the timeout by one offset every receiveCountRange receives
func (s *SQSEventSubscriber) visibilityTimeoutFor(receiveCount int) int32 {
	timeout := s.options.visibilityTimeout
	timeout += (int32(receiveCount) / s.options.receiveCountRange) * s.options.visibilityTimeoutOffset
	return min(timeout, s.options.maxVisibilityTimeout)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
