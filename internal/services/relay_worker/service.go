// Package relay_worker provides an SQS consumer that runs relay invocations
// against the ledger and fans committed answers out to readers.
//
// Each message names a variant, a source account and a destination account.
// The worker optionally refreshes the source from its origin cluster, runs
// the relay inside one ledger invocation and, once the answer is committed,
// caches its view, publishes an AnswerUpdatedEvent and archives the raw
// buffer. Relay rejections are permanent and their messages are deleted;
// every other failure leaves the message on the queue for redelivery.
package relay_worker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/ports/inbound"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
	"github.com/archon-research/answer-relay/internal/services/relay"
)

// errMalformedRequest is returned for message bodies that can never be relayed.
var errMalformedRequest = errors.New("malformed relay request")

// errUnrenderable is returned when a committed answer cannot be encoded for
// consumers. Redelivery would commit the same bytes and fail the same way.
var errUnrenderable = errors.New("unrenderable answer")

// Compile-time check that Service implements inbound.HealthChecker.
var _ inbound.HealthChecker = (*Service)(nil)

// Config holds configuration for the relay worker.
type Config struct {
	MaxMessages  int
	PollInterval time.Duration

	// HealthTimeout is how long the worker stays healthy without a
	// successful poll.
	HealthTimeout time.Duration

	Logger *slog.Logger
}

func configDefaults() Config {
	return Config{
		MaxMessages:   10,
		PollInterval:  100 * time.Millisecond,
		HealthTimeout: 2 * time.Minute,
		Logger:        slog.Default(),
	}
}

// Options are the worker's optional collaborators. Nil fields are skipped.
type Options struct {
	// Source refreshes source accounts for requests that ask for it.
	Source outbound.OracleSource
	// Cache receives the view of every committed answer.
	Cache outbound.AnswerCache
	// Events receives an AnswerUpdatedEvent for every committed answer.
	Events outbound.EventSink
	// Archive receives the raw buffer of every committed answer.
	Archive outbound.AnswerArchive
	// Metrics records the outcome of every request.
	Metrics outbound.RelayMetrics
}

// relayRequest is the SQS message payload.
type relayRequest struct {
	Variant       string `json:"variant"`
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	RefreshSource bool   `json:"refreshSource,omitempty"`
}

// parsedRequest is a validated relayRequest.
type parsedRequest struct {
	variant     entity.AnswerVariant
	source      solana.PublicKey
	destination solana.PublicKey
	refresh     bool
}

// Service processes relay requests from SQS.
type Service struct {
	config   Config
	consumer outbound.SQSConsumer
	ledger   outbound.Ledger
	engine   *relay.Engine
	opts     Options
	tracer   trace.Tracer

	ready    atomic.Bool
	lastPoll atomic.Int64
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

// NewService creates a new relay worker service.
func NewService(
	config Config,
	consumer outbound.SQSConsumer,
	ledger outbound.Ledger,
	engine *relay.Engine,
	opts Options,
) (*Service, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer cannot be nil")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}

	defaults := configDefaults()
	if config.MaxMessages == 0 {
		config.MaxMessages = defaults.MaxMessages
	}
	if config.PollInterval == 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.HealthTimeout == 0 {
		config.HealthTimeout = defaults.HealthTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Service{
		config:   config,
		consumer: consumer,
		ledger:   ledger,
		engine:   engine,
		opts:     opts,
		tracer:   otel.Tracer("relay-worker"),
		now:      time.Now,
		logger:   config.Logger.With("component", "relay-worker"),
	}, nil
}

// Start begins processing SQS messages in the background.
func (s *Service) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.processLoop()

	s.logger.Info("relay worker started",
		"maxMessages", s.config.MaxMessages,
		"pollInterval", s.config.PollInterval)
	return nil
}

// Stop stops the service and waits for the in-flight batch to finish.
func (s *Service) Stop() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.logger.Info("relay worker stopped")
	return nil
}

// IsReady reports whether the worker has polled its queue at least once.
func (s *Service) IsReady() bool {
	return s.ready.Load()
}

// IsHealthy reports whether the last successful poll is recent.
func (s *Service) IsHealthy() bool {
	last := s.lastPoll.Load()
	if last == 0 {
		return true
	}
	return s.now().Sub(time.Unix(0, last)) <= s.config.HealthTimeout
}

func (s *Service) processLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.processMessages(s.ctx); err != nil && s.ctx.Err() == nil {
				s.logger.Error("error processing messages", "error", err)
			}
		}
	}
}

func (s *Service) processMessages(ctx context.Context) error {
	messages, err := s.consumer.ReceiveMessages(ctx, s.config.MaxMessages)
	if err != nil {
		return fmt.Errorf("receiving messages: %w", err)
	}
	s.lastPoll.Store(s.now().UnixNano())
	s.ready.Store(true)

	if len(messages) == 0 {
		return nil
	}

	s.logger.Debug("received messages", "count", len(messages))

	var errs []error
	for _, msg := range messages {
		if err := s.processMessage(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("message %s: %w", msg.MessageID, err))
			continue
		}

		if deleteErr := s.consumer.DeleteMessage(ctx, msg.ReceiptHandle); deleteErr != nil {
			s.logger.Error("failed to delete message", "messageId", msg.MessageID, "error", deleteErr)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// processMessage handles one request. A nil return means the message is
// finished with, either committed or permanently rejected.
func (s *Service) processMessage(ctx context.Context, msg outbound.SQSMessage) error {
	start := s.now()

	req, err := parseRequest(msg.Body)
	if err != nil {
		s.logger.Warn("rejecting relay request", "messageId", msg.MessageID, "error", err)
		s.record(ctx, "unknown", outbound.OutcomeRejected, start)
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "relay.Process", trace.WithAttributes(
		attribute.String("relay.variant", req.variant.String()),
		attribute.String("relay.source", req.source.String()),
		attribute.String("relay.destination", req.destination.String()),
	))
	defer span.End()

	err = s.relay(ctx, req)
	switch {
	case err == nil:
		s.record(ctx, req.variant.String(), outbound.OutcomeCommitted, start)
		return nil
	case relay.IsPermanent(err), errors.Is(err, errUnrenderable):
		span.SetStatus(codes.Error, "rejected")
		span.RecordError(err)
		s.logger.Warn("relay rejected",
			"messageId", msg.MessageID,
			"variant", req.variant.String(),
			"destination", req.destination.String(),
			"error", err)
		s.record(ctx, req.variant.String(), outbound.OutcomeRejected, start)
		return nil
	default:
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		s.logger.Error("relay failed, leaving message for redelivery",
			"messageId", msg.MessageID,
			"receiveCount", msg.ReceiveCount,
			"variant", req.variant.String(),
			"destination", req.destination.String(),
			"error", err)
		s.record(ctx, req.variant.String(), outbound.OutcomeError, start)
		return err
	}
}

func (s *Service) relay(ctx context.Context, req parsedRequest) error {
	var slot uint64
	if req.refresh && s.opts.Source != nil {
		fetched, err := s.opts.Source.FetchAccount(ctx, req.source)
		if err != nil {
			return fmt.Errorf("refreshing source: %w", err)
		}
		if err := s.ledger.PutAccount(ctx, fetched.Account); err != nil {
			return fmt.Errorf("storing refreshed source: %w", err)
		}
		slot = fetched.Slot
	}

	var (
		answer    entity.Answer
		committed []byte
	)
	err := s.ledger.Invoke(ctx, []solana.PublicKey{req.source, req.destination}, func(accounts []*entity.Account) error {
		a, err := s.engine.Relay(req.variant, accounts)
		if err != nil {
			return err
		}
		answer = a
		committed = bytes.Clone(accounts[1].Data)
		return nil
	})
	if err != nil {
		return err
	}
	committedAt := s.now().UTC()

	s.logger.Info("answer relayed",
		"variant", req.variant.String(),
		"source", req.source.String(),
		"destination", req.destination.String(),
		"slot", slot)

	return s.fanOut(ctx, req, answer, committed, slot, committedAt)
}

// fanOut runs the post-commit side effects. The cache is best effort; event
// and archive failures are returned so the request is redelivered, which is
// safe because a repeated relay commits identical bytes.
func (s *Service) fanOut(ctx context.Context, req parsedRequest, answer entity.Answer, data []byte, slot uint64, committedAt time.Time) error {
	view, err := entity.NewAnswerView(req.destination.String(), answer)
	if err != nil {
		return fmt.Errorf("%w: %w", errUnrenderable, err)
	}
	if _, err := json.Marshal(view); err != nil {
		return fmt.Errorf("%w: %w", errUnrenderable, err)
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetAnswer(ctx, view); err != nil {
			s.logger.Warn("failed to cache answer", "destination", view.Destination, "error", err)
		}
	}

	var errs []error
	if s.opts.Events != nil {
		event := outbound.AnswerUpdatedEvent{
			Variant:     req.variant.String(),
			Source:      req.source.String(),
			Destination: req.destination.String(),
			Slot:        slot,
			CommittedAt: committedAt,
			Answer:      view,
		}
		if err := s.opts.Events.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("publishing answer event: %w", err))
		}
	}
	if s.opts.Archive != nil {
		if err := s.opts.Archive.Put(ctx, ArchiveKey(req.variant, req.destination, data), data); err != nil {
			errs = append(errs, fmt.Errorf("archiving answer: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) record(ctx context.Context, variant, outcome string, start time.Time) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordInvocation(ctx, variant, outcome, s.now().Sub(start))
	}
}

// ArchiveKey is the content-addressed object key of a committed buffer.
func ArchiveKey(variant entity.AnswerVariant, destination solana.PublicKey, data []byte) string {
	return fmt.Sprintf("%s/%s/%x.bin", variant, destination, sha256.Sum256(data))
}

func parseRequest(body string) (parsedRequest, error) {
	var raw relayRequest
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return parsedRequest{}, fmt.Errorf("%w: %v", errMalformedRequest, err)
	}

	variant, err := entity.ParseAnswerVariant(raw.Variant)
	if err != nil {
		return parsedRequest{}, fmt.Errorf("%w: %w", errMalformedRequest, err)
	}
	source, err := solana.PublicKeyFromBase58(raw.Source)
	if err != nil {
		return parsedRequest{}, fmt.Errorf("%w: source %q: %v", errMalformedRequest, raw.Source, err)
	}
	destination, err := solana.PublicKeyFromBase58(raw.Destination)
	if err != nil {
		return parsedRequest{}, fmt.Errorf("%w: destination %q: %v", errMalformedRequest, raw.Destination, err)
	}

	return parsedRequest{
		variant:     variant,
		source:      source,
		destination: destination,
		refresh:     raw.RefreshSource,
	}, nil
}
