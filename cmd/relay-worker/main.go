// Package main runs the relay worker: an SQS consumer that relays oracle
// records into answer accounts and serves health probes and answer lookups
// over HTTP.
//
// Without DATABASE_URL the ledger is in-memory and without REDIS_ADDR the
// answer cache is in-memory. SNS events, the S3 archive and the Solana
// source refresh are enabled by their respective settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gagliardetto/solana-go"

	httpadapter "github.com/archon-research/answer-relay/internal/adapters/inbound/http"
	"github.com/archon-research/answer-relay/internal/adapters/outbound/memory"
	"github.com/archon-research/answer-relay/internal/adapters/outbound/postgres"
	redisadapter "github.com/archon-research/answer-relay/internal/adapters/outbound/redis"
	s3adapter "github.com/archon-research/answer-relay/internal/adapters/outbound/s3"
	snsadapter "github.com/archon-research/answer-relay/internal/adapters/outbound/sns"
	solanaadapter "github.com/archon-research/answer-relay/internal/adapters/outbound/solana"
	sqsadapter "github.com/archon-research/answer-relay/internal/adapters/outbound/sqs"
	"github.com/archon-research/answer-relay/internal/adapters/outbound/telemetry"
	"github.com/archon-research/answer-relay/internal/pkg/env"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
	"github.com/archon-research/answer-relay/internal/services/answers"
	"github.com/archon-research/answer-relay/internal/services/relay"
	"github.com/archon-research/answer-relay/internal/services/relay_worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type cliConfig struct {
	queueURL      string
	dbURL         string
	redisAddr     string
	redisPassword string
	topicARN      string
	archiveBucket string
	rpcURL        string
	rpcRPS        float64
	oracleProgram solana.PublicKey
	relayProgram  solana.PublicKey
	healthAddr    string
	otlpEndpoint  string
}

func parseConfig(args []string) (cliConfig, error) {
	fs := flag.NewFlagSet("relay-worker", flag.ContinueOnError)
	queueURL := fs.String("queue", "", "SQS Queue URL")
	dbURL := fs.String("db", "", "PostgreSQL connection URL")
	redisAddr := fs.String("redis", "", "Redis address for the answer cache")
	topicARN := fs.String("topic", "", "SNS topic ARN for answer events")
	bucket := fs.String("bucket", "", "S3 bucket for archived answers")
	rpcURL := fs.String("rpc", "", "Solana RPC URL for source refresh")
	oracleProgram := fs.String("oracle-program", "", "Program that must own source accounts")
	relayProgram := fs.String("relay-program", "", "Program that must own answer accounts")
	healthAddr := fs.String("health-addr", "", "Listen address for health and answer endpoints")
	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	cfg := cliConfig{
		queueURL:      firstNonEmpty(*queueURL, env.Get("AWS_SQS_QUEUE_URL", "")),
		dbURL:         firstNonEmpty(*dbURL, env.Get("DATABASE_URL", "")),
		redisAddr:     firstNonEmpty(*redisAddr, env.Get("REDIS_ADDR", "")),
		redisPassword: env.Get("REDIS_PASSWORD", ""),
		topicARN:      firstNonEmpty(*topicARN, env.Get("AWS_SNS_TOPIC_ARN", "")),
		archiveBucket: firstNonEmpty(*bucket, env.Get("ANSWER_ARCHIVE_BUCKET", "")),
		rpcURL:        firstNonEmpty(*rpcURL, env.Get("SOLANA_RPC_URL", "")),
		healthAddr:    firstNonEmpty(*healthAddr, env.Get("HEALTH_ADDR", ":8080")),
		otlpEndpoint:  env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.queueURL == "" {
		return cliConfig{}, fmt.Errorf("queue URL not provided (use -queue flag or AWS_SQS_QUEUE_URL env var)")
	}

	rps, err := env.GetFloat("SOLANA_RPC_RPS", 10)
	if err != nil {
		return cliConfig{}, err
	}
	cfg.rpcRPS = rps

	if cfg.oracleProgram, err = parseProgram("oracle program", firstNonEmpty(*oracleProgram, env.Get("ORACLE_PROGRAM_ID", ""))); err != nil {
		return cliConfig{}, err
	}
	if cfg.relayProgram, err = parseProgram("relay program", firstNonEmpty(*relayProgram, env.Get("RELAY_PROGRAM_ID", ""))); err != nil {
		return cliConfig{}, err
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseProgram(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return key, nil
}

func endpointOption[T any](envKey string, set func(*T, string)) []func(*T) {
	endpoint := env.Get(envKey, "")
	if endpoint == "" {
		return nil
	}
	return []func(*T){func(o *T) { set(o, endpoint) }}
}

// awsEndpointKeys are the per-service endpoint overrides used for LocalStack.
var awsEndpointKeys = []string{"AWS_SQS_ENDPOINT", "AWS_SNS_ENDPOINT", "AWS_S3_ENDPOINT"}

// awsLoadOptions uses static test credentials when a local endpoint is
// configured and no access key is set.
func awsLoadOptions() []func(*awsconfig.LoadOptions) error {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(env.Get("AWS_REGION", "eu-west-1")),
	}
	if env.Get("AWS_ACCESS_KEY_ID", "") != "" {
		return opts
	}
	for _, key := range awsEndpointKeys {
		if env.Get(key, "") != "" {
			return append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("test", "test", "")))
		}
	}
	return opts
}

func run(ctx context.Context, args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay worker", "queue", cfg.queueURL)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:  "relay-worker",
		Environment:  env.Get("ENVIRONMENT", "development"),
		OTLPEndpoint: cfg.otlpEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:  "relay-worker",
		Environment:  env.Get("ENVIRONMENT", "development"),
		OTLPEndpoint: cfg.otlpEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer shutdownMetrics(context.Background())

	metrics, err := telemetry.NewMetrics("relay-worker")
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsLoadOptions()...)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	consumer, err := sqsadapter.NewConsumer(awsCfg, sqsadapter.Config{
		QueueURL: cfg.queueURL,
	}, logger, endpointOption("AWS_SQS_ENDPOINT", func(o *sqs.Options, e string) {
		o.BaseEndpoint = aws.String(e)
	})...)
	if err != nil {
		return fmt.Errorf("creating SQS consumer: %w", err)
	}
	defer consumer.Close()

	var ledger outbound.Ledger
	if cfg.dbURL != "" {
		pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(cfg.dbURL))
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		logger.Info("PostgreSQL connected")

		if ledger, err = postgres.NewLedger(pool, logger); err != nil {
			return fmt.Errorf("creating ledger: %w", err)
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory ledger")
		ledger = memory.NewLedger()
	}
	defer ledger.Close()

	var cache outbound.AnswerCache
	if cfg.redisAddr != "" {
		redisCfg := redisadapter.ConfigDefaults()
		redisCfg.Addr = cfg.redisAddr
		redisCfg.Password = cfg.redisPassword
		rc, err := redisadapter.NewAnswerCache(redisCfg, logger)
		if err != nil {
			return fmt.Errorf("creating answer cache: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("Redis connected", "addr", cfg.redisAddr)
		cache = rc
	} else {
		cache = memory.NewAnswerCache()
	}
	defer cache.Close()

	opts := relay_worker.Options{
		Cache:   cache,
		Metrics: metrics,
	}

	if cfg.topicARN != "" {
		client := sns.NewFromConfig(awsCfg, endpointOption("AWS_SNS_ENDPOINT", func(o *sns.Options, e string) {
			o.BaseEndpoint = aws.String(e)
		})...)
		snsCfg := snsadapter.ConfigDefaults()
		snsCfg.TopicARN = cfg.topicARN
		snsCfg.Logger = logger
		sink, err := snsadapter.NewEventSink(client, snsCfg)
		if err != nil {
			return fmt.Errorf("creating event sink: %w", err)
		}
		defer sink.Close()
		opts.Events = sink
	}

	if cfg.archiveBucket != "" {
		archive, err := s3adapter.NewArchive(awsCfg, s3adapter.Config{Bucket: cfg.archiveBucket}, logger,
			endpointOption("AWS_S3_ENDPOINT", func(o *s3.Options, e string) {
				o.BaseEndpoint = aws.String(e)
				o.UsePathStyle = true
			})...)
		if err != nil {
			return fmt.Errorf("creating answer archive: %w", err)
		}
		opts.Archive = archive
	}

	if cfg.rpcURL != "" {
		solanaCfg := solanaadapter.ClientConfigDefaults()
		solanaCfg.Endpoint = cfg.rpcURL
		solanaCfg.RequestsPerSecond = cfg.rpcRPS
		solanaCfg.Logger = logger
		source, err := solanaadapter.NewClient(solanaCfg)
		if err != nil {
			return fmt.Errorf("creating solana client: %w", err)
		}
		opts.Source = source
	}

	engine := relay.NewEngine(relay.Config{
		OracleProgram: cfg.oracleProgram,
		RelayProgram:  cfg.relayProgram,
		Logger:        logger,
	})

	service, err := relay_worker.NewService(relay_worker.Config{Logger: logger}, consumer, ledger, engine, opts)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	reader, err := answers.NewService(ledger, cache, logger)
	if err != nil {
		return fmt.Errorf("creating answer reader: %w", err)
	}

	var shuttingDown atomic.Bool
	healthServer := httpadapter.NewHealthServer(httpadapter.HealthServerConfig{
		Addr:   cfg.healthAddr,
		Logger: logger,
		Routes: []httpadapter.RouteRegistrar{httpadapter.NewHandler(reader, logger)},
	}, service, &shuttingDown)
	healthServer.Start()

	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}

	logger.Info("service started, waiting for messages...")

	<-ctx.Done()
	logger.Info("shutting down...")
	shuttingDown.Store(true)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		if err := service.Stop(); err != nil {
			logger.Error("error stopping service", "error", err)
		}
		if err := healthServer.Shutdown(5 * time.Second); err != nil {
			logger.Error("error stopping health server", "error", err)
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info("shutdown complete")
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timed out")
	}

	return nil
}
