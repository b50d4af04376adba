package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/order-service/handlers"
	"github.com/draftea/order-saga/order-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Redis
	Redis redis.UniversalClient

	// Stores
	OrderRepository     domain.OrderRepository
	InventoryRepository domain.InventoryRepository
	PaymentRepository   domain.PaymentRepository
	SagaStore           domain.SagaStore
	SagaRegistry        domain.SagaRegistry

	// Saga
	Gateway     application.Gateway
	Coordinator *application.Coordinator

	// Use Cases
	StartOrderSaga *application.StartOrderSaga
	GetOrderSaga   *application.GetOrderSaga

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers

	// Infrastructure
	EventPublisher  events.Publisher
	EventSubscriber *sharedinfra.SQSEventSubscriber

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config, logger zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			// Continue without telemetry rather than failing
			logger.Warn().Err(err).Msg("failed to initialize telemetry")
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	if err := deps.buildStores(ctx, config); err != nil {
		deps.Close()
		return nil, err
	}

	var awsCfg aws.Config
	if config.AWS.Enabled {
		var err error
		if awsCfg, err = loadAWSConfig(ctx, config); err != nil {
			deps.Close()
			return nil, err
		}
	}
	deps.buildPublisher(config, awsCfg)

	// Initialize saga
	activities := application.NewActivities(
		deps.OrderRepository,
		deps.InventoryRepository,
		deps.PaymentRepository,
		infrastructure.NewEventNotifier(deps.EventPublisher),
		newClassifier(config),
	)
	retry := config.RetryPolicy()
	deps.Gateway = application.NewRetryingGateway(activities, retry, config.Saga.ActivityTimeout)
	logger.Info().
		Int("max_attempts", retry.MaxAttempts).
		Durs("retry_delays", retry.Delays()).
		Dur("activity_timeout", config.Saga.ActivityTimeout).
		Msg("activity retry policy")
	deps.Coordinator = application.NewCoordinator(deps.Gateway,
		application.WithPacer(saga.FixedPause(config.Saga.StepDelay)),
		application.WithSagaStore(deps.SagaStore),
		application.WithPublisher(deps.EventPublisher),
	)

	// Initialize use cases
	deps.StartOrderSaga = application.NewStartOrderSaga(deps.Coordinator, deps.SagaRegistry)
	deps.GetOrderSaga = application.NewGetOrderSaga(deps.SagaStore)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.StartOrderSaga, deps.GetOrderSaga)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.StartOrderSaga)

	if config.AWS.Enabled {
		deps.EventSubscriber = sharedinfra.NewSQSEventSubscriber(
			sharedinfra.NewSQSClient(awsCfg, config.AWS.EndpointSQS),
			config.AWS.SQSQueueURL,
			deps.OrderEventHandlers,
			sharedinfra.WithWorkers(config.AWS.SQSWorkers),
		)
	}

	return deps, nil
}

func (d *Dependencies) buildStores(ctx context.Context, config *Config) error {
	switch config.Storage.Driver {
	case StoragePostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", config.GetDatabaseURL())
		if err != nil {
			return errors.Wrap(err, "failed to connect to database")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return errors.Wrap(err, "failed to ping database")
		}
		d.DB = db

		d.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
		d.InventoryRepository = infrastructure.NewPostgresInventoryRepository(db)
		d.PaymentRepository = infrastructure.NewPostgresPaymentRepository(db)
		d.SagaStore = infrastructure.NewPostgresSagaStore(db)
	default:
		d.OrderRepository = infrastructure.NewMemoryOrderRepository()
		d.InventoryRepository = infrastructure.NewMemoryInventoryRepository(config.Inventory.Seed)
		d.PaymentRepository = infrastructure.NewMemoryPaymentRepository()
		d.SagaStore = infrastructure.NewMemorySagaStore()
	}

	if !config.Redis.Enabled {
		d.SagaRegistry = infrastructure.NewMemorySagaRegistry()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return errors.Wrap(err, "failed to ping redis")
	}
	d.Redis = client
	d.SagaRegistry = infrastructure.NewRedisSagaRegistry(client, config.Redis.KeyPrefix, config.Redis.ClaimTTL)
	return nil
}

// buildPublisher fans events out to SNS and the postgres event log when they
// are configured, and keeps them in memory otherwise
func (d *Dependencies) buildPublisher(config *Config, awsCfg aws.Config) {
	var publishers sharedinfra.MultiPublisher

	if d.DB != nil {
		publishers = append(publishers, sharedinfra.NewPostgresEventLog(d.DB))
	}

	if config.AWS.Enabled {
		publishers = append(publishers, sharedinfra.NewSNSEventPublisher(
			sharedinfra.NewSNSClient(awsCfg, config.AWS.EndpointSNS),
			config.AWS.SNSTopicArn,
		))
	}

	if len(publishers) == 0 {
		d.EventPublisher = sharedinfra.NewMemoryEventPublisher()
		return
	}
	d.EventPublisher = publishers
}

func loadAWSConfig(ctx context.Context, config *Config) (aws.Config, error) {
	awsCfg, err := sharedinfra.LoadAWSConfig(ctx, sharedinfra.AWSConfig{
		Region:          config.AWS.Region,
		AccessKeyID:     config.AWS.AccessKeyID,
		SecretAccessKey: config.AWS.SecretAccessKey,
	})
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to configure AWS")
	}
	return awsCfg, nil
}

// newClassifier injects gateway faults only when a fault rate is configured
func newClassifier(config *Config) domain.FaultClassifier {
	if config.Saga.TransientErrorRate == 0 && config.Saga.TimeoutRate == 0 {
		return domain.NewLimitClassifier(config.Saga.PaymentLimit)
	}
	return domain.NewBandClassifier(config.Saga.PaymentLimit, config.Saga.TransientErrorRate, config.Saga.TimeoutRate)
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close database"))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close redis"))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
