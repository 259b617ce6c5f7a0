// Package engine assembles the synchronization engine from configuration:
// storage backend, event transport, billing and the reconciliation schedule.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bookingshandler "roomsync/internal/bookings/handler"
	bookingsrepo "roomsync/internal/bookings/repository"
	bookingsservice "roomsync/internal/bookings/service"
	bookingsvalidator "roomsync/internal/bookings/validator"
	"roomsync/internal/events"
	"roomsync/internal/folio"
	"roomsync/internal/housekeeping/consumer"
	housekeepinghandler "roomsync/internal/housekeeping/handler"
	housekeepingrepo "roomsync/internal/housekeeping/repository"
	housekeepingservice "roomsync/internal/housekeeping/service"
	housekeepingvalidator "roomsync/internal/housekeeping/validator"
	"roomsync/internal/occupancy"
	"roomsync/internal/reconcile"
	roomshandler "roomsync/internal/rooms/handler"
	roomsrepo "roomsync/internal/rooms/repository"
	roomsservice "roomsync/internal/rooms/service"
	roomsvalidator "roomsync/internal/rooms/validator"
	"roomsync/pkg/client"
	"roomsync/pkg/clock"
	"roomsync/pkg/config"
	"roomsync/pkg/kafka"
	kafka_config "roomsync/pkg/kafka/config"
	kafkamiddleware "roomsync/pkg/kafka/middleware"
	"roomsync/pkg/lock"
	"roomsync/pkg/sequence"

	"github.com/julienschmidt/httprouter"
)

// Options override what New would otherwise build from the configuration.
// Tests use them to inject a fake clock and an event recorder.
type Options struct {
	Clock     clock.Clock
	Publisher events.Publisher
	Billing   folio.Billing
	Sequence  sequence.Generator
}

type Engine struct {
	cfg *config.Config

	Rooms    roomsrepo.RoomRepository
	Bookings bookingsrepo.BookingRepository
	Tasks    housekeepingrepo.TaskRepository

	RoomService         roomsservice.RoomService
	BookingService      bookingsservice.BookingService
	HousekeepingService housekeepingservice.HousekeepingService
	Syncer              *occupancy.Syncer
	Sweeper             *reconcile.Sweeper

	publisher events.Publisher
	producer  *kafka.Producer
	consumer  *kafka.Consumer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires the engine. With the mongo backend cfg.Client.Mongo must already
// be connected.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	e := &Engine{cfg: cfg}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	seq := opts.Sequence
	if cfg.UsesMongo() {
		if cfg.Client == nil || cfg.Client.Mongo == nil {
			return nil, errors.New("mongo backend selected but no client is connected")
		}
		e.Rooms = roomsrepo.NewMongoRoomRepository(cfg)
		e.Bookings = bookingsrepo.NewMongoBookingRepository(cfg)
		e.Tasks = housekeepingrepo.NewMongoTaskRepository(cfg)
		if seq == nil {
			seq = sequence.NewMongo(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.WriteTimeout)
		}
	} else {
		e.Rooms = roomsrepo.NewMemoryRoomRepository()
		e.Bookings = bookingsrepo.NewMemoryBookingRepository()
		e.Tasks = housekeepingrepo.NewMemoryTaskRepository()
		if seq == nil {
			seq = sequence.NewMemory()
		}
	}

	e.publisher = opts.Publisher
	if e.publisher == nil {
		publisher, err := e.newPublisher()
		if err != nil {
			return nil, err
		}
		e.publisher = publisher
	}

	billing := opts.Billing
	if billing == nil {
		if cfg.BillingServiceURL != "" {
			billing = folio.NewRemoteBilling(client.NewHttpClient(cfg.BillingServiceURL, cfg.BillingTimeout,
				client.WithRetries(cfg.BillingMaxRetries, config.BillingRetryBackoff),
			))
			cfg.Log.Info("Invoices go to the billing service", "url", cfg.BillingServiceURL)
		} else {
			billing = folio.NewLocalBilling(seq, cfg.InvoiceSequencePrefix())
		}
	}
	taxes := folio.TaxPolicy{DefaultPercent: cfg.DefaultTaxPercent, Overrides: cfg.RoomTypeTaxOverrides}

	locks := lock.NewKeyedMutex()
	e.Syncer = occupancy.NewSyncer(e.Rooms, e.Bookings, locks, clk, cfg.Location(), e.publisher, cfg.Log.Named("occupancy"))
	e.HousekeepingService = housekeepingservice.NewHousekeepingService(
		e.Tasks, e.Rooms, e.Bookings,
		housekeepingvalidator.NewTaskValidator(cfg.Log),
		locks, clk, e.publisher, cfg,
	)
	e.RoomService = roomsservice.NewRoomService(
		e.Rooms, e.Bookings, e.Tasks, e.Syncer,
		roomsvalidator.NewRoomValidator(cfg.Log),
		locks, clk, e.publisher, cfg,
	)
	e.BookingService = bookingsservice.NewBookingService(
		e.Bookings, e.Rooms, e.HousekeepingService, e.Syncer,
		folio.NewDeriver(billing, taxes, cfg.Log), seq,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		locks, clk, e.publisher, cfg,
	)
	e.Sweeper = reconcile.NewSweeper(
		e.Rooms, e.Bookings, e.Tasks, e.HousekeepingService, e.Syncer,
		locks, clk, e.publisher, cfg.Log.Named("reconcile"),
		reconcile.Options{Interval: cfg.SweepInterval, OnStart: cfg.SweepOnStart},
	)

	if cfg.KafkaEnabled && opts.Publisher == nil {
		if err := e.newConsumer(); err != nil {
			e.closeProducer()
			return nil, err
		}
	}

	cfg.Log.Info("Engine initialized",
		"store_backend", cfg.StoreBackend,
		"kafka_enabled", cfg.KafkaEnabled,
		"billing_remote", cfg.BillingServiceURL != "",
	)
	return e, nil
}

func (e *Engine) newPublisher() (events.Publisher, error) {
	if !e.cfg.KafkaEnabled {
		return events.Nop(), nil
	}

	kcfg, err := kafka_config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid kafka configuration: %w", err)
	}
	kcfg.LogConfiguration(e.cfg.Log)

	log := e.cfg.Log.Named("events")
	producer, err := kafka.NewProducer(kcfg, log, e.cfg.KafkaEventsTopic, e.cfg.KafkaDLQTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	if kcfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware())
	}
	e.producer = producer
	return events.NewKafkaPublisher(producer, log), nil
}

func (e *Engine) newConsumer() error {
	kcfg, err := kafka_config.Load()
	if err != nil {
		return fmt.Errorf("invalid kafka configuration: %w", err)
	}

	log := e.cfg.Log.Named("housekeeping_consumer")
	commands := consumer.NewCommandHandler(e.HousekeepingService, log)
	c, err := kafka.NewConsumer(kcfg, log, e.cfg.KafkaHousekeepingTopic, e.cfg.KafkaConsumerGroup, e.cfg.KafkaDLQTopic, commands.Handle)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if kcfg.EnableMiddleware {
		c.Use(kafkamiddleware.LoggingConsumerMiddleware(log))
		c.Use(kafkamiddleware.MetricsConsumerMiddleware())
	}
	e.consumer = c
	return nil
}

// Start launches the background work: the reconciliation schedule and, when
// Kafka is enabled, the housekeeping command consumer.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.Sweeper.Start(ctx)

	if e.consumer != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.cfg.Log.Error("Housekeeping command consumer stopped", "error", err)
			}
		}()
	}
}

// Stop halts background work and releases the Kafka clients.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.Sweeper.Stop()
	e.wg.Wait()

	if e.consumer != nil {
		if err := e.consumer.Close(); err != nil {
			e.cfg.Log.Error("Failed to close kafka consumer", "error", err)
		}
	}
	e.closeProducer()
	e.cfg.Log.Info("Engine stopped")
}

func (e *Engine) closeProducer() {
	if e.producer == nil {
		return
	}
	if err := e.producer.Close(); err != nil {
		e.cfg.Log.Error("Failed to close kafka producer", "error", err)
	}
	e.producer = nil
}

// RegisterRoutes mounts every API handler on router.
func (e *Engine) RegisterRoutes(router *httprouter.Router) {
	roomshandler.NewRoomHandler(e.RoomService, e.cfg.Log).RegisterRoutes(router)
	bookingshandler.NewBookingHandler(e.BookingService, e.cfg.Log).RegisterRoutes(router)
	housekeepinghandler.NewTaskHandler(e.HousekeepingService, e.cfg.Log).RegisterRoutes(router)
	reconcile.NewSweepHandler(e.Sweeper, e.cfg.Log).RegisterRoutes(router)
}
