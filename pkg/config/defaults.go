package config

import "time"

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roomsync"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultStoreBackend      = BackendMongo

	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsEnabled = true

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPropertyTimeZone  = "UTC"
	DefaultCheckInTime       = "14:00"
	DefaultCheckOutTime      = "11:00"
	DefaultReservationPrefix = "RES"
	DefaultInvoicePrefix     = "INV"
	DefaultMaxStayNights     = 365
	DefaultSweepInterval     = 5 * time.Minute
	DefaultSweepOnStart      = true
	DefaultTaxPercent        = 12.0
	DefaultBillingTimeout    = 10 * time.Second
	DefaultBillingMaxRetries = 2
	BillingRetryBackoff      = 250 * time.Millisecond

	DefaultKafkaEnabled           = false
	DefaultKafkaEventsTopic       = "roomsync.events"
	DefaultKafkaHousekeepingTopic = "roomsync.housekeeping.commands"
	DefaultKafkaConsumerGroup     = "roomsync"
	DefaultKafkaDLQTopic          = "roomsync.dlq"

	DefaultPaginationLimit = 100
)
