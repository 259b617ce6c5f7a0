package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvStoreBackend      = "STORE_BACKEND"

	EnvPort           = "PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvMetricsEnabled = "METRICS_ENABLED"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvPropertyTimeZone     = "PROPERTY_TIME_ZONE"
	EnvCheckInTime          = "CHECK_IN_TIME"
	EnvCheckOutTime         = "CHECK_OUT_TIME"
	EnvReservationPrefix    = "RESERVATION_PREFIX"
	EnvInvoicePrefix        = "INVOICE_PREFIX"
	EnvMaxStayNights        = "MAX_STAY_NIGHTS"
	EnvSweepInterval        = "SWEEP_INTERVAL"
	EnvSweepOnStart         = "SWEEP_ON_START"
	EnvDefaultTaxPercent    = "DEFAULT_TAX_PERCENT"
	EnvRoomTypeTaxOverrides = "ROOM_TYPE_TAX_OVERRIDES"
	EnvBillingServiceURL    = "BILLING_SERVICE_URL"
	EnvBillingTimeout       = "BILLING_TIMEOUT"
	EnvBillingMaxRetries    = "BILLING_MAX_RETRIES"

	EnvKafkaEnabled           = "KAFKA_ENABLED"
	EnvKafkaEventsTopic       = "KAFKA_EVENTS_TOPIC"
	EnvKafkaHousekeepingTopic = "KAFKA_HOUSEKEEPING_TOPIC"
	EnvKafkaConsumerGroup     = "KAFKA_CONSUMER_GROUP"
	EnvKafkaDLQTopic          = "KAFKA_DLQ_TOPIC"
)
