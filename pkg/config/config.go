package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"roomsync/pkg/client"
	"roomsync/pkg/locale"
	"roomsync/pkg/logger"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	StoreBackend      string

	Port           string
	MetricsEnabled bool

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	PropertyTimeZone     string
	CheckInTime          string
	CheckOutTime         string
	ReservationPrefix    string
	InvoicePrefix        string
	MaxStayNights        int
	SweepInterval        time.Duration
	SweepOnStart         bool
	DefaultTaxPercent    float64
	RoomTypeTaxOverrides map[string]float64
	BillingServiceURL    string
	BillingTimeout       time.Duration
	BillingMaxRetries    int

	KafkaEnabled           bool
	KafkaEventsTopic       string
	KafkaHousekeepingTopic string
	KafkaConsumerGroup     string
	KafkaDLQTopic          string

	Log    *logger.Logger
	Client *client.Client

	serviceName  string
	location     *time.Location
	overridesErr error
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		StoreBackend:      getEnvStr(EnvStoreBackend, DefaultStoreBackend),

		Port:           getEnvStr(EnvPort, DefaultPort),
		MetricsEnabled: getEnvBool(EnvMetricsEnabled, DefaultMetricsEnabled),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		PropertyTimeZone:  getEnvStr(EnvPropertyTimeZone, DefaultPropertyTimeZone),
		CheckInTime:       getEnvStr(EnvCheckInTime, DefaultCheckInTime),
		CheckOutTime:      getEnvStr(EnvCheckOutTime, DefaultCheckOutTime),
		ReservationPrefix: getEnvStr(EnvReservationPrefix, DefaultReservationPrefix),
		InvoicePrefix:     getEnvStr(EnvInvoicePrefix, DefaultInvoicePrefix),
		MaxStayNights:     getEnvNum(EnvMaxStayNights, DefaultMaxStayNights),
		SweepInterval:     getEnvDuration(EnvSweepInterval, DefaultSweepInterval),
		SweepOnStart:      getEnvBool(EnvSweepOnStart, DefaultSweepOnStart),
		DefaultTaxPercent: getEnvFloat(EnvDefaultTaxPercent, DefaultTaxPercent),
		BillingServiceURL: getEnvStr(EnvBillingServiceURL, ""),
		BillingTimeout:    getEnvDuration(EnvBillingTimeout, DefaultBillingTimeout),
		BillingMaxRetries: getEnvNum(EnvBillingMaxRetries, DefaultBillingMaxRetries),

		KafkaEnabled:           getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaEventsTopic:       getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		KafkaHousekeepingTopic: getEnvStr(EnvKafkaHousekeepingTopic, DefaultKafkaHousekeepingTopic),
		KafkaConsumerGroup:     getEnvStr(EnvKafkaConsumerGroup, DefaultKafkaConsumerGroup),
		KafkaDLQTopic:          getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client:      client.NewClient(),
		serviceName: serviceName,
	}

	cfg.RoomTypeTaxOverrides, cfg.overridesErr = ParseTaxOverrides(getEnvStr(EnvRoomTypeTaxOverrides, ""))

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// SetMongo connects to MongoDB and exits the process on failure.
func (cfg *Config) SetMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	if err := cfg.Client.ConnectMongo(ctx, cfg.MongoURI, cfg.serviceName, cfg.MongoConnTimeout); err != nil {
		cfg.Log.Fatal("Failed to connect to MongoDB", "error", err, "mongo_uri", redactMongoURI(cfg.MongoURI))
	}
	cfg.Log.Info("Connected to MongoDB", "database", cfg.MongoDatabaseName)
}

func (cfg *Config) UsesMongo() bool {
	return cfg.StoreBackend != BackendMemory
}

var hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.StoreBackend != BackendMongo && cfg.StoreBackend != BackendMemory {
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [mongo, memory], got: %s", cfg.StoreBackend))
	}

	if cfg.UsesMongo() {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if loc, err := time.LoadLocation(cfg.PropertyTimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("PropertyTimeZone must be a valid IANA zone, got: %s", cfg.PropertyTimeZone))
	} else {
		cfg.location = loc
	}
	if !hhmmRegex.MatchString(cfg.CheckInTime) {
		errors = append(errors, fmt.Sprintf("CheckInTime must be in HH:MM format (00:00-23:59), got: %s", cfg.CheckInTime))
	}
	if !hhmmRegex.MatchString(cfg.CheckOutTime) {
		errors = append(errors, fmt.Sprintf("CheckOutTime must be in HH:MM format (00:00-23:59), got: %s", cfg.CheckOutTime))
	}

	if strings.TrimSpace(cfg.ReservationPrefix) == "" {
		errors = append(errors, "ReservationPrefix cannot be empty")
	}
	if strings.TrimSpace(cfg.InvoicePrefix) == "" {
		errors = append(errors, "InvoicePrefix cannot be empty")
	}
	if cfg.MaxStayNights <= 0 {
		errors = append(errors, fmt.Sprintf("MaxStayNights must be positive, got: %d", cfg.MaxStayNights))
	}
	if cfg.SweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("SweepInterval must be positive, got: %s", cfg.SweepInterval))
	}
	if cfg.DefaultTaxPercent < 0 || cfg.DefaultTaxPercent > 100 {
		errors = append(errors, fmt.Sprintf("DefaultTaxPercent must be between 0 and 100, got: %v", cfg.DefaultTaxPercent))
	}
	if cfg.overridesErr != nil {
		errors = append(errors, cfg.overridesErr.Error())
	}
	if cfg.BillingTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("BillingTimeout must be positive, got: %s", cfg.BillingTimeout))
	}
	if cfg.BillingMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("BillingMaxRetries cannot be negative, got: %d", cfg.BillingMaxRetries))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.KafkaEnabled {
		if cfg.KafkaEventsTopic == "" {
			errors = append(errors, "KafkaEventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.KafkaHousekeepingTopic == "" {
			errors = append(errors, "KafkaHousekeepingTopic cannot be empty when Kafka is enabled")
		}
		if cfg.KafkaConsumerGroup == "" {
			errors = append(errors, "KafkaConsumerGroup cannot be empty when Kafka is enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"metrics_enabled", cfg.MetricsEnabled,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"property_time_zone", cfg.PropertyTimeZone,
		"property_region", locale.DetectRegion(cfg.PropertyTimeZone),
		"check_in_time", cfg.CheckInTime,
		"check_out_time", cfg.CheckOutTime,
		"reservation_prefix", cfg.ReservationPrefix,
		"invoice_prefix", cfg.InvoicePrefix,
		"max_stay_nights", cfg.MaxStayNights,
		"sweep_interval", cfg.SweepInterval,
		"sweep_on_start", cfg.SweepOnStart,
		"default_tax_percent", cfg.DefaultTaxPercent,
		"room_type_tax_overrides", len(cfg.RoomTypeTaxOverrides),
		"billing_remote", cfg.BillingServiceURL != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_events_topic", cfg.KafkaEventsTopic,
		"kafka_housekeeping_topic", cfg.KafkaHousekeepingTopic,
	)
}

// Location returns the property time zone. Configs built by hand in tests
// fall back to UTC.
func (cfg *Config) Location() *time.Location {
	if cfg.location != nil {
		return cfg.location
	}
	if cfg.PropertyTimeZone != "" {
		if loc, err := time.LoadLocation(cfg.PropertyTimeZone); err == nil {
			cfg.location = loc
			return loc
		}
	}
	return time.UTC
}

// CheckInClock returns the configured check-in hour and minute.
func (cfg *Config) CheckInClock() (int, int) {
	return parseHHMM(cfg.CheckInTime, DefaultCheckInTime)
}

func (cfg *Config) MaxStay() int {
	if cfg.MaxStayNights <= 0 {
		return DefaultMaxStayNights
	}
	return cfg.MaxStayNights
}

func (cfg *Config) ReservationSequencePrefix() string {
	if cfg.ReservationPrefix == "" {
		return DefaultReservationPrefix
	}
	return cfg.ReservationPrefix
}

func (cfg *Config) InvoiceSequencePrefix() string {
	if cfg.InvoicePrefix == "" {
		return DefaultInvoicePrefix
	}
	return cfg.InvoicePrefix
}

// ParseTaxOverrides reads "Deluxe:18,Suite:18" into a room type to percent map.
func ParseTaxOverrides(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		roomType, pct, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(roomType) == "" {
			return out, fmt.Errorf("RoomTypeTaxOverrides entry must be <type>:<percent>, got: %s", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil || v < 0 || v > 100 {
			return out, fmt.Errorf("RoomTypeTaxOverrides percent for %s must be between 0 and 100, got: %s", roomType, pct)
		}
		out[strings.TrimSpace(roomType)] = v
	}
	return out, nil
}

func parseHHMM(value, fallback string) (int, int) {
	if !hhmmRegex.MatchString(value) {
		value = fallback
	}
	h, _ := strconv.Atoi(value[:2])
	m, _ := strconv.Atoi(value[3:])
	return h, m
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}
