package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		MongoURI:          DefaultMongoURI,
		MongoDatabaseName: DefaultMongoDatabaseName,
		MongoConnTimeout:  DefaultMongoConnTimeout,
		StoreBackend:      BackendMongo,
		Port:              DefaultPort,
		RequestTimeout:    DefaultRequestTimeout,
		IdempotencyTTL:    DefaultIdempotencyTTL,
		MaxRequestSize:    DefaultMaxRequestSize,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		PropertyTimeZone:  "Asia/Kolkata",
		CheckInTime:       DefaultCheckInTime,
		CheckOutTime:      DefaultCheckOutTime,
		ReservationPrefix: DefaultReservationPrefix,
		InvoicePrefix:     DefaultInvoicePrefix,
		MaxStayNights:     DefaultMaxStayNights,
		SweepInterval:     DefaultSweepInterval,
		DefaultTaxPercent: DefaultTaxPercent,
		BillingTimeout:    DefaultBillingTimeout,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "99999" }, "Port must be between"},
		{"bad backend", func(c *Config) { c.StoreBackend = "sqlite" }, "StoreBackend must be one of"},
		{"memory skips mongo checks", func(c *Config) { c.StoreBackend = BackendMemory; c.MongoURI = "" }, ""},
		{"bad mongo uri", func(c *Config) { c.MongoURI = "postgres://localhost" }, "MongoURI must start with"},
		{"bad zone", func(c *Config) { c.PropertyTimeZone = "Mars/Olympus" }, "PropertyTimeZone"},
		{"bad check-in time", func(c *Config) { c.CheckInTime = "25:00" }, "CheckInTime"},
		{"empty prefix", func(c *Config) { c.ReservationPrefix = " " }, "ReservationPrefix"},
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }, "SweepInterval"},
		{"tax out of range", func(c *Config) { c.DefaultTaxPercent = 120 }, "DefaultTaxPercent"},
		{"kafka without topic", func(c *Config) { c.KafkaEnabled = true; c.KafkaConsumerGroup = "g" }, "KafkaEventsTopic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, "Asia/Kolkata", c.Location().String())

	assert.Equal(t, time.UTC, (&Config{}).Location())
}

func TestCheckInClock(t *testing.T) {
	c := &Config{CheckInTime: "09:30"}
	h, m := c.CheckInClock()
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	h, m = (&Config{CheckInTime: "bogus"}).CheckInClock()
	assert.Equal(t, 14, h)
	assert.Equal(t, 0, m)
}

func TestParseTaxOverrides(t *testing.T) {
	got, err := ParseTaxOverrides("Deluxe:18, Suite : 28")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Deluxe": 18, "Suite": 28}, got)

	empty, err := ParseTaxOverrides("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseTaxOverrides("Deluxe")
	assert.Error(t, err)

	_, err = ParseTaxOverrides("Deluxe:abc")
	assert.Error(t, err)
}

func TestRedactMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017", redactMongoURI("mongodb://admin:s3cret@db:27017"))
	assert.Equal(t, "mongodb://db:27017", redactMongoURI("mongodb://db:27017"))
}

func TestNormalizePaginationLimit(t *testing.T) {
	assert.Equal(t, 10, NormalizePaginationLimit(0))
	assert.Equal(t, 50, NormalizePaginationLimit(50))
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(5000))
}
