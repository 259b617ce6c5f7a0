package kafka_config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, ProtocolPlaintext, cfg.SecurityProtocol)
	assert.False(t, cfg.UsesTLS())
	assert.False(t, cfg.UsesSASL())
}

func TestLoad_SplitsBrokersAndNormalizesSecurity(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv(EnvKafkaSecurityProtocol, "SASL_SSL")
	t.Setenv(EnvKafkaSASLMechanism, "scram-sha-512")
	t.Setenv(EnvKafkaSASLUsername, "roomsync")
	t.Setenv(EnvKafkaSASLPassword, "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, ProtocolSASLSSL, cfg.SecurityProtocol)
	assert.Equal(t, MechanismScramSHA512, cfg.SASLMechanism)
	assert.True(t, cfg.UsesTLS())
	assert.True(t, cfg.UsesSASL())
}

func TestValidate_SecurityErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{
			name:    "unknown protocol",
			mutate:  func(c *Config) { c.SecurityProtocol = "kerberos" },
			message: "SecurityProtocol must be one of",
		},
		{
			name: "unknown mechanism",
			mutate: func(c *Config) {
				c.SecurityProtocol = ProtocolSASLPlaintext
				c.SASLMechanism = "GSSAPI"
				c.SASLUsername = "u"
				c.SASLPassword = "p"
			},
			message: "SASLMechanism must be one of",
		},
		{
			name: "missing credentials",
			mutate: func(c *Config) {
				c.SecurityProtocol = ProtocolSASLSSL
				c.SASLMechanism = MechanismPlain
			},
			message: "SASLUsername and SASLPassword are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate_MechanismIgnoredWithoutSASL(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.SecurityProtocol = ProtocolSSL
	cfg.SASLMechanism = "GSSAPI"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "none", saslMechanismForLog(cfg))
}

func TestValidate_CollectsEveryError(t *testing.T) {
	cfg := &Config{SecurityProtocol: ProtocolPlaintext, ProducerCompression: "brotli"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one Kafka broker is required")
	assert.Contains(t, err.Error(), "ProducerCompression must be one of")
	assert.Contains(t, err.Error(), "ConsumerMaxWait must be positive")
}
