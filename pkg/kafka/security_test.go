package kafka

import (
	"testing"

	kafka_config "roomsync/pkg/kafka/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func securityConfig(protocol, mechanism string) *kafka_config.Config {
	return &kafka_config.Config{
		Brokers:          []string{"localhost:9092"},
		ClientID:         "roomsync-test",
		SecurityProtocol: protocol,
		SASLMechanism:    mechanism,
		SASLUsername:     "roomsync",
		SASLPassword:     "secret",
	}
}

func TestSASLMechanism(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		mech     string
		want     string
	}{
		{"plain", kafka_config.ProtocolSASLPlaintext, kafka_config.MechanismPlain, "PLAIN"},
		{"scram 256", kafka_config.ProtocolSASLSSL, kafka_config.MechanismScramSHA256, "SCRAM-SHA-256"},
		{"scram 512", kafka_config.ProtocolSASLSSL, kafka_config.MechanismScramSHA512, "SCRAM-SHA-512"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mechanism, err := saslMechanism(securityConfig(tt.protocol, tt.mech))
			require.NoError(t, err)
			require.NotNil(t, mechanism)
			assert.Equal(t, tt.want, mechanism.Name())
		})
	}
}

func TestSASLMechanism_NoneWithoutSASL(t *testing.T) {
	mechanism, err := saslMechanism(securityConfig(kafka_config.ProtocolSSL, kafka_config.MechanismPlain))
	require.NoError(t, err)
	assert.Nil(t, mechanism)
}

func TestSASLMechanism_Unsupported(t *testing.T) {
	_, err := saslMechanism(securityConfig(kafka_config.ProtocolSASLPlaintext, "GSSAPI"))
	assert.Error(t, err)
}

func TestTransportAndDialer(t *testing.T) {
	plain := securityConfig(kafka_config.ProtocolPlaintext, kafka_config.MechanismPlain)
	transport, err := newTransport(plain)
	require.NoError(t, err)
	assert.Nil(t, transport.TLS)
	assert.Nil(t, transport.SASL)
	assert.Equal(t, "roomsync-test", transport.ClientID)

	secure := securityConfig(kafka_config.ProtocolSASLSSL, kafka_config.MechanismScramSHA256)
	secure.TLSSkipVerify = true
	dialer, err := newDialer(secure)
	require.NoError(t, err)
	require.NotNil(t, dialer.TLS)
	assert.True(t, dialer.TLS.InsecureSkipVerify)
	require.NotNil(t, dialer.SASLMechanism)
	assert.Equal(t, "SCRAM-SHA-256", dialer.SASLMechanism.Name())
}

func TestNewProducer_RejectsBadSecurity(t *testing.T) {
	cfg := securityConfig(kafka_config.ProtocolSASLPlaintext, "GSSAPI")
	_, err := NewProducer(cfg, nil, "room-events", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kafka security settings")
}
