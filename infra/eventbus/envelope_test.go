package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	raw, err := encodeEnvelope(eventbus.QueryInvalidated{Origin: "i-1", Prefixes: []string{"wallet"}, At: at})
	require.NoError(t, err)

	eventType, evt, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, eventbus.QueryInvalidatedType, eventType)
	inv, ok := evt.(*eventbus.QueryInvalidated)
	require.True(t, ok)
	assert.Equal(t, "i-1", inv.Origin)
	assert.Equal(t, []string{"wallet"}, inv.Prefixes)
	assert.True(t, at.Equal(inv.At))
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	_, _, err := decodeEnvelope([]byte("not json"))
	assert.Error(t, err)

	_, _, err = decodeEnvelope([]byte(`{"type":"unknown.event","payload":{}}`))
	var unknown errUnknownType
	assert.True(t, errors.As(err, &unknown))

	_, _, err = decodeEnvelope([]byte(`{"type":"admin.action","payload":"oops"}`))
	assert.ErrorContains(t, err, "unmarshal payload")
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, splitBrokers(""))
}

func TestSASLPlain(t *testing.T) {
	m, err := saslPlain("", "")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = saslPlain("user", "")
	assert.Error(t, err)

	m, err = saslPlain("user", "pass")
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", m.Name())
}

func TestKafkaConfigDefaults(t *testing.T) {
	var nilCfg *KafkaEventBusConfig
	assert.Equal(t, *DefaultKafkaEventBusConfig(), nilCfg.withDefaults())

	cfg := (&KafkaEventBusConfig{Topic: "acme.console", Attempts: -1}).withDefaults()
	assert.Equal(t, "acme.console", cfg.Topic)
	assert.Equal(t, "payconsole", cfg.GroupID)
	assert.Equal(t, 3, cfg.Attempts)
}

func TestNewWithKafka_RequiresBrokers(t *testing.T) {
	_, err := NewWithKafka(" , ", testLogger(), nil)
	assert.ErrorContains(t, err, "brokers are required")
}

func TestNewWithRedis_RequiresClient(t *testing.T) {
	_, err := NewWithRedis(nil, "stream", "group", testLogger())
	assert.Error(t, err)
}

func newTestKafkaBus(attempts int) *KafkaEventBus {
	cfg := (&KafkaEventBusConfig{Attempts: attempts}).withDefaults()
	return &KafkaEventBus{
		cfg:      cfg,
		handlers: make(map[eventbus.EventType][]eventbus.HandlerFunc),
		logger:   testLogger(),
	}
}

func adminActionMessage(t *testing.T, action string) kafka.Message {
	raw, err := encodeEnvelope(eventbus.AdminAction{Action: action})
	require.NoError(t, err)
	return kafka.Message{
		Value:   raw,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(eventbus.AdminActionType)}},
	}
}

func TestKafkaDeliver_DispatchesByType(t *testing.T) {
	bus := newTestKafkaBus(1)
	var got []string
	bus.handlers[eventbus.AdminActionType] = []eventbus.HandlerFunc{
		func(_ context.Context, e eventbus.Event) error {
			got = append(got, e.(*eventbus.AdminAction).Action)
			return nil
		},
	}

	bus.deliver(context.Background(), adminActionMessage(t, "kyb.approve"))
	assert.Equal(t, []string{"kyb.approve"}, got)

	// undecodable messages are skipped
	bus.deliver(context.Background(), kafka.Message{Value: []byte("{")})
	assert.Len(t, got, 1)
}

func TestKafkaDeliver_RetriesThenSkips(t *testing.T) {
	bus := newTestKafkaBus(3)
	calls := 0
	bus.handlers[eventbus.AdminActionType] = []eventbus.HandlerFunc{
		func(context.Context, eventbus.Event) error {
			calls++
			return errors.New("store down")
		},
	}

	bus.deliver(context.Background(), adminActionMessage(t, "fee-rule.activate"))
	assert.Equal(t, 3, calls)
}

func TestKafkaDeliver_IgnoresTypesWithoutHandlers(t *testing.T) {
	bus := newTestKafkaBus(1)
	called := false
	bus.handlers[eventbus.QueryInvalidatedType] = []eventbus.HandlerFunc{
		func(context.Context, eventbus.Event) error { called = true; return nil },
	}
	bus.deliver(context.Background(), adminActionMessage(t, "merchant.suspend"))
	assert.False(t, called)
}
