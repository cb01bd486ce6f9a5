package eventbus

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// headerEventType names the event type on every message so consumers can
// dispatch before decoding the payload.
const headerEventType = "event-type"

// KafkaEventBusConfig configures KafkaEventBus.
type KafkaEventBusConfig struct {
	// Topic carries every console event.
	Topic   string
	GroupID string
	// Attempts bounds how often a failing message is handed to the
	// handlers before it is skipped. Handlers must be idempotent.
	Attempts      int
	SASLUsername  string
	SASLPassword  string
	TLSEnabled    bool
	TLSSkipVerify bool
}

func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		Topic:    "payconsole.events",
		GroupID:  "payconsole",
		Attempts: 3,
	}
}

func (c *KafkaEventBusConfig) withDefaults() KafkaEventBusConfig {
	out := *DefaultKafkaEventBusConfig()
	if c == nil {
		return out
	}
	merged := *c
	if strings.TrimSpace(merged.Topic) == "" {
		merged.Topic = out.Topic
	}
	if strings.TrimSpace(merged.GroupID) == "" {
		merged.GroupID = out.GroupID
	}
	if merged.Attempts <= 0 {
		merged.Attempts = out.Attempts
	}
	return merged
}

// KafkaEventBus publishes console events on one topic. Each console instance
// reads the topic with its own consumer group, so every instance sees every
// event.
type KafkaEventBus struct {
	brokers []string
	cfg     KafkaEventBusConfig
	dialer  *kafka.Dialer
	writer  *kafka.Writer
	logger  *slog.Logger

	mu       sync.RWMutex
	handlers map[eventbus.EventType][]eventbus.HandlerFunc

	start  sync.Once
	reader *kafka.Reader
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWithKafka connects to brokers (comma separated) and makes sure the
// topic exists.
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaEventBusConfig) (*KafkaEventBus, error) {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := config.withDefaults()

	dialer, transport, err := kafkaSecurity(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &KafkaEventBus{
		brokers:  addrs,
		cfg:      cfg,
		dialer:   dialer,
		logger:   logger.With("bus", "kafka", "topic", cfg.Topic),
		handlers: make(map[eventbus.EventType][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	setupCtx, setupCancel := context.WithTimeout(ctx, 10*time.Second)
	defer setupCancel()
	if err := b.createTopic(setupCtx); err != nil {
		cancel()
		return nil, err
	}

	b.writer = &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
	}
	if transport != nil {
		b.writer.Transport = transport
	}

	b.logger.Info("kafka event bus initialized",
		"group_id", cfg.GroupID,
		"brokers", addrs,
		"tls_enabled", dialer.TLS != nil,
		"sasl_enabled", dialer.SASLMechanism != nil,
	)
	return b, nil
}

// Register adds handler for eventType. The first registration starts the
// consumer.
func (b *KafkaEventBus) Register(eventType eventbus.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()

	b.start.Do(func() {
		b.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     b.brokers,
			GroupID:     b.cfg.GroupID,
			Topic:       b.cfg.Topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     time.Second,
			Dialer:      b.dialer,
		})
		go b.consume()
	})
}

// Emit writes event to the topic, keyed by its type.
func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	raw, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.Type()),
		Value:   raw,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(event.Type())}},
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka event bus: publish %s: %w", event.Type(), err)
	}
	return nil
}

// Close stops the consumer and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	var errs []error
	if b.reader != nil {
		errs = append(errs, b.reader.Close())
		<-b.done
	}
	if b.writer != nil {
		errs = append(errs, b.writer.Close())
	}
	return errors.Join(errs...)
}

func (b *KafkaEventBus) consume() {
	defer close(b.done)
	for {
		msg, err := b.reader.FetchMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka fetch failed", "error", err)
			if !sleepCtx(b.ctx, 500*time.Millisecond) {
				return
			}
			continue
		}
		b.deliver(b.ctx, msg)
		if err := b.reader.CommitMessages(b.ctx, msg); err != nil && b.ctx.Err() == nil {
			b.logger.Error("kafka commit failed", "error", err, "offset", msg.Offset)
		}
	}
}

// deliver hands msg to the handlers of its type, retrying the whole set up
// to cfg.Attempts times. Messages that cannot be decoded or keep failing are
// logged and skipped.
func (b *KafkaEventBus) deliver(ctx context.Context, msg kafka.Message) {
	if t := messageType(msg); t != "" && len(b.handlersFor(eventbus.EventType(t))) == 0 {
		return
	}
	eventType, evt, err := decodeEnvelope(msg.Value)
	if err != nil {
		b.logger.Warn("skipping undecodable message", "error", err, "offset", msg.Offset)
		return
	}
	handlers := b.handlersFor(eventType)
	if len(handlers) == 0 {
		return
	}
	msgID := strconv.FormatInt(msg.Offset, 10)
	for attempt := 1; attempt <= b.cfg.Attempts; attempt++ {
		if runHandlers(ctx, b.logger, eventType, evt, handlers, msgID) {
			return
		}
		if attempt < b.cfg.Attempts && !sleepCtx(ctx, time.Duration(attempt)*200*time.Millisecond) {
			return
		}
	}
	b.logger.Warn("giving up on message", "event_type", eventType, "offset", msg.Offset, "attempts", b.cfg.Attempts)
}

func (b *KafkaEventBus) handlersFor(eventType eventbus.EventType) []eventbus.HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
}

// createTopic creates the topic on the cluster controller. It doubles as the
// connectivity check.
func (b *KafkaEventBus) createTopic(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka event bus: find controller: %w", err)
	}
	ctrl, err := b.dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka event bus: dial controller: %w", err)
	}
	defer func() { _ = ctrl.Close() }()

	err = ctrl.CreateTopics(kafka.TopicConfig{Topic: b.cfg.Topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka event bus: create topic %s: %w", b.cfg.Topic, err)
	}
	return nil
}

func messageType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == headerEventType {
			return string(h.Value)
		}
	}
	return ""
}

// kafkaSecurity builds the dialer used by readers and admin connections and,
// when TLS or SASL is configured, the matching writer transport.
func kafkaSecurity(cfg KafkaEventBusConfig) (*kafka.Dialer, *kafka.Transport, error) {
	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec
		}
	}
	mechanism, err := saslPlain(cfg.SASLUsername, cfg.SASLPassword)
	if err != nil {
		return nil, nil, err
	}
	dialer := &kafka.Dialer{Timeout: 5 * time.Second, DualStack: true, TLS: tlsConfig, SASLMechanism: mechanism}
	if tlsConfig == nil && mechanism == nil {
		return dialer, nil, nil
	}
	return dialer, &kafka.Transport{TLS: tlsConfig, SASL: mechanism}, nil
}

func saslPlain(username, password string) (sasl.Mechanism, error) {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	switch {
	case username == "" && password == "":
		return nil, nil
	case username == "" || password == "":
		return nil, fmt.Errorf("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: username, Password: password}, nil
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, p := range strings.Split(brokers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
