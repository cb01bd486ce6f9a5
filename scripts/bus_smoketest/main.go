// Command bus_smoketest publishes an admin.action event on a durable bus and
// waits for it to come back, to check a local Kafka or Redis setup.
//
//	BUS=kafka BROKERS=localhost:9092 go run ./scripts/bus_smoketest
//	BUS=redis REDIS_URL=redis://localhost:6379/0 go run ./scripts/bus_smoketest
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infraeventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type closingBus interface {
	eventbus.Bus
	Close() error
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func openBus(logger *slog.Logger) (closingBus, error) {
	group := "smoketest-" + uuid.NewString()[:8]
	switch driver := envOr("BUS", "kafka"); driver {
	case "kafka":
		cfg := infraeventbus.DefaultKafkaEventBusConfig()
		cfg.GroupID = group
		cfg.Topic = envOr("TOPIC", "payconsole.smoketest")
		return infraeventbus.NewWithKafka(envOr("BROKERS", "localhost:9092"), logger, cfg)
	case "redis":
		opts, err := redis.ParseURL(envOr("REDIS_URL", "redis://localhost:6379/0"))
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return infraeventbus.NewWithRedis(redis.NewClient(opts), "payconsole:smoketest", group, logger)
	default:
		return nil, fmt.Errorf("unknown BUS %q", driver)
	}
}

// RunSmokeTest emits one event and fails unless it is delivered back within
// the timeout.
func RunSmokeTest(logger *slog.Logger) error {
	bus, err := openBus(logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := eventbus.AdminAction{
		ID:       uuid.NewString(),
		Action:   "smoketest.ping",
		Resource: "smoketest",
		Actor:    "bus_smoketest",
		Outcome:  eventbus.OutcomeSucceeded,
		At:       time.Now().UTC(),
	}
	got := make(chan string, 1)
	bus.Register(eventbus.AdminActionType, func(_ context.Context, e eventbus.Event) error {
		var id string
		switch a := e.(type) {
		case eventbus.AdminAction:
			id = a.ID
		case *eventbus.AdminAction:
			id = a.ID
		}
		if id == want.ID {
			select {
			case got <- id:
			default:
			}
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// A fresh consumer group starts at the newest offset, so re-emit until
	// the group has joined and the event comes back.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		if err := bus.Emit(ctx, want); err != nil {
			return fmt.Errorf("emit: %w", err)
		}
		logger.Info("produced", "id", want.ID)
		select {
		case id := <-got:
			logger.Info("consumed", "id", id)
			logger.Info("bus smoke test passed")
			return nil
		case <-ctx.Done():
			return fmt.Errorf("event %s not delivered: %w", want.ID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := RunSmokeTest(logger); err != nil {
		logger.Error("bus smoke test failed", "error", err)
		os.Exit(1)
	}
}
