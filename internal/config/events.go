package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/studypilot/assessment-service/internal/events"
)

// EventConfig controls where session and grading events go.
type EventConfig struct {
	Enabled         bool
	Publisher       string // kafka or mock
	KafkaBrokers    string // comma separated
	AssessmentTopic string
}

// GetKafkaBrokers returns the broker list without blanks.
func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CreateEventPublisher returns the kafka publisher when events are enabled
// and a logging mock otherwise.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		brokers := c.GetKafkaBrokers()
		if len(brokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS must list at least one broker")
		}
		logger.Info("Creating Kafka event publisher", "brokers", brokers, "topic", c.AssessmentTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: brokers,
			TopicName:    c.AssessmentTopic,
			Logger:       logger,
		})
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
