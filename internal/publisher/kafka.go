// Package publisher forwards fee estimate snapshots to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/navid-fn/gasradar/configs"
	"github.com/navid-fn/gasradar/gasprice"
	"github.com/navid-fn/gasradar/realtime"
	"github.com/sirupsen/logrus"
)

const flushTimeoutMs = 5000

// producer is the part of *kafka.Producer the publisher uses.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// EstimatesMessage is the value of every record written to the topic.
type EstimatesMessage struct {
	ReceivedAt string                  `json:"receivedAt"`
	Estimates  gasprice.FeeEstimateSet `json:"estimates"`
}

// KafkaPublisher writes one JSON record per snapshot to a single topic.
type KafkaPublisher struct {
	producer producer
	topic    string
	logger   *logrus.Entry
	now      func() time.Time

	reports   sync.WaitGroup
	closeOnce sync.Once
}

// NewKafkaPublisher connects a producer to cfg.Broker and starts its delivery report loop.
func NewKafkaPublisher(cfg *configs.KafkaConfig, logger *logrus.Logger) (*KafkaPublisher, error) {
	config := kafka.ConfigMap{
		"bootstrap.servers": cfg.Broker,
	}

	p, err := kafka.NewProducer(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	publisher := newPublisher(p, cfg.Topic, logger)
	publisher.logger.Info("Kafka Producer initialized successfully")
	return publisher, nil
}

func newPublisher(p producer, topic string, logger *logrus.Logger) *KafkaPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	publisher := &KafkaPublisher{
		producer: p,
		topic:    topic,
		logger:   logger.WithFields(logrus.Fields{"component": "publisher", "topic": topic}),
		now:      time.Now,
	}
	publisher.startDeliveryReport()
	return publisher
}

// startDeliveryReport drains the producer's Events channel and logs failed deliveries.
func (p *KafkaPublisher) startDeliveryReport() {
	p.reports.Add(1)
	go func() {
		defer p.reports.Done()
		for e := range p.producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					p.logger.WithError(ev.TopicPartition.Error).Error("Message delivery failed")
				}
			case kafka.Error:
				p.logger.WithError(ev).Error("Kafka producer error")
			}
		}
	}()
}

// Publish queues one snapshot. Delivery is asynchronous; failures show up in the log.
func (p *KafkaPublisher) Publish(ctx context.Context, set gasprice.FeeEstimateSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(EstimatesMessage{
		ReceivedAt: p.now().UTC().Format(time.RFC3339),
		Estimates:  set,
	})
	if err != nil {
		return fmt.Errorf("encode estimates: %w", err)
	}

	topic := p.topic
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

// Handler wraps next so every streamed snapshot is published before next sees it.
// A failed publish goes to next.OnError after the data.
func (p *KafkaPublisher) Handler(ctx context.Context, next realtime.Handler) realtime.Handler {
	if next == nil {
		next = realtime.HandlerFuncs{}
	}
	return realtime.HandlerFuncs{
		Data: func(set gasprice.FeeEstimateSet) {
			err := p.Publish(ctx, set)
			next.OnData(set)
			if err != nil {
				p.logger.WithError(err).Error("Failed to publish estimates")
				next.OnError(err)
			}
		},
		Error: next.OnError,
		Close: next.OnClose,
	}
}

// Close flushes queued messages and shuts the producer down. Safe to call twice.
func (p *KafkaPublisher) Close() {
	p.closeOnce.Do(func() {
		if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
			p.logger.WithField("remaining", remaining).Warn("Kafka flush timed out")
		}
		p.producer.Close()
		p.reports.Wait()
		p.logger.Info("Kafka Producer closed")
	})
}
