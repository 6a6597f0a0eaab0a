// Package stream publishes records to Kafka topics, keyed by rid so every
// update for a service lands on the same partition.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/travigo/pushport/pkg/config"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
	"github.com/twmb/franz-go/pkg/kgo"
)

// SyncProducer is satisfied by *kgo.Client.
type SyncProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Writer struct {
	producer    SyncProducer
	topicPrefix string
}

func Connect(kafkaConfig config.KafkaConfig) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(kafkaConfig.Brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchCompression(kgo.ZstdCompression(), kgo.GzipCompression()),
	)
}

func NewWriter(producer SyncProducer, topicPrefix string) *Writer {
	if topicPrefix == "" {
		topicPrefix = "pushport"
	}

	return &Writer{producer: producer, topicPrefix: topicPrefix}
}

func (w *Writer) Topic(stream string) string {
	return fmt.Sprintf("%s.%s", w.topicPrefix, stream)
}

func (w *Writer) WriteSchedule(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	return w.produce(ctx, w.Topic(kind), rid, records)
}

func (w *Writer) WriteMovement(ctx context.Context, rid string, rows []movement.Row) error {
	return w.produce(ctx, w.Topic(emit.StreamMovement), rid, rows)
}

func (w *Writer) produce(ctx context.Context, topic string, rid string, value any) error {
	record, err := buildRecord(topic, rid, value)
	if err != nil {
		return err
	}

	return w.producer.ProduceSync(ctx, record).FirstErr()
}

func buildRecord(topic string, rid string, value any) (*kgo.Record, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return &kgo.Record{
		Topic: topic,
		Key:   []byte(rid),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
