package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// locationRecord is the wire format written to the analytics topic.
type locationRecord struct {
	TripID     uint      `json:"tripId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Producer mirrors accepted driver location samples to Kafka for downstream
// consumers. It is optional; the service runs without one.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Producer{writer: w}
}

func (p *Producer) PublishLocation(tripID uint, lat, lng float64, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, _ := json.Marshal(locationRecord{TripID: tripID, Lat: lat, Lng: lng, RecordedAt: at})
	key := []byte(strconv.FormatUint(uint64(tripID), 10))
	return p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: b})
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
