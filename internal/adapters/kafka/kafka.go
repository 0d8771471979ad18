package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer writes archived chat events to a Kafka topic. Messages are
// keyed by chatroom id so each chatroom stays ordered within a partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 100 * time.Millisecond,
			Compression:  kafka.Snappy,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, chatroomID int64, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(chatroomID, 10)),
		Value: payload,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
