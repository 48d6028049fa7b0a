package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/segmentio/kafka-go"
)

const (
	headerDistrict = "district"
	headerCategory = "category"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 把归档后的文章逐条投递到 Kafka，供下游订阅
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // 同一身份键落在同一分区
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	log.Printf("kafka publisher: broker=%s topic=%s", broker, topic)
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish 一批文章一次写入
func (p *KafkaPublisher) Publish(ctx context.Context, district string, category article.Category, items []article.Article) error {
	if len(items) == 0 {
		return nil
	}
	msgs, err := buildMessages(district, category, items, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write %d messages: %w", len(msgs), err)
	}
	log.Printf("kafka publisher: %s/%s produced %d articles to %s", district, category, len(msgs), p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessages(district string, category article.Category, items []article.Article, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(items))
	for _, a := range items {
		value, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal article %s: %w", a.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.IdentityKey()),
			Value: value,
			Time:  now,
			Headers: []kafka.Header{
				{Key: headerDistrict, Value: []byte(district)},
				{Key: headerCategory, Value: []byte(category)},
			},
		})
	}
	return msgs, nil
}
