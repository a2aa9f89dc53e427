package events

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/segmentio/kafka-go"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// batchTimeout はメッセージをまとめるために待つ最大時間です
// 予約リクエストは1件ずつ発行を待つため、kafka-goの既定値の1秒より短くします
const batchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher は予約イベントをKafkaのトピックに発行します
// メッセージのキーは予約IDで、同じ予約のイベントは同じパーティションに入ります
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher は新しいKafkaPublisherを作成します
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.ReservationEvent) error {
	ctx, seg := xray.BeginSubsegment(ctx, "KafkaPublisher.Publish")
	defer seg.Close(nil)

	utils.AddMetadata(seg, "event_type", string(event.Type))

	value, err := encode(event)
	if err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ReservationID),
		Value: value,
	})
	if err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
