package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Publisher は予約イベントを外部に発行します
type Publisher interface {
	Publish(ctx context.Context, event model.ReservationEvent) error
	Close() error
}

// LogPublisher はイベントをログに出力するだけのPublisherです
// KAFKA_BROKERS が未設定の場合に使用されます
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event model.ReservationEvent) error {
	value, err := encode(event)
	if err != nil {
		return err
	}
	log.Printf("Reservation event: %s", value)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

func encode(event model.ReservationEvent) ([]byte, error) {
	return json.Marshal(event)
}
