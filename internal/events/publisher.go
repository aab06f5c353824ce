package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

const topic = "kiosk-transactions"

// completedPayload is the wire shape of a completed-checkout event.
type completedPayload struct {
	TransactionID string    `json:"transaction_id"`
	TotalAmount   string    `json:"total_amount"`
	Method        string    `json:"method"`
	CompletedAt   time.Time `json:"completed_at"`
}

// KafkaPublisher pushes completed checkouts to the store's broker for
// receipt archival and sales analytics. Failures are the caller's to log;
// they must never block a checkout.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) CheckoutCompleted(ctx context.Context, tx domain.Transaction, method string) error {
	payload, err := json.Marshal(completedPayload{
		TransactionID: tx.TransactionID,
		TotalAmount:   tx.TotalAmount.StringFixed(2),
		Method:        method,
		CompletedAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.TransactionID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write event failed: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) CheckoutCompleted(context.Context, domain.Transaction, string) error {
	return nil
}
