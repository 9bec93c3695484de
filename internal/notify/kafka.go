package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"postutme-be/internal/payment"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier publishes settlement events for the candidate workflow
// service. Messages are keyed by candidate so one candidate's settlements
// stay ordered.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}

	return &KafkaNotifier{writer: writer, logger: logger}
}

func (n *KafkaNotifier) OnPaymentSettled(ctx context.Context, ev payment.SettledEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding settlement event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, n.writer.WriteTimeout)
	defer cancel()

	err = n.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(ev.CandidateID),
		Value: value,
	})
	if err != nil {
		n.logger.Error("Failed to publish settlement event",
			zap.String("payment_id", ev.PaymentID),
			zap.String("candidate_id", ev.CandidateID),
			zap.Error(err),
		)
		return fmt.Errorf("publishing settlement event: %w", err)
	}

	n.logger.Info("Settlement event published",
		zap.String("payment_id", ev.PaymentID),
		zap.String("candidate_id", ev.CandidateID),
		zap.String("purpose", string(ev.Purpose)),
	)
	return nil
}

func (n *KafkaNotifier) Close() error {
	if n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
