package notify

import (
	"context"

	"postutme-be/internal/payment"

	"go.uber.org/zap"
)

// LogNotifier is the broker-less stand-in: it records the settlement on the
// operator channel and nothing else. Used when no Kafka brokers are
// configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OnPaymentSettled(_ context.Context, ev payment.SettledEvent) error {
	n.logger.Info("Payment settled (no broker configured)",
		zap.String("payment_id", ev.PaymentID),
		zap.String("candidate_id", ev.CandidateID),
		zap.String("purpose", string(ev.Purpose)),
		zap.Int64("amount", ev.Amount),
	)
	return nil
}
