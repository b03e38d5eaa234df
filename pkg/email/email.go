// Package email sends outcome notifications. Delivery is owned by a
// separate mailer service; this package defines the contract and a no-op
// sender for deployments without one.
package email

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers a templated email to one recipient
type Sender interface {
	Send(ctx context.Context, to, template string, data map[string]any) error
}

type logSender struct {
	logger *zap.Logger
}

// NewLogSender returns a Sender that only logs. Used when no mailer service
// is configured.
func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(ctx context.Context, to, template string, data map[string]any) error {
	s.logger.Info("email suppressed, no mailer configured",
		zap.String("to", to),
		zap.String("template", template))
	return nil
}

// Template names used by the outcome handlers
const (
	TemplateNftPurchased  = "nft_purchased"
	TemplateNftClaimed    = "nft_claimed"
	TemplateNftAirdropped = "nft_airdropped"
)
