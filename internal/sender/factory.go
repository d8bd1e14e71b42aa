package sender

import (
	"fmt"

	"tickrunner/internal/config"
	"tickrunner/internal/logger"
)

// NewSender creates a Sender based on the configuration.
func NewSender(cfg *config.Config) (Sender, error) {
	log := logger.WithComponent("sender")
	log.Info().
		Str("sender_type", cfg.SenderType).
		Msg("Creating sender")

	switch cfg.SenderType {
	case config.SenderKafka:
		return NewKafkaSender(cfg.Kafka, cfg.SOCKSProxy)
	case config.SenderFile:
		return NewFileSender(cfg.File)
	default:
		return nil, fmt.Errorf("unknown sender type: %s (supported: file, kafka)", cfg.SenderType)
	}
}
