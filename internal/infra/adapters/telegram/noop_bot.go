package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain/ports/adapter"
)

var _ adapter.PlatformBinding = (*NoopPlatform)(nil)

// NoopPlatform implements adapter.PlatformBinding for local/dev runs without
// a bot token. It logs instead of calling Telegram.
type NoopPlatform struct {
	log *zerolog.Logger
}

func NewNoopPlatform(logger *zerolog.Logger) *NoopPlatform {
	l := logger.With().Str("component", "NoopPlatform").Logger()
	return &NoopPlatform{log: &l}
}

func (p *NoopPlatform) GrantRole(ctx context.Context, beneficiary int64) error {
	p.log.Info().Int64("tg_id", beneficiary).Msg("[noop-telegram] grant role")
	return ctx.Err()
}

func (p *NoopPlatform) RevokeRole(ctx context.Context, beneficiary int64) error {
	p.log.Info().Int64("tg_id", beneficiary).Msg("[noop-telegram] revoke role")
	return ctx.Err()
}

func (p *NoopPlatform) Notify(ctx context.Context, beneficiary int64, message string) error {
	p.log.Info().Int64("tg_id", beneficiary).Str("text", message).Msg("[noop-telegram] notify")
	return ctx.Err()
}
