package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/infra/i18n"
	"telegram-entitlement-bot/internal/infra/metrics"
)

const platformService = "telegram"

var _ adapter.PlatformBinding = (*Platform)(nil)

// Platform binds entitlements to membership of the premium chat. The role is
// membership: granting lifts any ban and DMs a single-use invite link,
// revoking removes the member.
type Platform struct {
	bot        botAPI
	chatID     int64
	inviteTTL  time.Duration
	translator *i18n.Translator
	log        *zerolog.Logger
	now        func() time.Time
}

func NewPlatform(api botAPI, cfg *config.BotConfig, translator *i18n.Translator, logger *zerolog.Logger) *Platform {
	l := logger.With().Str("component", "TelegramPlatform").Logger()
	return &Platform{
		bot:        api,
		chatID:     cfg.PremiumChatID,
		inviteTTL:  cfg.InviteTTL,
		translator: translator,
		log:        &l,
		now:        time.Now,
	}
}

func (p *Platform) GrantRole(ctx context.Context, beneficiary int64) (err error) {
	started := time.Now()
	defer func() {
		metrics.IncPlatformAction("grant_role", err)
		metrics.ObserveUpstream(platformService, "grant_role", resultLabel(err), started)
	}()
	if p.chatID == 0 {
		p.log.Debug().Int64("tg_id", beneficiary).Msg("no premium chat configured; role grant is a no-op")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: p.chatID, UserID: beneficiary},
		OnlyIfBanned:     true,
	}
	if _, err := p.bot.Request(unban); err != nil {
		return mapAPIError("unban", err)
	}

	invite := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: p.chatID},
		Name:        fmt.Sprintf("grant %d", beneficiary),
		MemberLimit: 1,
	}
	if p.inviteTTL > 0 {
		invite.ExpireDate = int(p.now().Add(p.inviteTTL).Unix())
	}
	resp, err := p.bot.Request(invite)
	if err != nil {
		return mapAPIError("create invite link", err)
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil || link.InviteLink == "" {
		return fmt.Errorf("%w: invite link response: %v", domain.ErrUpstreamRejected, err)
	}

	if err := p.send(beneficiary, p.translator.T("role_invite", link.InviteLink)); err != nil {
		return err
	}
	return nil
}

func (p *Platform) RevokeRole(ctx context.Context, beneficiary int64) (err error) {
	started := time.Now()
	defer func() {
		metrics.IncPlatformAction("revoke_role", err)
		metrics.ObserveUpstream(platformService, "revoke_role", resultLabel(err), started)
	}()
	if p.chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: p.chatID, UserID: beneficiary},
	}
	if _, err := p.bot.Request(ban); err != nil {
		return mapAPIError("ban", err)
	}
	// lift the ban right away so a later grant can re-invite
	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: p.chatID, UserID: beneficiary},
		OnlyIfBanned:     true,
	}
	if _, err := p.bot.Request(unban); err != nil {
		p.log.Warn().Err(err).Int64("tg_id", beneficiary).Msg("member removed but unban failed")
	}
	return nil
}

func (p *Platform) Notify(ctx context.Context, beneficiary int64, message string) (err error) {
	started := time.Now()
	defer func() {
		metrics.IncPlatformAction("notify", err)
		metrics.ObserveUpstream(platformService, "notify", resultLabel(err), started)
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.send(beneficiary, message)
}

func (p *Platform) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := p.bot.Send(msg); err != nil {
		return mapAPIError("send message", err)
	}
	return nil
}

// mapAPIError converts Bot API failures to the upstream taxonomy.
func mapAPIError(op string, err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, op, err)
	}
	switch {
	case apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s: %s", domain.ErrUpstreamRejected, domain.ErrPermissionDenied, op, apiErr.Message)
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= 500:
		return fmt.Errorf("%w: %s: %s", domain.ErrUpstreamUnavailable, op, apiErr.Message)
	default:
		return fmt.Errorf("%w: %s: %s", domain.ErrUpstreamRejected, op, apiErr.Message)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}
