package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/infra/logging"
	"telegram-entitlement-bot/internal/infra/metrics"
	"telegram-entitlement-bot/internal/usecase"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":     r.handleStartCommand,
		"help":      r.handleHelpCommand,
		"redeem":    r.handleRedeemCommand,
		"code":      r.handleCodeCommand,
		"refer":     r.handleReferCommand,
		"keytime":   r.handleKeyTimeCommand,
		"referrals": r.handleReferralsCommand,
		"resethwid": r.handleResetCommand,

		"lookup": r.supportOrStaff(r.handleLookupCommand),
		"stats":  r.supportOrStaff(r.handleStatsCommand),

		"grant":       r.staffOnly(r.handleGrantCommand),
		"addtime":     r.staffOnly(r.handleAddTimeCommand),
		"blacklist":   r.staffOnly(r.handleBlacklistCommand),
		"unblacklist": r.staffOnly(r.handleUnblacklistCommand),
		"revoke":      r.staffOnly(r.handleRevokeCommand),
	}
}

func (r *RealTelegramBotAdapter) staffOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.isStaff(message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("not_authorized"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(logging.WithActor(ctx, message.From.ID), message)
	}
}

func (r *RealTelegramBotAdapter) supportOrStaff(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.isStaff(message.From.ID) && !r.isSupport(message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("not_authorized"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(logging.WithActor(ctx, message.From.ID), message)
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	staff := r.isStaff(message.From.ID) || r.isSupport(message.From.ID)
	if err := r.SetMenuCommands(ctx, message.Chat.ID, staff); err != nil {
		// Log the error but don't block the user
		r.log.Warn().Err(err).Int64("tg_id", message.From.ID).Msg("failed to set menu commands")
	}
	return r.handleHelpCommand(ctx, message)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	text := r.translator.T("help")
	if r.isStaff(message.From.ID) || r.isSupport(message.From.ID) {
		text += "\n" + r.translator.T("help_staff")
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

// /redeem <purchase_ref> [referral_code]
func (r *RealTelegramBotAdapter) handleRedeemCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) < 1 || len(args) > 2 {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/redeem <invoice_id> [referral_code]"))
	}
	req := usecase.RedeemRequest{
		PurchaseRef: args[0],
		Beneficiary: message.From.ID,
		Actor:       message.From.ID,
	}
	if len(args) == 2 {
		req.ReferralCode = args[1]
	}
	res, _ := r.commands.Redeem(ctx, req)
	return r.SendMessage(ctx, message.Chat.ID, r.redemptionText(res, false))
}

// /grant <purchase_ref> <user_id> [referral_code]
func (r *RealTelegramBotAdapter) handleGrantCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 || len(args) > 3 {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/grant <invoice_id> <user_id> [referral_code]"))
	}
	beneficiary, ok := parseUserID(args[1])
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("invalid_user_id"))
	}
	req := usecase.RedeemRequest{
		PurchaseRef: args[0],
		Beneficiary: beneficiary,
		Actor:       message.From.ID,
	}
	if len(args) == 3 {
		req.ReferralCode = args[2]
	}
	res, _ := r.commands.Redeem(ctx, req)
	return r.SendMessage(ctx, message.Chat.ID, r.redemptionText(res, true))
}

func (r *RealTelegramBotAdapter) handleCodeCommand(ctx context.Context, message *tgbotapi.Message) error {
	code, err := r.commands.GetOrCreateReferralCode(ctx, message.From.ID)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.translator.T("referral_code", code.Code, code.BonusDays))
}

// /refer <code>
func (r *RealTelegramBotAdapter) handleReferCommand(ctx context.Context, message *tgbotapi.Message) error {
	code := strings.TrimSpace(message.CommandArguments())
	if code == "" {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/refer <code>"))
	}
	out, err := r.commands.ApplyReferral(ctx, code, message.From.ID)
	return r.SendMessage(ctx, message.Chat.ID, r.referralText(out, err))
}

func (r *RealTelegramBotAdapter) handleKeyTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	lic, err := r.commands.KeyTime(ctx, message.From.ID)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.keyTimeText(lic))
}

func (r *RealTelegramBotAdapter) handleReferralsCommand(ctx context.Context, message *tgbotapi.Message) error {
	s, err := r.commands.ReferralSummary(ctx, message.From.ID)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	text := r.referralSummaryText(s)
	if r.isStaff(message.From.ID) || r.isSupport(message.From.ID) {
		uses, err := r.commands.RecentReferrals(ctx, 10)
		if err != nil {
			r.log.Warn().Err(err).Msg("recent referrals unavailable")
		} else if len(uses) > 0 {
			text += "\n\n" + r.recentReferralsText(uses)
		}
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

// /resethwid resets the caller's own key; staff may pass a user id.
func (r *RealTelegramBotAdapter) handleResetCommand(ctx context.Context, message *tgbotapi.Message) error {
	target := message.From.ID
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		if !r.isStaff(message.From.ID) {
			metrics.IncAdminCommand("/resethwid", "unauthorized")
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("not_authorized"))
		}
		metrics.IncAdminCommand("/resethwid", "authorized")
		id, ok := parseUserID(arg)
		if !ok {
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("invalid_user_id"))
		}
		target = id
	}
	if err := r.commands.ResetDevice(ctx, target); err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.translator.T("reset_done"))
}

// /lookup <user_id>
func (r *RealTelegramBotAdapter) handleLookupCommand(ctx context.Context, message *tgbotapi.Message) error {
	id, ok := parseUserID(message.CommandArguments())
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/lookup <user_id>"))
	}
	rep, err := r.commands.LookupBeneficiary(ctx, id)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.lookupText(rep))
}

func (r *RealTelegramBotAdapter) handleStatsCommand(ctx context.Context, message *tgbotapi.Message) error {
	st, err := r.commands.Stats(ctx)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.statsText(st))
}

// /addtime <user_id> <days>
func (r *RealTelegramBotAdapter) handleAddTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/addtime <user_id> <days>"))
	}
	id, ok := parseUserID(args[0])
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("invalid_user_id"))
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/addtime <user_id> <days>"))
	}
	res, err := r.commands.AddTime(ctx, id, days)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	text := r.translator.T("addtime_done", days, id, formatExpiry(res.NewExpiry))
	if failed := res.Steps.Failed(); len(failed) > 0 {
		text += "\n" + r.translator.T("steps_failed", strings.Join(failed, ", "))
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

// /blacklist <user_id> <reason...>
func (r *RealTelegramBotAdapter) handleBlacklistCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) < 1 {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/blacklist <user_id> <reason>"))
	}
	id, ok := parseUserID(args[0])
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("invalid_user_id"))
	}
	reason := strings.Join(args[1:], " ")
	if _, err := r.commands.Blacklist(ctx, id, reason, message.From.ID); err != nil {
		if domain.KindOf(err) == domain.KindAlreadyProcessed {
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("blacklist_exists", id))
		}
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.translator.T("blacklist_done", id))
}

// /unblacklist <user_id>
func (r *RealTelegramBotAdapter) handleUnblacklistCommand(ctx context.Context, message *tgbotapi.Message) error {
	id, ok := parseUserID(message.CommandArguments())
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/unblacklist <user_id>"))
	}
	if err := r.commands.Unblacklist(ctx, id); err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("unblacklist_missing", id))
		}
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	return r.SendMessage(ctx, message.Chat.ID, r.translator.T("unblacklist_done", id))
}

// /revoke <user_id>
func (r *RealTelegramBotAdapter) handleRevokeCommand(ctx context.Context, message *tgbotapi.Message) error {
	id, ok := parseUserID(message.CommandArguments())
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("usage", "/revoke <user_id>"))
	}
	res, err := r.commands.Revoke(ctx, id)
	if err != nil {
		return r.SendMessage(ctx, message.Chat.ID, r.errorText(err))
	}
	text := r.translator.T("revoke_done", res.Deactivated, id)
	if failed := res.Steps.Failed(); len(failed) > 0 {
		text += "\n" + r.translator.T("steps_failed", strings.Join(failed, ", "))
	}
	return r.SendMessage(ctx, message.Chat.ID, text)
}

func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
