package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/application"
	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/infra/i18n"
	"telegram-entitlement-bot/internal/infra/logging"
	"telegram-entitlement-bot/internal/infra/metrics"
	red "telegram-entitlement-bot/internal/infra/redis"
)

// botAPI is the slice of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)

// RealTelegramBotAdapter polls Telegram for updates and dispatches commands
// to the application layer.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         *config.BotConfig
	commands    application.Commands
	rateLimiter *red.RateLimiter
	translator  *i18n.Translator
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	supportIDsMap map[int64]struct{}
	updateWorkers int

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

const pollTimeoutSeconds = 60

// NewBotAPI connects to the Telegram Bot API with cfg.Token. The HTTP timeout
// covers one long poll plus cfg.Timeout.
func NewBotAPI(cfg *config.BotConfig) (*tgbotapi.BotAPI, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	client := &http.Client{Timeout: pollTimeoutSeconds*time.Second + cfg.Timeout}
	return tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
}

func NewRealTelegramBotAdapter(
	api botAPI,
	cfg *config.BotConfig,
	commands application.Commands,
	rateLimiter *red.RateLimiter,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if api == nil {
		return nil, errors.New("bot api is nil")
	}
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if commands == nil {
		return nil, errors.New("commands are nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	adminMap := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	supportMap := make(map[int64]struct{}, len(cfg.SupportIDs))
	for _, id := range cfg.SupportIDs {
		supportMap[id] = struct{}{}
	}

	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:           api,
		cfg:           cfg,
		commands:      commands,
		rateLimiter:   rateLimiter,
		translator:    translator,
		log:           &l,
		adminIDsMap:   adminMap,
		supportIDsMap: supportMap,
		updateWorkers: workers,
	}, nil
}

// StartPolling fans updates out to a fixed worker pool. It blocks until ctx
// is canceled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range updateChan {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Warn().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
				}
			}
		}(i)
	}

	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			r.log.Info().Msg("telegram polling stopped")
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				close(updateChan)
				wg.Wait()
				return nil
			}
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage sends plain text to a chat.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := r.bot.Send(msg)
	return err
}

// SetMenuCommands installs the command list for one chat; staff get the
// extended list.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context, chatID int64, isStaff bool) error {
	cmds := []tgbotapi.BotCommand{
		{Command: "redeem", Description: "Activate a purchase"},
		{Command: "code", Description: "Your referral code"},
		{Command: "refer", Description: "Use a referral code"},
		{Command: "keytime", Description: "Time left on your key"},
		{Command: "referrals", Description: "Your referral stats"},
		{Command: "help", Description: "Show help"},
	}
	if isStaff {
		cmds = append(cmds,
			tgbotapi.BotCommand{Command: "grant", Description: "Redeem for a user"},
			tgbotapi.BotCommand{Command: "lookup", Description: "Inspect a user"},
			tgbotapi.BotCommand{Command: "addtime", Description: "Add days to a key"},
			tgbotapi.BotCommand{Command: "blacklist", Description: "Block a user"},
			tgbotapi.BotCommand{Command: "unblacklist", Description: "Unblock a user"},
			tgbotapi.BotCommand{Command: "revoke", Description: "Revoke all access"},
			tgbotapi.BotCommand{Command: "resethwid", Description: "Reset device binding"},
			tgbotapi.BotCommand{Command: "stats", Description: "Redemption stats"},
		)
	}
	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	_, err := r.bot.Request(tgbotapi.NewSetMyCommandsWithScope(scope, cmds...))
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil {
		return nil
	}
	if !message.IsCommand() {
		// only private chats get a hint; group chatter is ignored
		if message.Chat.IsPrivate() && strings.TrimSpace(message.Text) != "" {
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("unknown_command"))
		}
		return nil
	}

	command := strings.ToLower(message.Command())
	metrics.IncTelegramCommand("/" + command)

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, message.From.ID)

	if r.rateLimiter != nil && r.cfg.RateLimit > 0 {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(message.From.ID, command), r.cfg.RateLimit, time.Minute)
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return r.SendMessage(ctx, message.Chat.ID, r.translator.T("rate_limited"))
		}
	}

	handler, ok := r.commandRoutes()[command]
	if !ok {
		return r.SendMessage(ctx, message.Chat.ID, r.translator.T("unknown_command"))
	}
	return handler(ctx, message)
}

func (r *RealTelegramBotAdapter) isStaff(id int64) bool {
	_, ok := r.adminIDsMap[id]
	return ok
}

func (r *RealTelegramBotAdapter) isSupport(id int64) bool {
	_, ok := r.supportIDsMap[id]
	return ok
}
