package main

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/application"
	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	licAdapters "telegram-entitlement-bot/internal/infra/adapters/license"
	payAdapters "telegram-entitlement-bot/internal/infra/adapters/payment"
	tele "telegram-entitlement-bot/internal/infra/adapters/telegram"
	pg "telegram-entitlement-bot/internal/infra/db/postgres"
	"telegram-entitlement-bot/internal/infra/i18n"
	"telegram-entitlement-bot/internal/infra/logging"
	red "telegram-entitlement-bot/internal/infra/redis"
	"telegram-entitlement-bot/internal/infra/security"
	"telegram-entitlement-bot/internal/usecase"
)

const devEncryptionKey = "0123456789abcdef0123456789abcdef"

// app holds everything serve and sweep need. close releases the pools.
type app struct {
	cfg        *config.Config
	log        *zerolog.Logger
	pool       *pgxpool.Pool
	redis      *red.Client
	translator *i18n.Translator

	bot      *tele.RealTelegramBotAdapter
	platform adapter.PlatformBinding
	facade   *application.Facade
	sweep    usecase.SweepUseCase
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func loadServeConfig() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	return cfg, logger, nil
}

// buildApp connects the stores and wires adapters, use cases and the facade.
// withBot also builds the Telegram command interface when a token is set.
func buildApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, withBot bool) (_ *app, err error) {
	a := &app{cfg: cfg, log: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// ---- Postgres ----
	a.pool, err = pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	// ---- Redis ----
	a.redis, err = red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if encKey == "" {
		if !cfg.Runtime.Dev {
			return nil, errors.New("security.encryption_key is required outside dev mode")
		}
		logger.Warn().Msg("security.encryption_key not set; falling back to dev key (INSECURE)")
		encKey = devEncryptionKey
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}

	// ---- i18n ----
	a.translator, err = i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		return nil, fmt.Errorf("i18n: %w", err)
	}

	// ---- Repositories ----
	redemptionRepo := pg.NewRedemptionRepo(a.pool, encSvc)
	referralRepo := pg.NewReferralRepo(a.pool)
	blacklistRepo := pg.NewBlacklistRepoCacheDecorator(pg.NewBlacklistRepo(a.pool), a.redis, cfg.Redis.TTL)
	var tm repository.TransactionManager = pg.NewTxManager(a.pool)

	// ---- External services ----
	licenseSvc, err := licAdapters.NewClient(cfg.License, logger)
	if err != nil {
		return nil, fmt.Errorf("license client: %w", err)
	}
	payments, err := newPaymentVerifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	// ---- Telegram platform ----
	var api *tgbotapi.BotAPI
	if cfg.Bot.Token != "" {
		api, err = tele.NewBotAPI(&cfg.Bot)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		logger.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
		a.platform = tele.NewPlatform(api, &cfg.Bot, a.translator, logger)
	} else {
		logger.Warn().Msg("bot.token not set; platform actions are logged only")
		a.platform = tele.NewNoopPlatform(logger)
	}

	// ---- Use cases ----
	referralUC := usecase.NewReferralUseCase(referralRepo, redemptionRepo, licenseSvc, a.platform, tm, a.translator, cfg.Referral.BonusDays, logger)
	redeemUC := usecase.NewRedemptionUseCase(redemptionRepo, blacklistRepo, payments, licenseSvc, a.platform, referralUC, usecase.RedeemOptions{
		StaleAfter: cfg.Redemption.StaleAfter,
		Products:   cfg.License.Products,
		Dev:        cfg.Runtime.Dev,
	}, logger)
	adminUC := usecase.NewAdminUseCase(redemptionRepo, blacklistRepo, referralRepo, licenseSvc, a.platform, a.translator, logger)
	a.sweep = usecase.NewSweepUseCase(redemptionRepo, licenseSvc, a.platform, red.NewLocker(a.redis), a.translator, usecase.SweepOptions{
		BatchSize:        cfg.Scheduler.BatchSize,
		ReminderLead:     cfg.Scheduler.ReminderLead,
		ExpiryInterval:   cfg.Scheduler.ExpiryInterval,
		ReminderInterval: cfg.Scheduler.ReminderInterval,
		LockTTL:          cfg.Scheduler.LockTTL,
	}, logger)

	// ---- Facade ----
	a.facade = application.NewFacade(redeemUC, referralUC, adminUC, logger)

	// ---- Command interface ----
	if withBot && api != nil {
		a.bot, err = tele.NewRealTelegramBotAdapter(api, &cfg.Bot, a.facade, red.NewRateLimiter(a.redis), a.translator, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
	}
	return a, nil
}

func newPaymentVerifier(cfg *config.Config, logger *zerolog.Logger) (adapter.PaymentVerifier, error) {
	if cfg.Payment.APIKey == "" && cfg.Runtime.Dev {
		logger.Warn().Msg("payment credentials not set; using in-memory verifier")
		return payAdapters.NewNoopPaymentVerifier(), nil
	}
	v, err := payAdapters.NewSellAuthVerifier(cfg.Payment, logger)
	if err != nil {
		return nil, fmt.Errorf("payment verifier: %w", err)
	}
	return v, nil
}
