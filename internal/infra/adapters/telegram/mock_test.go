//go:build !integration

package telegram

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"telegram-entitlement-bot/internal/application"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/infra/i18n"
	"telegram-entitlement-bot/internal/usecase"
)

// fakeAPI records outgoing Bot API calls.
type fakeAPI struct {
	mu          sync.Mutex
	sent        []tgbotapi.Chattable
	requests    []tgbotapi.Chattable
	SendErr     error
	RequestFunc func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	updates     chan tgbotapi.Update
	stopped     bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return tgbotapi.Message{}, f.SendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, c)
	fn := f.RequestFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(c)
	}
	return &tgbotapi.APIResponse{Ok: true, Result: json.RawMessage(`true`)}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

// Texts returns the text of every message sent to chatID.
func (f *fakeAPI) Texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) Requests() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.requests...)
}

// fakeCommands embeds the interface so tests only override what they use.
type fakeCommands struct {
	application.Commands

	mu          sync.Mutex
	redeemReqs  []usecase.RedeemRequest
	RedeemFn    func(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error)
	LookupFn    func(ctx context.Context, b int64) (*model.BeneficiaryReport, error)
	ApplyFn     func(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error)
	StatsFn     func(ctx context.Context) (*model.RedemptionStats, error)
	KeyTimeFn   func(ctx context.Context, b int64) (*model.LicenseInfo, error)
	AddTimeFn   func(ctx context.Context, b int64, days int) (*model.AddTimeResult, error)
	BlacklistFn func(ctx context.Context, b int64, reason string, actor int64) (*model.BlacklistEntry, error)
	resets      []int64
}

func (c *fakeCommands) Redeem(ctx context.Context, req usecase.RedeemRequest) (*model.RedemptionResult, error) {
	c.mu.Lock()
	c.redeemReqs = append(c.redeemReqs, req)
	c.mu.Unlock()
	return c.RedeemFn(ctx, req)
}

func (c *fakeCommands) LookupBeneficiary(ctx context.Context, b int64) (*model.BeneficiaryReport, error) {
	return c.LookupFn(ctx, b)
}

func (c *fakeCommands) ApplyReferral(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error) {
	return c.ApplyFn(ctx, code, referred)
}

func (c *fakeCommands) GetOrCreateReferralCode(ctx context.Context, owner int64) (*model.ReferralCode, error) {
	return &model.ReferralCode{Owner: owner, Code: "REF-ABC123", BonusDays: 3}, nil
}

func (c *fakeCommands) Stats(ctx context.Context) (*model.RedemptionStats, error) {
	return c.StatsFn(ctx)
}

func (c *fakeCommands) KeyTime(ctx context.Context, b int64) (*model.LicenseInfo, error) {
	return c.KeyTimeFn(ctx, b)
}

func (c *fakeCommands) AddTime(ctx context.Context, b int64, days int) (*model.AddTimeResult, error) {
	return c.AddTimeFn(ctx, b, days)
}

func (c *fakeCommands) Blacklist(ctx context.Context, b int64, reason string, actor int64) (*model.BlacklistEntry, error) {
	return c.BlacklistFn(ctx, b, reason, actor)
}

func (c *fakeCommands) ResetDevice(ctx context.Context, b int64) error {
	c.mu.Lock()
	c.resets = append(c.resets, b)
	c.mu.Unlock()
	return nil
}

func (c *fakeCommands) RedeemRequests() []usecase.RedeemRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]usecase.RedeemRequest(nil), c.redeemReqs...)
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	require.NoError(t, err)
	return tr
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// commandUpdate builds a private-chat update carrying a bot command.
func commandUpdate(from int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: from, Type: "private"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}
